package fetch

import (
	"regexp"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// hangulRE matches characters in the Hangul syllables block. The amount of
// hangul in a decoding candidate is the quality signal for picking between
// UTF-8 and the legacy Korean encodings these sites still serve.
var hangulRE = regexp.MustCompile(`[\x{AC00}-\x{D7A3}]`)

// mojibakeHints are bytes-as-latin1 artifacts that show up when UTF-8 Korean
// text has been decoded with the wrong charset.
const mojibakeHints = "ìëíïâãà"

const (
	hangulWeight      = 10
	replacementWeight = 20
)

// DecodeKorean decodes a page body whose charset declaration cannot be
// trusted. It tries UTF-8 and EUC-KR/CP949 and keeps the candidate with the
// most hangul and the fewest replacement characters.
func DecodeKorean(data []byte) string {
	best := ""
	bestScore := 0

	for i, candidate := range decodeCandidates(data) {
		score := hangulWeight*len(hangulRE.FindAllString(candidate, -1)) -
			replacementWeight*strings.Count(candidate, "�")
		if i == 0 || score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	return best
}

// decodeCandidates produces the decoding candidates for DecodeKorean,
// UTF-8 first so it wins ties.
func decodeCandidates(data []byte) []string {
	candidates := []string{strings.ToValidUTF8(string(data), "�")}

	if decoded, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data); err == nil {
		candidates = append(candidates, string(decoded))
	}

	return candidates
}

// RecoverText repairs mojibake in a short string (a title or date cell) that
// was decoded through latin1 by the upstream site. Text that already contains
// hangul, or shows no mojibake artifacts, is returned unchanged.
func RecoverText(text string) string {
	if text == "" || hangulRE.MatchString(text) {
		return text
	}
	if !strings.ContainsAny(text, mojibakeHints) {
		return text
	}

	raw, _, err := transform.Bytes(charmap.ISO8859_1.NewEncoder(), []byte(text))
	if err != nil {
		return text
	}

	recovered := DecodeKorean(raw)
	if len(hangulRE.FindAllString(recovered, -1)) > len(hangulRE.FindAllString(text, -1)) {
		return recovered
	}

	return text
}

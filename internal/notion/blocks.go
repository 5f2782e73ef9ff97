package notion

import "strings"

// maxTextLen is Notion's per-rich-text length limit.
const maxTextLen = 2000

// Block is a page child block. Only paragraph blocks are produced.
type Block struct {
	Type      string    `json:"type"`
	Paragraph Paragraph `json:"paragraph"`
}

// Paragraph holds a paragraph block's rich text runs.
type Paragraph struct {
	RichText []RichText `json:"rich_text"`
}

// RichText is a single plain-text run.
type RichText struct {
	Text TextContent `json:"text"`
}

// TextContent is the text payload of a run.
type TextContent struct {
	Content string `json:"content"`
}

func paragraphBlock(text string) Block {
	return Block{
		Type: "paragraph",
		Paragraph: Paragraph{
			RichText: []RichText{{Text: TextContent{Content: text}}},
		},
	}
}

// ParagraphBlocks converts body paragraphs into page blocks, splitting
// paragraphs that exceed Notion's per-block text limit at sentence
// boundaries where possible.
func ParagraphBlocks(paragraphs []string) []Block {
	var blocks []Block

	for _, p := range paragraphs {
		text := strings.TrimSpace(p)
		if text == "" {
			continue
		}

		if len([]rune(text)) <= maxTextLen {
			blocks = append(blocks, paragraphBlock(text))
			continue
		}

		for _, chunk := range splitLongParagraph(text) {
			blocks = append(blocks, paragraphBlock(chunk))
		}
	}

	return blocks
}

// splitLongParagraph packs a paragraph's sentences into chunks that fit the
// block limit. A single sentence longer than the limit is hard-split.
func splitLongParagraph(text string) []string {
	var chunks []string
	var current []rune

	flush := func() {
		if trimmed := strings.TrimSpace(string(current)); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current = current[:0]
	}

	for _, sentence := range splitSentences(text) {
		runes := []rune(sentence)

		if len(current)+len(runes) <= maxTextLen {
			current = append(current, runes...)
			continue
		}
		flush()

		if len(runes) > maxTextLen {
			for start := 0; start < len(runes); start += maxTextLen {
				end := min(start+maxTextLen, len(runes))
				if trimmed := strings.TrimSpace(string(runes[start:end])); trimmed != "" {
					chunks = append(chunks, trimmed)
				}
			}
			continue
		}
		current = append(current, runes...)
	}
	flush()

	return chunks
}

// splitSentences cuts text after sentence-ending punctuation followed by
// whitespace, keeping the punctuation and whitespace with the sentence.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		j := i + 1
		for j < len(runes) && (runes[j] == ' ' || runes[j] == '\t' || runes[j] == '\n') {
			j++
		}
		if j == i+1 {
			continue
		}
		sentences = append(sentences, string(runes[start:j]))
		start = j
		i = j - 1
	}

	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}

	return sentences
}

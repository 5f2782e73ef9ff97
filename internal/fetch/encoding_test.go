package fetch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/partywatch/partycrawl/internal/fetch"
)

const sampleKorean = "진보당 논평 전문입니다"

func TestDecodeKoreanUTF8(t *testing.T) {
	t.Parallel()

	got := fetch.DecodeKorean([]byte(sampleKorean))
	assert.Equal(t, sampleKorean, got)
}

func TestDecodeKoreanEUCKR(t *testing.T) {
	t.Parallel()

	encoded, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(sampleKorean))
	require.NoError(t, err)

	got := fetch.DecodeKorean(encoded)
	assert.Equal(t, sampleKorean, got)
}

func TestDecodeKoreanPlainASCII(t *testing.T) {
	t.Parallel()

	got := fetch.DecodeKorean([]byte("<html><body>hello</body></html>"))
	assert.Equal(t, "<html><body>hello</body></html>", got)
}

func TestRecoverText(t *testing.T) {
	t.Parallel()

	// UTF-8 bytes of Korean text misread as latin1.
	mojibake := ""
	for _, b := range []byte(sampleKorean) {
		mojibake += string(rune(b))
	}

	t.Run("repairs latin1 mojibake", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, sampleKorean, fetch.RecoverText(mojibake))
	})

	t.Run("leaves clean hangul alone", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, sampleKorean, fetch.RecoverText(sampleKorean))
	})

	t.Run("leaves plain ascii alone", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Press Release No. 5", fetch.RecoverText("Press Release No. 5"))
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, fetch.RecoverText(""))
	})
}

package notion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockText(b Block) string {
	var sb strings.Builder
	for _, rt := range b.Paragraph.RichText {
		sb.WriteString(rt.Text.Content)
	}
	return sb.String()
}

func TestParagraphBlocks(t *testing.T) {
	t.Parallel()

	blocks := ParagraphBlocks([]string{"첫 문단", "", "  ", "둘째 문단"})

	require.Len(t, blocks, 2)
	assert.Equal(t, "paragraph", blocks[0].Type)
	assert.Equal(t, "첫 문단", blockText(blocks[0]))
	assert.Equal(t, "둘째 문단", blockText(blocks[1]))
}

func TestParagraphBlocksSplitsAtSentences(t *testing.T) {
	t.Parallel()

	// Two sentences that only fit in separate blocks.
	first := strings.Repeat("가", 1500) + ". "
	second := strings.Repeat("나", 1000) + "."

	blocks := ParagraphBlocks([]string{first + second})

	require.Len(t, blocks, 2)
	assert.Equal(t, strings.TrimSpace(first), blockText(blocks[0]))
	assert.Equal(t, second, blockText(blocks[1]))
}

func TestParagraphBlocksHardSplitsLongSentence(t *testing.T) {
	t.Parallel()

	blocks := ParagraphBlocks([]string{strings.Repeat("다", 4100)})

	require.Len(t, blocks, 3)
	for _, b := range blocks {
		assert.LessOrEqual(t, len([]rune(blockText(b))), maxTextLen)
	}
}

func TestSplitSentences(t *testing.T) {
	t.Parallel()

	got := splitSentences("하나입니다. 둘입니다! 셋")

	require.Len(t, got, 3)
	assert.Equal(t, "하나입니다. ", got[0])
	assert.Equal(t, "둘입니다! ", got[1])
	assert.Equal(t, "셋", got[2])
}

func TestSplitSentencesKeepsNumbersIntact(t *testing.T) {
	t.Parallel()

	// A period not followed by whitespace is not a sentence boundary.
	got := splitSentences("3.5조 예산안을 통과시켰다. 끝")

	require.Len(t, got, 2)
	assert.Equal(t, "3.5조 예산안을 통과시켰다. ", got[0])
}

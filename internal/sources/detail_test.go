package sources

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partywatch/partycrawl/internal/logger"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestHostAllowed(t *testing.T) {
	t.Parallel()

	assert.True(t, hostAllowed("www.laborparty.kr"))
	assert.True(t, hostAllowed("jinboparty.com"))
	assert.True(t, hostAllowed("KGREENS.ORG"))
	assert.False(t, hostAllowed("example.com"))
	assert.False(t, hostAllowed("127.0.0.1"))
}

func TestBrowserHost(t *testing.T) {
	t.Parallel()

	wait, ok := browserHost("www.jinboparty.com")
	assert.True(t, ok)
	assert.Equal(t, ".content_box", wait)

	_, ok = browserHost("rebuildingkoreaparty.kr")
	assert.True(t, ok)

	_, ok = browserHost("laborparty.kr")
	assert.False(t, ok)
}

func TestExtractDate(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><body>
		<div class="view_date">등록일 2026.01.15</div>
		<p>본문에 다른 날짜 2020-01-01 이 있어도 무시한다.</p>
	</body></html>`)

	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), extractDate(doc))
}

func TestExtractDateFallsBackToWholePage(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><body><p>발표일 2025-11-30</p></body></html>`)

	assert.Equal(t, time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC), extractDate(doc))
}

func TestExtractParagraphs(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><body><div class="entry-content">
		<div class="kboard-title">게시판 제목 줄</div>
		<p>첫 문단입니다.</p>
		<p>  </p>
		<p>둘째 문단입니다.</p>
	</div></body></html>`)

	paras := extractParagraphs(findContent(doc))
	assert.Equal(t, []string{"첫 문단입니다.", "둘째 문단입니다."}, paras)
}

func TestExtractParagraphsFallsBackToLines(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, "<html><body><div class=\"content_box\">첫 줄\n\n둘째 줄</div></body></html>")

	paras := extractParagraphs(findContent(doc))
	assert.Equal(t, []string{"첫 줄", "둘째 줄"}, paras)
}

func TestDetailFetcherSkipsUnknownHosts(t *testing.T) {
	t.Parallel()

	fetcher := NewDetailFetcher(nil, nil, logger.NewNoOp())

	detail, err := fetcher.Fetch(context.Background(), "https://evil.example.com/post/1")
	require.NoError(t, err)
	assert.Empty(t, detail.Paragraphs)
	assert.True(t, detail.Date.IsZero())
}

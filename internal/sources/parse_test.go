package sources

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "  논평   발표\n자료  ", "논평 발표 자료"},
		{"strips registration date", "신년 논평 등록일 2026.01.05", "신년 논평"},
		{"nbsp treated as space", "논평 발표", "논평 발표"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CleanTitle(tt.in))
		})
	}
}

func TestURLFromOnclick(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"quoted location", `location.href='/news/briefing/12'`, "/news/briefing/12"},
		{"window open", `window.open("https://samindang.kr/news/briefing/3")`, "https://samindang.kr/news/briefing/3"},
		{"bare assignment", `document.location=/news/view?id=9`, "/news/view?id=9"},
		{"no url", `toggleMenu()`, ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, urlFromOnclick(tt.in))
		})
	}
}

func TestResolveURL(t *testing.T) {
	t.Parallel()

	list := "https://www.example.org/news/briefing"

	assert.Equal(t, "https://www.example.org/news/briefing/7", resolveURL(list, "/news/briefing/7"))
	assert.Equal(t, "https://other.example.com/a", resolveURL(list, "https://other.example.com/a"))
	assert.Empty(t, resolveURL(list, "javascript:void(0)"))
	assert.Empty(t, resolveURL(list, ""))
}

func TestHrefFromAttrs(t *testing.T) {
	t.Parallel()

	sel := func(html string) *goquery.Selection {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		require.NoError(t, err)
		return doc.Find("li").First()
	}

	assert.Equal(t, "/news/briefing/5",
		hrefFromAttrs(sel(`<li data-url="/news/briefing/5">x</li>`), "/news/briefing/"))
	assert.Equal(t, "/news/briefing/8",
		hrefFromAttrs(sel(`<li data-no="8">x</li>`), "/news/briefing/"))
	assert.Empty(t, hrefFromAttrs(sel(`<li data-no="8">x</li>`), ""))
	assert.Empty(t, hrefFromAttrs(sel(`<li>x</li>`), "/news/briefing/"))
}

func TestDateHintFrom(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2026-01-19", dateHintFrom("논평 2026-01-19 발표"))
	assert.Equal(t, "2025-12-03", dateHintFrom("등록일 2025.12.3"))
	assert.Empty(t, dateHintFrom("18:34"))
	assert.Empty(t, dateHintFrom(""))
}

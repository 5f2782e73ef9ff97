package sources_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partywatch/partycrawl/internal/fetch"
	"github.com/partywatch/partycrawl/internal/logger"
	"github.com/partywatch/partycrawl/internal/models"
	"github.com/partywatch/partycrawl/internal/sources"
)

func newTestDeps(t *testing.T) sources.Deps {
	t.Helper()

	client, err := fetch.NewClient(fetch.ClientConfig{
		Timeout:    5 * time.Second,
		Delay:      time.Millisecond,
		MaxRetries: 1,
		RetryWait:  time.Millisecond,
	}, logger.NewNoOp())
	require.NoError(t, err)

	return sources.Deps{
		Client: client,
		Detail: sources.NewDetailFetcher(client, nil, logger.NewNoOp()),
		Logger: logger.NewNoOp(),
	}
}

func serveHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func listEntries(t *testing.T, target models.Target, limit int) []models.RawEntry {
	t.Helper()

	adapter, err := sources.ForTarget(newTestDeps(t), target)
	require.NoError(t, err)

	entries, err := adapter.List(context.Background(), limit)
	require.NoError(t, err)
	return entries
}

func TestForTargetUnknownSite(t *testing.T) {
	t.Parallel()

	_, err := sources.ForTarget(newTestDeps(t), models.Target{Site: "unheard-of"})
	require.ErrorIs(t, err, sources.ErrUnknownSite)
}

func TestBasicIncomeBoardListing(t *testing.T) {
	t.Parallel()

	server := serveHTML(t, `<html><body>
		<a href="/news/briefing?mod=document&pageid=1&uid=8876">청년 기본소득 논평</a>
		<a href="/news/briefing?mod=document&pageid=1&uid=8876">청년 기본소득 논평</a>
		<a href="/news/briefing?mod=list&pageid=2">2</a>
		<a href="/about">소개</a>
	</body></html>`)

	entries := listEntries(t, models.Target{
		ID: "basicincomeparty-briefing", Party: "기본소득당", Site: "basicincomeparty",
		Category: "논평", ListURL: server.URL + "/news/briefing",
	}, 10)

	require.Len(t, entries, 1)
	assert.Equal(t, "청년 기본소득 논평", entries[0].Title)
	assert.Contains(t, entries[0].URL, "uid=8876")
	assert.Equal(t, "기본소득당", entries[0].Party)
}

func TestBasicIncomePressListing(t *testing.T) {
	t.Parallel()

	server := serveHTML(t, `<html><body><table class="kboard-list"><tbody>
		<tr>
			<td class="kboard-list-title"><a href="https://news.example.com/a/1">보도: 기본소득 토론회</a></td>
			<td class="kboard-list-date">2026-01-20</td>
		</tr>
		<tr>
			<td class="kboard-list-title"><a href="https://news.example.com/a/2">보도: 정책 발표</a></td>
			<td class="kboard-list-date">18:34</td>
		</tr>
	</tbody></table></body></html>`)

	entries := listEntries(t, models.Target{
		ID: "basicincomeparty-press", Party: "기본소득당", Site: "basicincomeparty",
		Category: "보도자료", ListURL: server.URL + "/news/press",
	}, 10)

	require.Len(t, entries, 2)
	assert.Equal(t, "https://news.example.com/a/1", entries[0].URL)
	assert.Equal(t, "2026-01-20", entries[0].DateHint)
	assert.Equal(t, "18:34", entries[1].DateHint)
}

func TestLaborPartyListing(t *testing.T) {
	t.Parallel()

	server := serveHTML(t, `<html><body><table class="kboard-list"><tbody>
		<tr>
			<td><div class="kboard-thumbnail-cut-strings">최저임금 인상 성명 New</div>
			<a href="https://www.laborparty.kr/bd_statement?uid=77&mod=document">보기</a>
			<p class="date"><span>2026-01-18</span></p></td>
		</tr>
		<tr>
			<td><div class="kboard-thumbnail-cut-strings">공지 없음</div></td>
		</tr>
	</tbody></table></body></html>`)

	entries := listEntries(t, models.Target{
		ID: "laborparty-statement", Party: "노동당", Site: "laborparty",
		Category: "성명", ListURL: server.URL + "/bd_statement",
	}, 10)

	require.Len(t, entries, 1)
	assert.Equal(t, "최저임금 인상 성명", entries[0].Title)
	assert.Equal(t, "2026-01-18", entries[0].DateHint)
	assert.Contains(t, entries[0].URL, "uid=77")
}

func TestKGreensListing(t *testing.T) {
	t.Parallel()

	server := serveHTML(t, `<html><body>
		<ul class="li_body">
			<a class="list_text_title" href="/press/?bmode=view&idx=991&t=board">기후 위기 대응 보도자료</a>
			<li class="time" title="2026-01-22 10:30:00">2일 전</li>
		</ul>
		<ul class="li_body">
			<a class="list_text_title" href="/press/?bmode=view&idx=992&t=board">짧음</a>
		</ul>
	</body></html>`)

	entries := listEntries(t, models.Target{
		ID: "kgreens-press", Party: "녹색당", Site: "kgreens",
		Category: "보도자료", ListURL: server.URL + "/press/",
	}, 10)

	require.Len(t, entries, 1)
	assert.Equal(t, "기후 위기 대응 보도자료", entries[0].Title)
	assert.Equal(t, "2026-01-22", entries[0].DateHint)
	assert.Contains(t, entries[0].URL, "idx=991")
}

func TestJustice21Listing(t *testing.T) {
	t.Parallel()

	server := serveHTML(t, `<html><body><table>
		<tr>
			<td><a href="board_view.html?bbs_code=JS21&bbs_no=18761">국회 개혁 브리핑</a></td>
			<td>2026-01-15</td>
		</tr>
		<tr>
			<td><a href="board_view.html?bbs_code=OTHER&bbs_no=5">다른 게시판</a></td>
		</tr>
		<tr>
			<td><a href="board.html?bbs_code=JS21&page=2">다음</a></td>
		</tr>
	</table></body></html>`)

	entries := listEntries(t, models.Target{
		ID: "justice21-briefing", Party: "정의당", Site: "justice21",
		Category: "브리핑", ListURL: server.URL + "/newhome/board/board.html?bbs_code=JS21",
	}, 10)

	require.Len(t, entries, 1)
	assert.Equal(t, "국회 개혁 브리핑", entries[0].Title)
	assert.Equal(t, "2026-01-15", entries[0].DateHint)
	assert.Contains(t, entries[0].URL, "bbs_no=18761")
}

func TestJinbopartyListing(t *testing.T) {
	t.Parallel()

	server := serveHTML(t, `<html><body><div class="board_list">
		<li>
			<span class="title">당대표 신년 논평</span>
			<span class="col wid_140">2026-01-10</span>
			<a href="https://www.jinboparty.com/main/sub.html?p=4_2&b=comment&sno=51">보기</a>
		</li>
		<li>
			<span class="title">다른 게시판 글</span>
			<a href="https://www.jinboparty.com/main/sub.html?p=4_2&b=notice&sno=52">보기</a>
		</li>
	</div></body></html>`)

	entries := listEntries(t, models.Target{
		ID: "jinboparty-commentary", Party: "진보당", Site: "jinboparty",
		Category: "논평", ListURL: server.URL + "/main/sub.html?p=4_2&b=comment",
	}, 10)

	require.Len(t, entries, 1)
	assert.Equal(t, "당대표 신년 논평", entries[0].Title)
	assert.Equal(t, "2026-01-10", entries[0].DateHint)
	assert.Contains(t, entries[0].URL, "sno=51")
}

func TestSamindangListing(t *testing.T) {
	t.Parallel()

	server := serveHTML(t, `<html><body><ul>
		<li data-url="https://www.samindang.kr/news/briefing/41">
			<span class="title">사회안전망 확충 촉구 논평</span>
			<span class="date">2026-01-19</span>
		</li>
		<li data-url="https://www.samindang.kr/news/briefing/42">
			<span class="title">논평</span>
		</li>
	</ul></body></html>`)

	entries := listEntries(t, models.Target{
		ID: "samindang-briefing", Party: "사회민주당", Site: "samindang",
		Category: "논평", ListURL: server.URL + "/news/briefing",
	}, 10)

	require.Len(t, entries, 1)
	assert.Equal(t, "사회안전망 확충 촉구 논평", entries[0].Title)
	assert.Equal(t, "2026-01-19", entries[0].DateHint)
	assert.Equal(t, "https://www.samindang.kr/news/briefing/41", entries[0].URL)
}

func TestListingLimit(t *testing.T) {
	t.Parallel()

	server := serveHTML(t, `<html><body>
		<a href="/news/briefing?mod=document&uid=1">기본소득 논평 하나</a>
		<a href="/news/briefing?mod=document&uid=2">기본소득 논평 둘</a>
		<a href="/news/briefing?mod=document&uid=3">기본소득 논평 셋</a>
	</body></html>`)

	entries := listEntries(t, models.Target{
		ID: "basicincomeparty-briefing", Party: "기본소득당", Site: "basicincomeparty",
		Category: "논평", ListURL: server.URL + "/news/briefing",
	}, 2)

	assert.Len(t, entries, 2)
}

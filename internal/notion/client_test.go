package notion_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partywatch/partycrawl/internal/logger"
	"github.com/partywatch/partycrawl/internal/models"
	"github.com/partywatch/partycrawl/internal/notion"
)

const testDatabaseID = "db-1"

func newTestClient(t *testing.T, handler http.Handler) *notion.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := notion.NewClient(notion.Config{
		Token:      "secret-token",
		DatabaseID: testDatabaseID,
		BaseURL:    server.URL,
		Timeout:    5 * time.Second,
	}, logger.NewNoOp())
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// schemaResponse is the database schema used by most tests: a title
// property, a select party, and a rich_text category.
func schemaResponse(t *testing.T, w http.ResponseWriter) {
	writeJSON(t, w, map[string]any{
		"properties": map[string]any{
			"이름":   map[string]any{"type": "title"},
			"링크":   map[string]any{"type": "url"},
			"정당":   map[string]any{"type": "select"},
			"카테고리": map[string]any{"type": "rich_text"},
			"날짜":   map[string]any{"type": "date"},
		},
	})
}

func TestClientRequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := notion.NewClient(notion.Config{}, logger.NewNoOp())
	require.ErrorIs(t, err, notion.ErrMissingCredentials)
}

func TestClientCreate(t *testing.T) {
	t.Parallel()

	var pageBody, blocksBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("GET /databases/"+testDatabaseID, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))
		schemaResponse(t, w)
	})
	mux.HandleFunc("POST /pages", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&pageBody))
		writeJSON(t, w, map[string]any{"id": "page-9"})
	})
	mux.HandleFunc("PATCH /blocks/page-9/children", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&blocksBody))
		writeJSON(t, w, map[string]any{})
	})

	client := newTestClient(t, mux)

	err := client.Create(context.Background(), &models.Record{
		Party:      "정의당",
		Category:   "브리핑",
		Title:      "국회 개혁 브리핑",
		Date:       time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Link:       "https://justice21.org/newhome/board/board_view.html?bbs_no=18761",
		Paragraphs: []string{"본문 첫 문단", "본문 둘째 문단"},
	})
	require.NoError(t, err)

	props, ok := pageBody["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "이름")
	assert.Contains(t, props, "링크")

	party, ok := props["정당"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, party, "select")

	category, ok := props["카테고리"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, category, "rich_text")

	date, ok := props["날짜"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"start": "2026-01-15"}, date["date"])

	children, ok := blocksBody["children"].([]any)
	require.True(t, ok)
	assert.Len(t, children, 2)
}

func TestClientCreateOmitsUnknownDate(t *testing.T) {
	t.Parallel()

	var pageBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("GET /databases/"+testDatabaseID, func(w http.ResponseWriter, _ *http.Request) {
		schemaResponse(t, w)
	})
	mux.HandleFunc("POST /pages", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&pageBody))
		writeJSON(t, w, map[string]any{"id": "page-1"})
	})

	client := newTestClient(t, mux)

	err := client.Create(context.Background(), &models.Record{
		Party: "녹색당", Category: "보도자료", Title: "제목",
		Link: "https://kgreens.org/press/?idx=1",
	})
	require.NoError(t, err)

	props, ok := pageBody["properties"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, props, "날짜")
}

func TestClientAuthError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"API token is invalid."}`))
	}))

	err := client.Create(context.Background(), &models.Record{Title: "x", Link: "https://a"})
	require.Error(t, err)
	assert.Equal(t, notion.KindAuth, notion.KindOf(err))
	assert.Contains(t, err.Error(), "API token is invalid.")
}

func TestClientValidationErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /databases/"+testDatabaseID, func(w http.ResponseWriter, _ *http.Request) {
		schemaResponse(t, w)
	})
	mux.HandleFunc("POST /pages", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"body failed validation"}`))
	})

	client := newTestClient(t, mux)

	err := client.Create(context.Background(), &models.Record{Title: "x", Link: "https://a"})
	require.Error(t, err)
	assert.Equal(t, notion.KindValidation, notion.KindOf(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientRetriesRateLimit(t *testing.T) {
	t.Parallel()

	var queryCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /databases/"+testDatabaseID+"/query", func(w http.ResponseWriter, _ *http.Request) {
		if queryCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"rate limited"}`))
			return
		}
		writeJSON(t, w, map[string]any{"results": []any{}, "has_more": false})
	})

	client := newTestClient(t, mux)

	links, err := client.ExistingLinks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, links)
	assert.Equal(t, int32(2), queryCalls.Load())
}

func TestClientExistingLinksPaginates(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /databases/"+testDatabaseID+"/query", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		page := func(link string) map[string]any {
			return map[string]any{
				"properties": map[string]any{
					"링크": map[string]any{"url": link},
				},
			}
		}

		if _, hasCursor := payload["start_cursor"]; !hasCursor {
			writeJSON(t, w, map[string]any{
				"results":     []any{page("https://a.example/1"), page("https://a.example/2")},
				"has_more":    true,
				"next_cursor": "cursor-2",
			})
			return
		}
		assert.Equal(t, "cursor-2", payload["start_cursor"])
		writeJSON(t, w, map[string]any{
			"results":  []any{page("https://a.example/3")},
			"has_more": false,
		})
	})

	client := newTestClient(t, mux)

	links, err := client.ExistingLinks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://a.example/1", "https://a.example/2", "https://a.example/3",
	}, links)
}

func TestClientSchemaWithoutTitleProperty(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"properties": map[string]any{
				"링크": map[string]any{"type": "url"},
			},
		})
	}))

	err := client.Create(context.Background(), &models.Record{Title: "x", Link: "https://a"})
	require.ErrorIs(t, err, notion.ErrNoTitleProperty)
	assert.Equal(t, notion.KindValidation, notion.KindOf(err))
}

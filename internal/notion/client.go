// Package notion implements the sink client: idempotent page creation in a
// Notion database, plus the existing-link query that seeds the dedup ledger.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/partywatch/partycrawl/internal/logger"
	"github.com/partywatch/partycrawl/internal/models"
)

const (
	apiBase    = "https://api.notion.com/v1"
	apiVersion = "2022-06-28"

	// Notion database property names the destination schema uses.
	propLink     = "링크"
	propParty    = "정당"
	propCategory = "카테고리"
	propDate     = "날짜"

	// appendChunkSize is Notion's per-request children limit.
	appendChunkSize = 100

	// queryPageSize is the page size for existing-link queries.
	queryPageSize = 100

	defaultTimeout = 20 * time.Second
)

// rateLimitRetries bounds the backoff retries for a rate-limited call.
const rateLimitRetries = 3

var (
	// ErrMissingCredentials indicates the token or database id is unset.
	ErrMissingCredentials = errors.New("notion token or database id is not set")
	// ErrNoTitleProperty indicates the database schema has no title
	// property to write into.
	ErrNoTitleProperty = errors.New("notion database has no title property")
)

// Config holds the sink client settings.
type Config struct {
	Token      string
	DatabaseID string
	Timeout    time.Duration

	// BaseURL overrides the API endpoint in tests.
	BaseURL string
}

// Client talks to the Notion API for one database.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	databaseID string
	log        logger.Interface

	schema *schema
}

// schema is the subset of the database schema the writer depends on: the
// title property's name and the types of the text-ish properties, which
// databases declare as either select or rich_text.
type schema struct {
	titleProp    string
	propertyType map[string]string
}

// NewClient validates the credentials and returns a sink client. The
// database schema is fetched lazily on first use.
func NewClient(cfg Config, log logger.Interface) (*Client, error) {
	if cfg.Token == "" || cfg.DatabaseID == "" {
		return nil, ErrMissingCredentials
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = apiBase
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      cfg.Token,
		databaseID: cfg.DatabaseID,
		log:        log.WithComponent("notion"),
	}, nil
}

// ExistingLinks pages through the database and returns every stored link.
// It runs once per crawl to seed the dedup ledger.
func (c *Client) ExistingLinks(ctx context.Context) ([]string, error) {
	var links []string
	cursor := ""

	for {
		payload := map[string]any{"page_size": queryPageSize}
		if cursor != "" {
			payload["start_cursor"] = cursor
		}

		var page struct {
			Results []struct {
				Properties map[string]struct {
					URL string `json:"url"`
				} `json:"properties"`
			} `json:"results"`
			HasMore    bool   `json:"has_more"`
			NextCursor string `json:"next_cursor"`
		}
		err := c.call(ctx, http.MethodPost, "/databases/"+c.databaseID+"/query", payload, &page, "query")
		if err != nil {
			return nil, err
		}

		for _, result := range page.Results {
			if link, ok := result.Properties[propLink]; ok && link.URL != "" {
				links = append(links, link.URL)
			}
		}

		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	c.log.Debug("loaded existing links", "count", len(links))
	return links, nil
}

// Create writes one record: a page with the destination properties, then the
// body paragraphs appended as child blocks. The caller guards uniqueness;
// Create never checks for an existing page.
func (c *Client) Create(ctx context.Context, record *models.Record) error {
	if err := c.ensureSchema(ctx); err != nil {
		return err
	}

	payload := map[string]any{
		"parent":     map[string]any{"database_id": c.databaseID},
		"properties": c.properties(record),
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, http.MethodPost, "/pages", payload, &created, "create"); err != nil {
		return err
	}

	blocks := ParagraphBlocks(record.Paragraphs)
	for start := 0; start < len(blocks); start += appendChunkSize {
		end := min(start+appendChunkSize, len(blocks))
		payload := map[string]any{"children": blocks[start:end]}
		if err := c.call(ctx, http.MethodPatch, "/blocks/"+created.ID+"/children", payload, nil, "append"); err != nil {
			return err
		}
	}

	return nil
}

// properties builds the page properties against the live schema: the party
// and category values follow whichever type the database declares.
func (c *Client) properties(record *models.Record) map[string]any {
	props := map[string]any{
		c.schema.titleProp: map[string]any{
			"title": []map[string]any{{"text": map[string]any{"content": record.Title}}},
		},
		propLink: map[string]any{"url": record.Link},
	}

	setText := func(name, value string) {
		if _, ok := c.schema.propertyType[name]; !ok {
			return
		}
		if c.schema.propertyType[name] == "select" {
			props[name] = map[string]any{"select": map[string]any{"name": value}}
			return
		}
		props[name] = map[string]any{
			"rich_text": []map[string]any{{"text": map[string]any{"content": value}}},
		}
	}
	setText(propParty, record.Party)
	setText(propCategory, record.Category)

	if !record.Date.IsZero() {
		props[propDate] = map[string]any{
			"date": map[string]any{"start": record.Date.Format("2006-01-02")},
		}
	}

	return props
}

// ensureSchema fetches and caches the database schema.
func (c *Client) ensureSchema(ctx context.Context) error {
	if c.schema != nil {
		return nil
	}

	var db struct {
		Properties map[string]struct {
			Type string `json:"type"`
		} `json:"properties"`
	}
	if err := c.call(ctx, http.MethodGet, "/databases/"+c.databaseID, nil, &db, "schema"); err != nil {
		return err
	}

	s := &schema{propertyType: make(map[string]string, len(db.Properties))}
	for name, prop := range db.Properties {
		s.propertyType[name] = prop.Type
		if prop.Type == "title" {
			s.titleProp = name
		}
	}
	if s.titleProp == "" {
		return &SinkError{Kind: KindValidation, Op: "schema", Err: ErrNoTitleProperty}
	}
	if _, ok := s.propertyType[propLink]; !ok {
		return &SinkError{
			Kind: KindValidation, Op: "schema",
			Message: fmt.Sprintf("database is missing the %s property", propLink),
		}
	}

	c.schema = s
	return nil
}

// call performs one API request, retrying rate-limited responses with
// exponential backoff.
func (c *Client) call(ctx context.Context, method, path string, payload, out any, op string) error {
	operation := func() error {
		err := c.doRequest(ctx, method, path, payload, out, op)
		if err == nil {
			return nil
		}
		if KindOf(err) == KindRateLimited {
			c.log.Warn("notion rate limited, backing off", "op", op)
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), rateLimitRetries), ctx)
	return backoff.Retry(operation, policy)
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload, out any, op string) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return &SinkError{Kind: KindValidation, Op: op, Err: err}
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return transportError(op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(op, resp.StatusCode, apiMessage(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return transportError(op, fmt.Errorf("decode response: %w", err))
		}
	}

	return nil
}

// apiMessage pulls the human-readable message out of an error response.
func apiMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Message == "" {
		if len(data) > 200 {
			data = data[:200]
		}
		return string(data)
	}
	return body.Message
}

package fetch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	colly "github.com/gocolly/colly/v2"

	"github.com/partywatch/partycrawl/internal/logger"
)

// Client defaults.
const (
	// DefaultUserAgent mirrors a desktop Chrome, which the party sites expect.
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	// DefaultAcceptLanguage advertises Korean first.
	DefaultAcceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"

	defaultTimeout    = 30 * time.Second
	defaultDelay      = 1200 * time.Millisecond
	defaultMaxRetries = 3
	defaultRetryWait  = 2 * time.Second
)

// ClientConfig configures the HTTP client.
type ClientConfig struct {
	UserAgent  string
	Timeout    time.Duration
	Delay      time.Duration
	MaxRetries int
	RetryWait  time.Duration
}

// Client fetches pages over plain HTTP with per-domain politeness delays and
// bounded retries on transient failures.
type Client struct {
	collector *colly.Collector
	log       logger.Interface
	retries   int
	retryWait time.Duration
}

// fetchResult carries a single request's outcome through the collector
// callbacks via the request context.
type fetchResult struct {
	body       []byte
	statusCode int
	err        error
}

// resultCtxKey is the colly request context key for the fetch result.
const resultCtxKey = "fetch_result"

// NewClient creates a Client. Zero config fields select the defaults.
func NewClient(cfg ClientConfig, log logger.Interface) (*Client, error) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Delay == 0 {
		cfg.Delay = defaultDelay
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryWait == 0 {
		cfg.RetryWait = defaultRetryWait
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Timeout)

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob: "*",
		Delay:      cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("set rate limit: %w", err)
	}

	collector.OnResponse(func(r *colly.Response) {
		if res, ok := r.Ctx.GetAny(resultCtxKey).(*fetchResult); ok {
			res.body = r.Body
			res.statusCode = r.StatusCode
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if res, ok := r.Ctx.GetAny(resultCtxKey).(*fetchResult); ok {
			res.err = err
			if r != nil {
				res.statusCode = r.StatusCode
			}
		}
	})

	return &Client{
		collector: collector,
		log:       log.WithComponent("fetch"),
		retries:   cfg.MaxRetries,
		retryWait: cfg.RetryWait,
	}, nil
}

// Get fetches a URL and returns the raw response body. Transient failures
// (timeouts, connection errors) are retried with a growing wait, matching the
// politeness expectations of the source sites.
func (c *Client) Get(rawURL, referer string) ([]byte, error) {
	hdr := c.headers(referer)

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		body, err := c.do(http.MethodGet, rawURL, nil, hdr)
		if err == nil {
			return body, nil
		}

		lastErr = err
		if !retryable(err) {
			break
		}
		if attempt < c.retries {
			c.log.Debug("retrying fetch",
				"url", rawURL,
				"attempt", attempt,
				"error", err,
			)
			time.Sleep(time.Duration(attempt) * c.retryWait)
		}
	}

	return nil, lastErr
}

// GetHTML fetches a URL and returns the body decoded to UTF-8, recovering
// from the EUC-KR/CP949 responses some party sites still serve.
func (c *Client) GetHTML(rawURL, referer string) (string, error) {
	body, err := c.Get(rawURL, referer)
	if err != nil {
		return "", err
	}
	return DecodeKorean(body), nil
}

// GetDocument fetches a URL and parses the decoded body into a goquery
// document.
func (c *Client) GetDocument(rawURL, referer string) (*goquery.Document, error) {
	html, err := c.GetHTML(rawURL, referer)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, NewError(rawURL, ReasonMissingMarker, err)
	}
	return doc, nil
}

// PostJSON sends a JSON payload and decodes the JSON response into out.
func (c *Client) PostJSON(rawURL string, payload, out any, referer string) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	hdr := c.headers(referer)
	hdr.Set("Content-Type", "application/json")
	hdr.Set("Accept", "application/json, text/plain, */*")

	body, err := c.do(http.MethodPost, rawURL, bytes.NewReader(encoded), hdr)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return NewError(rawURL, ReasonMissingMarker, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// do performs a single request through the collector and classifies any
// failure.
func (c *Client) do(method, rawURL string, body *bytes.Reader, hdr http.Header) ([]byte, error) {
	res := &fetchResult{}
	reqCtx := colly.NewContext()
	reqCtx.Put(resultCtxKey, res)

	// A typed nil *bytes.Reader must not reach the io.Reader parameter.
	var reader io.Reader
	if body != nil {
		reader = body
	}

	if err := c.collector.Request(method, rawURL, reader, reqCtx, hdr); err != nil {
		return nil, classify(rawURL, res.statusCode, err)
	}
	c.collector.Wait()

	if res.err != nil {
		return nil, classify(rawURL, res.statusCode, res.err)
	}
	return res.body, nil
}

// headers builds the request headers shared by all fetches.
func (c *Client) headers(referer string) http.Header {
	hdr := http.Header{}
	hdr.Set("Accept-Language", DefaultAcceptLanguage)
	hdr.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if referer != "" {
		hdr.Set("Referer", referer)
	}
	return hdr
}

// classify wraps a transport error in a fetch Error with its reason.
func classify(rawURL string, statusCode int, err error) *Error {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		return NewError(rawURL, ReasonTimeout, err)
	case statusCode == http.StatusForbidden || statusCode == http.StatusTooManyRequests:
		return NewError(rawURL, ReasonBlocked, err)
	case statusCode >= http.StatusBadRequest:
		return NewError(rawURL, ReasonBadStatus, fmt.Errorf("http status %d: %w", statusCode, err))
	default:
		return NewError(rawURL, ReasonNetwork, err)
	}
}

// retryable reports whether a classified fetch error is worth retrying.
func retryable(err error) bool {
	var fetchErr *Error
	if !errors.As(err, &fetchErr) {
		return false
	}
	return fetchErr.Reason == ReasonTimeout || fetchErr.Reason == ReasonNetwork
}

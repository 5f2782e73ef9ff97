// Package models defines the data types shared across the crawl pipeline.
package models

import "time"

// Target is one configured listing to crawl: a single board/category page on
// a party site.
type Target struct {
	ID       string `mapstructure:"id"`
	Party    string `mapstructure:"party"`
	Site     string `mapstructure:"site"`
	Category string `mapstructure:"category"`
	ListURL  string `mapstructure:"list_url"`
}

// RawEntry is a listing entry as produced by a site adapter, before
// normalization. URL is always absolute; DateHint is a full date string
// ("2026-01-05"), a time-only string ("18:34"), or empty.
type RawEntry struct {
	SourceID string
	Party    string
	Category string
	Title    string
	URL      string
	DateHint string
}

// Item is a normalized pipeline item. IdentityKey is the canonical URL used
// for deduplication and as the stored link. A zero Date means the publish
// date is unknown.
type Item struct {
	IdentityKey string
	SourceID    string
	Party       string
	Category    string
	Title       string
	Date        time.Time
	Body        []string
}

// HasDate reports whether the item's publish date has been resolved.
func (i *Item) HasDate() bool {
	return !i.Date.IsZero()
}

// NeedsEnrichment reports whether the item is missing body text or a
// resolved date and should go through a detail fetch.
func (i *Item) NeedsEnrichment() bool {
	return len(i.Body) == 0 || !i.HasDate()
}

// Detail is the result of fetching an entry's detail page.
type Detail struct {
	Paragraphs []string
	Date       time.Time
}

// Record is the externally-visible shape written to the sink. The property
// layout (party/category/title/date/link plus paragraph blocks) must stay
// compatible with the existing Notion database.
type Record struct {
	Party      string
	Category   string
	Title      string
	Date       time.Time
	Link       string
	Paragraphs []string
}

// RecordFromItem builds the sink record for a finalized item.
func RecordFromItem(item *Item) *Record {
	return &Record{
		Party:      item.Party,
		Category:   item.Category,
		Title:      item.Title,
		Date:       item.Date,
		Link:       item.IdentityKey,
		Paragraphs: item.Body,
	}
}

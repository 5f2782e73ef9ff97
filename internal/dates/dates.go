// Package dates reconciles the inconsistent date representations found on
// party-site listing pages into a single calendar date.
package dates

import (
	"regexp"
	"strconv"
	"time"
)

// fullDateRE matches a fully-specified date, optionally prefixed with the
// "등록일" (registration date) label some boards attach: "2026-01-05",
// "2026.1.5", "등록일 2026/01/05".
var fullDateRE = regexp.MustCompile(`(?:등록일\s*)?(\d{4})[.\-/]\s*(\d{1,2})[.\-/]\s*(\d{1,2})`)

// timeOnlyRE matches a bare clock time ("18:34"), which listing pages show
// for items posted today.
var timeOnlyRE = regexp.MustCompile(`^\s*\d{1,2}:\d{2}(?::\d{2})?\s*$`)

// titleMarkerRE matches a bracketed month/day marker embedded in a title,
// e.g. "[1/5] 논평".
var titleMarkerRE = regexp.MustCompile(`\[(\d{1,2})/(\d{1,2})\]`)

// Fallback retrieves a publish date from an item's detail page. It may
// perform network or browser I/O and may fail.
type Fallback func() (time.Time, error)

// Extract finds a fully-specified date anywhere in the given text. It
// returns the zero time when no date is present.
func Extract(text string) time.Time {
	if text == "" {
		return time.Time{}
	}

	m := fullDateRE.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}
	}

	return buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
}

// Resolve reconciles an entry's date hint and title into a calendar date.
// Each step is tried only if the previous one yields nothing:
//
//  1. a fully-specified date in the hint
//  2. a time-only hint, interpreted as "today" in now's calendar
//  3. a bracketed M/D marker in the title, interpreted as the current year
//     unless that would be in the future, in which case the previous year
//  4. the fallback, if non-nil; a fallback failure degrades to unknown
//
// Every resolved date is represented at midnight UTC so that dates from
// different steps compare as calendar days whatever location now carries.
// The zero time is returned only after all steps fail.
func Resolve(hint, title string, now time.Time, fallback Fallback) time.Time {
	if d := Extract(hint); !d.IsZero() {
		return d
	}

	if timeOnlyRE.MatchString(hint) {
		return Day(now)
	}

	if d := fromTitleMarker(title, now); !d.IsZero() {
		return d
	}

	if fallback != nil {
		d, err := fallback()
		if err == nil && !d.IsZero() {
			return Day(d)
		}
	}

	return time.Time{}
}

// Day truncates a time to its calendar date, represented at midnight UTC.
// The input's own location decides which calendar day it is.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// fromTitleMarker interprets a "[M/D]" title marker. Source pages never
// predate the crawler by more than one year, so a marker that would land in
// the future is read as last year's date.
func fromTitleMarker(title string, now time.Time) time.Time {
	m := titleMarkerRE.FindStringSubmatch(title)
	if m == nil {
		return time.Time{}
	}

	month, day := atoi(m[1]), atoi(m[2])
	d := buildDate(now.Year(), month, day)
	if d.IsZero() {
		return time.Time{}
	}

	if d.After(Day(now)) {
		d = buildDate(now.Year()-1, month, day)
	}

	return d
}

// buildDate constructs a UTC calendar date, rejecting out-of-range
// components. time.Date normalizes overflow (month 13, day 32), so a changed
// component after construction means the input was not a real date.
func buildDate(year, month, day int) time.Time {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}
	}

	return d
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

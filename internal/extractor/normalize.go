package extractor

import (
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
)

// Accepted layouts, tried in order. Month and day may be unpadded.
var (
	dateLayouts = []string{
		"2006-1-2",
		"2006-1-2 15:04:05",
		"2/1/2006",
	}
	timestampLayouts = []string{
		"2006-1-2 15:04:05",
		"2006-1-2",
	}
)

// text returns the trimmed text of the direct child tag of n, or nil when
// the child is missing or blank.
func text(n *xmlquery.Node, tag string) *string {
	c := child(n, tag)
	if c == nil {
		return nil
	}
	s := strings.TrimSpace(c.InnerText())
	if s == "" {
		return nil
	}
	return &s
}

// date parses the child tag of n as a calendar date.
func date(n *xmlquery.Node, tag string) *time.Time {
	s := text(n, tag)
	if s == nil {
		return nil
	}
	t, ok := parseFirst(*s, dateLayouts)
	if !ok {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// timestamp parses the child tag of n as a date and time.
func timestamp(n *xmlquery.Node, tag string) *time.Time {
	s := text(n, tag)
	if s == nil {
		return nil
	}
	t, ok := parseFirst(*s, timestampLayouts)
	if !ok {
		return nil
	}
	return &t
}

// boolean reads true, 1 or yes (any case) as true and any other present
// text as false.
func boolean(n *xmlquery.Node, tag string) *bool {
	s := text(n, tag)
	if s == nil {
		return nil
	}
	var v bool
	switch strings.ToLower(*s) {
	case "true", "1", "yes":
		v = true
	}
	return &v
}

func parseFirst(value string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

package docmodel

import (
	"strings"
	"time"
)

// TimeSource records where a timestamp value came from.
type TimeSource string

const (
	SourceFrontmatter TimeSource = "frontmatter"
	SourceFilesystem  TimeSource = "filesystem"
)

// DisplayLayout is the layout used when timestamps are shown in templates.
const DisplayLayout = "2006-01-02 15:04"

// Timestamp is a document date together with its provenance. Valid is false
// when a frontmatter value could not be parsed and Time holds the fallback.
type Timestamp struct {
	Time   time.Time
	Source TimeSource
	Valid  bool
}

// String formats the timestamp with DisplayLayout.
func (t Timestamp) String() string {
	if t.Time.IsZero() {
		return ""
	}
	return t.Time.Format(DisplayLayout)
}

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTimestamp parses a frontmatter date. Accepted forms are
// `YYYY-MM-DD HH:MM:SS`, `YYYY-MM-DD HH:MM`, RFC 3339 and a bare
// `YYYY-MM-DD`, which is read as 17:00 local time. On failure the fallback
// time is returned with Valid set to false.
func ParseTimestamp(value string, fallback time.Time) (Timestamp, bool) {
	value = strings.Trim(strings.TrimSpace(value), `"'`)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return Timestamp{Time: t, Source: SourceFrontmatter, Valid: true}, true
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return Timestamp{Time: t, Source: SourceFrontmatter, Valid: true}, true
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
		evening := time.Date(t.Year(), t.Month(), t.Day(), 17, 0, 0, 0, time.Local)
		return Timestamp{Time: evening, Source: SourceFrontmatter, Valid: true}, true
	}
	return Timestamp{Time: fallback, Source: SourceFilesystem, Valid: false}, false
}

package entry

import (
	"fmt"
	"time"
)

// DisplayLayout is the DD/MM/YYYY form shown on tiles.
const DisplayLayout = "02/01/2006"

// zoned layouts carry their own offset; the rest are read in the caller's location.
var (
	zonedLayouts = []string{time.RFC3339Nano, time.RFC3339}
	localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02"}
)

// ParseTime reads an ISO-8601 timestamp. Values without an offset are
// interpreted in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatDisplay renders an ISO timestamp as DD/MM/YYYY in loc. Empty input
// gives an empty string; input that does not parse is returned unchanged.
func FormatDisplay(iso string, loc *time.Location) string {
	if iso == "" {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := ParseTime(iso, loc)
	if err != nil {
		return iso
	}
	return t.In(loc).Format(DisplayLayout)
}

// ABOUTME: Display formatting helpers for deals
// ABOUTME: Dates follow the short month/day/year form the table has always used
package views

import (
	"time"
)

// FormatDate renders an ISO-8601 timestamp as M/D/YYYY. Unparseable input
// is returned unchanged.
func FormatDate(iso string) string {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Format("1/2/2006")
		}
	}
	return iso
}

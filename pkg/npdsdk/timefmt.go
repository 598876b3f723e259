package npdsdk

import "time"

// localISOLayout is ISO-8601 to the second followed by a ±HH:MM offset.
// Go's layout formatting truncates fractional seconds rather than rounding.
const localISOLayout = "2006-01-02T15:04:05-07:00"

// DateToLocalISO renders t as local time in loc with its UTC offset, the
// format the service expects for request and operation times, e.g.
// "2024-03-01T15:04:05+03:00". A nil loc means time.Local.
func DateToLocalISO(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(localISOLayout)
}

package npdsdk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDateToLocalISO(t *testing.T) {
	t.Parallel()

	instant := time.Date(2024, 3, 1, 12, 4, 5, 999_000_000, time.UTC)

	tests := []struct {
		name string
		loc  *time.Location
		want string
	}{
		{name: "utc", loc: time.UTC, want: "2024-03-01T12:04:05+00:00"},
		{name: "positive offset", loc: time.FixedZone("MSK", 3*60*60), want: "2024-03-01T15:04:05+03:00"},
		{name: "negative offset", loc: time.FixedZone("EST", -5*60*60), want: "2024-03-01T07:04:05-05:00"},
		{name: "half hour offset", loc: time.FixedZone("IST", 5*60*60+30*60), want: "2024-03-01T17:34:05+05:30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DateToLocalISO(instant, tt.loc)
			require.Equal(t, tt.want, got)
			require.Regexp(t, localISOPattern, got)
		})
	}
}

func TestDateToLocalISODefaultsToLocal(t *testing.T) {
	t.Parallel()

	instant := time.Date(2024, 7, 15, 9, 30, 0, 0, time.UTC)
	require.Equal(t, instant.In(time.Local).Format(localISOLayout), DateToLocalISO(instant, nil))
}

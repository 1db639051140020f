// file: internals/helpers/dbtime/time_helper.go
package dbtime

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const DateLayout = "2006-01-02"

// ParseAsOf reads ?as_of=YYYY-MM-DD in loc. Empty means "today" in loc.
func ParseAsOf(c *fiber.Ctx, loc *time.Location, now time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	raw := strings.TrimSpace(c.Query("as_of"))
	if raw == "" {
		return DateOf(now.In(loc)), nil
	}
	t, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("as_of must be YYYY-MM-DD")
	}
	return t, nil
}

// DateOf truncates t to midnight of its calendar day, keeping its location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CivilBefore reports whether the calendar day of a is strictly before that of b.
// Each value is read in its own location, so a DATE column scanned as UTC midnight
// compares correctly against a local as-of date.
func CivilBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}

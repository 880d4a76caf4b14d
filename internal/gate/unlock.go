package gate

import (
	"strings"
	"time"
)

// Layouts accepted for unlock dates. The first three are what an HTML
// datetime-local input produces and carry no zone.
var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// ParseUnlock parses an unlock date. Local layouts are interpreted in loc (time.Local
// when nil); RFC 3339 values keep their own offset. ok is false for an empty or
// unparsable value, which callers treat as "no gate".
func ParseUnlock(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatUnlock renders t the way the editor stores it.
func FormatUnlock(t time.Time) string {
	return t.Format(localLayouts[0])
}

// Countdown is the remaining time split into display units.
type Countdown struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// Decompose splits d on whole milliseconds. Negative durations are zero.
func Decompose(d time.Duration) Countdown {
	ms := d.Milliseconds()
	if ms <= 0 {
		return Countdown{}
	}
	return Countdown{
		Days:    ms / (1000 * 60 * 60 * 24),
		Hours:   (ms / (1000 * 60 * 60)) % 24,
		Minutes: (ms / (1000 * 60)) % 60,
		Seconds: (ms / 1000) % 60,
	}
}

// IsZero reports whether nothing remains.
func (c Countdown) IsZero() bool {
	return c == Countdown{}
}

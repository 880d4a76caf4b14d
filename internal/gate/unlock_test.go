package gate_test

import (
	"testing"
	"time"

	"gift-quiz-service/internal/gate"
	"github.com/stretchr/testify/assert"
)

func TestDecompose(t *testing.T) {
	assert.Equal(t, gate.Countdown{Days: 1, Hours: 1, Minutes: 1, Seconds: 1}, gate.Decompose(90061000*time.Millisecond))
	assert.Equal(t, gate.Countdown{Hours: 23, Minutes: 59, Seconds: 59}, gate.Decompose(24*time.Hour-time.Millisecond))
	assert.Equal(t, gate.Countdown{Seconds: 0}, gate.Decompose(999*time.Millisecond))
	assert.Equal(t, gate.Countdown{Days: 40}, gate.Decompose(40*24*time.Hour))
	assert.True(t, gate.Decompose(-5*time.Second).IsZero())
}

func TestParseUnlock(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)

	got, ok := gate.ParseUnlock("2025-12-24T18:30", loc)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 12, 24, 18, 30, 0, 0, loc), got)

	got, ok = gate.ParseUnlock("2025-12-24T18:30:15", loc)
	assert.True(t, ok)
	assert.Equal(t, 15, got.Second())

	got, ok = gate.ParseUnlock("2025-12-24T18:30:00Z", loc)
	assert.True(t, ok)
	assert.Equal(t, time.UTC, got.Location())

	for _, raw := range []string{"", "  ", "tomorrow", "24/12/2025"} {
		_, ok := gate.ParseUnlock(raw, loc)
		assert.False(t, ok, raw)
	}
}

func TestFormatUnlockRoundTrips(t *testing.T) {
	at := time.Date(2026, 2, 14, 20, 0, 0, 0, time.UTC)
	got, ok := gate.ParseUnlock(gate.FormatUnlock(at), time.UTC)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))
}

package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsSettledStatus(t *testing.T) {
	settled := []string{"paid", "PAID", "closed", "zapłacone", "Zamknięte", "zamkniete", " settled "}
	for _, s := range settled {
		assert.True(t, isSettledStatus(s), s)
	}
	open := []string{"open", "", "w trakcie", "new"}
	for _, s := range open {
		assert.False(t, isSettledStatus(s), s)
	}
}

func TestParseCreatedAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	got := parseCreatedAt("2025-05-30T18:45:00", now)
	assert.Equal(t, time.Date(2025, 5, 30, 18, 45, 0, 0, time.UTC), got)

	got = parseCreatedAt("2025-05-30 18:45:00", now)
	assert.Equal(t, 18, got.Hour())

	got = parseCreatedAt("2025-05-30T18:45:00Z", now)
	assert.Equal(t, 2025, got.Year())

	assert.Equal(t, now, parseCreatedAt("yesterday", now))
	assert.Equal(t, now, parseCreatedAt("", now))
}

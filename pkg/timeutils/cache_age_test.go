package timeutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatCacheAge(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{0, "just now"},
		{-5 * time.Second, "just now"},
		{1 * time.Second, "1 second ago"},
		{42 * time.Second, "42 seconds ago"},
		{90 * time.Second, "1 minute ago"},
		{15 * time.Minute, "15 minutes ago"},
		{3 * time.Hour, "3 hours ago"},
		{30 * time.Hour, "1 day ago"},
		{9 * 24 * time.Hour, "9 days ago"},
		{400 * 24 * time.Hour, "400 days ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCacheAge(tt.age), "age %s", tt.age)
	}
}

func TestAgeSince(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := UnixMillis(now.Add(-1500 * time.Millisecond))

	assert.Equal(t, 1500*time.Millisecond, AgeSince(ts, now))
}

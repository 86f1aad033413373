package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	require.True(t, ok)
	assert.Equal(t, s, got.UTC().Format(time.RFC3339))
}

func TestParseTimeNaiveISO(t *testing.T) {
	got, ok := ParseTime("2024-10-10T09:15:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 10, 10, 9, 15, 0, 0, time.UTC), got)

	got, ok = ParseTime("2024-10-10")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC), got)
}

func TestParseTimeOffset(t *testing.T) {
	got, ok := ParseTime("2024-10-10 09:15:00+05:30")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 10, 10, 3, 45, 0, 0, time.UTC), got.UTC())
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	require.True(t, ok)
	assert.Equal(t, ts, got.Unix())
}

func TestParseTimeInvalid(t *testing.T) {
	_, ok := ParseTime("yesterday")
	assert.False(t, ok)
}

func TestParseBoolDefault(t *testing.T) {
	assert.True(t, ParseBoolDefault("", true))
	assert.True(t, ParseBoolDefault("yes", false))
	assert.True(t, ParseBoolDefault("TRUE", false))
	assert.False(t, ParseBoolDefault("off", true))
	assert.False(t, ParseBoolDefault("0", true))
	assert.True(t, ParseBoolDefault("maybe", true))
}

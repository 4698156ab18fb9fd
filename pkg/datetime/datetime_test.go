package datetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := map[string]string{
		"09:00:00":             "09:00:00",
		"9:00":                 "09:00:00",
		"09:30":                "09:30:00",
		"2:15 pm":              "14:15:00",
		"2:15PM":               "14:15:00",
		"10 AM":                "10:00:00",
		"08:45:00.000000":      "08:45:00",
		"2024-01-15 09:00:00":  "09:00:00",
		"2024-01-15T13:05:00Z": "13:05:00",
	}
	for in, want := range cases {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseClock("not a time")
	assert.ErrorIs(t, err, ErrInvalidClock)
	_, err = ParseClock("")
	assert.ErrorIs(t, err, ErrInvalidClock)
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2024-01-15", "2024-01-15T00:00:00Z", "2024-01-15 08:00:00", "01/15/2024"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), got, in)
	}

	_, err := ParseDate("15-01-2024x")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestCombine(t *testing.T) {
	ts, canonical, err := CombineStrings("2024-01-15", "9:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15 09:00:00", canonical)
	assert.Equal(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), ts)

	day := time.Date(2024, 3, 2, 17, 30, 0, 0, time.UTC)
	_, canonical, err = Combine(day, "08:15:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02 08:15:00", canonical)
}

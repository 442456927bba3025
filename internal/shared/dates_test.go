package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateAcceptsBothFormats(t *testing.T) {
	iso, err := ParseDate("2024-03-31")
	require.NoError(t, err)
	typed, err := ParseDate("31-03-2024")
	require.NoError(t, err)
	assert.True(t, iso.Equal(typed))
}

func TestParseDateRejectsImpossibleDates(t *testing.T) {
	cases := []string{"31-02-2024", "00-01-2024", "15-13-2024", "2024/01/15", "1-1-2024", ""}
	for _, c := range cases {
		_, err := ParseDate(c)
		assert.ErrorIs(t, err, ErrInvalidDate, "input %q", c)
	}
}

func TestDisplayDateRoundTrip(t *testing.T) {
	inputs := []string{"01-01-2020", "29-02-2024", "31-12-1999", "05-06-2023"}
	for _, in := range inputs {
		parsed, err := ParseDate(in)
		require.NoError(t, err)
		assert.Equal(t, in, FormatDisplay(parsed))
	}
}

func TestNewDateRangeOrdering(t *testing.T) {
	_, err := NewDateRange("2024-04-01", "2024-03-01")
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	r, err := NewDateRange("01-03-2024", "2024-03-31")
	require.NoError(t, err)
	assert.True(t, r.Contains(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-01:2024-03-31", r.Key())
}

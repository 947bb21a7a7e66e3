package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLowStock(t *testing.T) {
	min := 10.0

	require.False(t, LowStock(50, nil))
	require.False(t, LowStock(10.001, &min))
	require.True(t, LowStock(10, &min))
	require.True(t, LowStock(0, &min))
}

func TestExpiryStatus(t *testing.T) {
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	day := func(offset int) *time.Time {
		d := now.AddDate(0, 0, offset)
		return &d
	}

	cases := []struct {
		name   string
		expiry *time.Time
		state  ExpiryState
		days   int
	}{
		{"nil expiry", nil, ExpiryGood, 0},
		{"far future", day(90), ExpiryGood, 90},
		{"thirty one days", day(31), ExpiryGood, 31},
		{"thirty days", day(30), ExpiryWarning, 30},
		{"eight days", day(8), ExpiryWarning, 8},
		{"seven days", day(7), ExpiryCritical, 7},
		{"today", day(0), ExpiryCritical, 0},
		{"yesterday", day(-1), ExpiryExpired, -1},
		{"long expired", day(-40), ExpiryExpired, -40},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state, days := ExpiryStatus(tc.expiry, now)
			require.Equal(t, tc.state, state)
			require.Equal(t, tc.days, days)
		})
	}
}

func TestExpiryStatusCountsCalendarDays(t *testing.T) {
	// Late evening vs early morning next day is still one day apart.
	now := time.Date(2026, time.June, 15, 23, 30, 0, 0, time.UTC)
	expiry := time.Date(2026, time.June, 16, 1, 0, 0, 0, time.UTC)

	state, days := ExpiryStatus(&expiry, now)
	require.Equal(t, ExpiryCritical, state)
	require.Equal(t, 1, days)
}

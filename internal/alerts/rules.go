// Package alerts holds the pure advisory rules for stock and expiry
// monitoring. Nothing here mutates state; callers decide what to do when a
// threshold is crossed.
package alerts

import "time"

// ExpiryState classifies how close a batch is to its expiry date.
type ExpiryState string

const (
	ExpiryGood     ExpiryState = "GOOD"
	ExpiryWarning  ExpiryState = "WARNING"
	ExpiryCritical ExpiryState = "CRITICAL"
	ExpiryExpired  ExpiryState = "EXPIRED"
)

const (
	criticalWithinDays = 7
	warningWithinDays  = 30
)

// LowStock reports whether current stock sits at or below the minimum. A nil
// minimum means the product opted out of low-stock monitoring.
func LowStock(current float64, minStock *float64) bool {
	if minStock == nil {
		return false
	}
	return current <= *minStock
}

// ExpiryStatus classifies an expiry date relative to now and returns the
// whole days remaining. Days are counted on calendar dates, so a batch
// expiring later today still reports zero days and CRITICAL, not EXPIRED.
// A nil expiry means the product does not track expiry and is always GOOD.
func ExpiryStatus(expiry *time.Time, now time.Time) (ExpiryState, int) {
	if expiry == nil {
		return ExpiryGood, 0
	}
	days := daysBetween(now, *expiry)
	switch {
	case days < 0:
		return ExpiryExpired, days
	case days <= criticalWithinDays:
		return ExpiryCritical, days
	case days <= warningWithinDays:
		return ExpiryWarning, days
	default:
		return ExpiryGood, days
	}
}

func daysBetween(from, to time.Time) int {
	fromDate := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDate := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDate.Sub(fromDate) / (24 * time.Hour))
}

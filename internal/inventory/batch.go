package inventory

import (
	"fmt"
	"time"
)

// BatchCode builds the stable, human-legible batch identifier:
// product code + receipt date (yyyymmdd) + zero-padded per-product sequence.
// Labels and QR payloads embed this code, so it must be derivable without a
// lookup round-trip and must never change once assigned.
func BatchCode(productCode string, receivedAt time.Time, number int) string {
	return fmt.Sprintf("%s%s%03d", productCode, receivedAt.UTC().Format("20060102"), number)
}

// ExpiringCutoff returns the upper bound for "expires within n days" filters.
func ExpiringCutoff(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, days)
}

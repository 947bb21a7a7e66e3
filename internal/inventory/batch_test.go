package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBatchCodeFormat(t *testing.T) {
	receivedAt := time.Date(2026, time.March, 9, 15, 4, 5, 0, time.UTC)

	require.Equal(t, "HAR00120260309001", BatchCode("HAR001", receivedAt, 1))
	require.Equal(t, "HAR00120260309042", BatchCode("HAR001", receivedAt, 42))
	require.Equal(t, "HAR001202603091000", BatchCode("HAR001", receivedAt, 1000))
}

func TestBatchCodeNormalisesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	receivedAt := time.Date(2026, time.March, 9, 22, 0, 0, 0, loc)

	require.Equal(t, "HAR00120260310001", BatchCode("HAR001", receivedAt, 1))
}

func TestExpiringCutoff(t *testing.T) {
	now := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, time.February, 14, 0, 0, 0, 0, time.UTC), ExpiringCutoff(now, 30))
}

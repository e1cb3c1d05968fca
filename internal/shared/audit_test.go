package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOccurredAtStampsZeroTime(t *testing.T) {
	before := time.Now().UTC()
	stamped := occurredAt(time.Time{})
	require.False(t, stamped.IsZero())
	require.False(t, stamped.Before(before))
	require.False(t, stamped.After(time.Now().UTC()))
}

func TestOccurredAtKeepsExplicitTime(t *testing.T) {
	at := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	require.Equal(t, at, occurredAt(at))
}

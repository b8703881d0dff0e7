package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTargetDay(t *testing.T) {
	joburg, err := time.LoadLocation("Africa/Johannesburg")
	require.NoError(t, err)

	// 23:30 UTC is already the next day in Johannesburg.
	now := time.Date(2026, 1, 4, 23, 30, 0, 0, time.UTC)

	day, err := targetDay("", now, joburg)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC), day)

	day, err = targetDay("2026-02-01", now, joburg)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), day)

	_, err = targetDay("01/02/2026", now, joburg)
	require.Error(t, err)
}

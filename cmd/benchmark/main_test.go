package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RTIInternational/hefs-fews-hub/fetch"
)

func TestBytesPerSecond(t *testing.T) {
	require.Equal(t, uint64(512), bytesPerSecond(&fetch.Stats{Bytes: 1024, Duration: 2 * time.Second}))
}

func TestBytesPerSecond_ZeroDuration(t *testing.T) {
	require.Zero(t, bytesPerSecond(&fetch.Stats{Bytes: 1024}))
	require.Zero(t, bytesPerSecond(&fetch.Stats{}))
}

package respd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGrowBuffer(t *testing.T) {
	buf := append(make([]byte, 0, 128), "abc"...)

	grown, ok := growBuffer(buf, 1024)
	require.True(t, ok)
	require.Equal(t, 256, cap(grown))
	require.Equal(t, "abc", string(grown))
}

func TestGrowBufferClampsToLimit(t *testing.T) {
	buf := make([]byte, 600)

	// Doubling would overshoot, so the new capacity lands on the limit.
	grown, ok := growBuffer(buf, 1024)
	require.True(t, ok)
	require.Equal(t, 1024, cap(grown))

	_, ok = growBuffer(grown[:cap(grown)], 1024)
	require.False(t, ok)
}

package analytics

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// greenness scores a hex color by how far it sits along the red→green
// palette. ColorFor must be monotonic under this score.
func greenness(t *testing.T, hex string) int {
	t.Helper()
	require.Len(t, hex, 7)
	r, err := strconv.ParseInt(hex[1:3], 16, 32)
	require.NoError(t, err)
	g, err := strconv.ParseInt(hex[3:5], 16, 32)
	require.NoError(t, err)
	return int(g - r)
}

func TestColorForMonotonic(t *testing.T) {
	prev := greenness(t, ColorFor(0, true))
	for i := 1; i <= 100; i++ {
		cur := greenness(t, ColorFor(float64(i)/100, true))
		assert.GreaterOrEqual(t, cur, prev, "ratio %d/100", i)
		prev = cur
	}
}

func TestColorForEndpoints(t *testing.T) {
	assert.Equal(t, "#d73027", ColorFor(0, true))
	assert.Equal(t, "#1a9850", ColorFor(1, true))
}

func TestColorForClampsOutOfRange(t *testing.T) {
	assert.Equal(t, ColorFor(0, true), ColorFor(-0.5, true))
	assert.Equal(t, ColorFor(1, true), ColorFor(1.5, true))
}

func TestColorForNotAttemptedIsNeutral(t *testing.T) {
	gray := ColorFor(0.7, false)
	assert.Equal(t, "#9e9e9e", gray)

	// The sentinel must never collide with any point on the numeric scale.
	for i := 0; i <= 100; i++ {
		assert.NotEqual(t, gray, ColorFor(float64(i)/100, true))
	}
}

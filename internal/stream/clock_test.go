package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleClockUncalibrated(t *testing.T) {
	c := NewSampleClock(250)
	assert.False(t, c.IsCalibrated())

	_, err := c.Resolve(1000)
	assert.ErrorIs(t, err, ErrNotCalibrated)
}

func TestSampleClockLinearity(t *testing.T) {
	c := NewSampleClock(250)
	c.SetOrigin(1000, 0)
	require.True(t, c.IsCalibrated())

	idx, err := c.Resolve(1500)
	require.NoError(t, err)
	assert.Equal(t, int64(125), idx)

	idx, err = c.Resolve(2000)
	require.NoError(t, err)
	assert.Equal(t, int64(250), idx)

	// One sample interval maps to exactly one index for integer k.
	for k := int64(0); k < 10; k++ {
		idx, err := c.Resolve(1000 + float64(k)*(1000.0/250.0))
		require.NoError(t, err)
		assert.Equal(t, k, idx)
	}
}

func TestSampleClockBackwardsAndNonzeroOrigin(t *testing.T) {
	c := NewSampleClock(500)
	c.SetOrigin(2000, 10000)

	idx, err := c.Resolve(1998)
	require.NoError(t, err)
	assert.Equal(t, int64(9999), idx)
}

func TestSampleClockRateRenegotiation(t *testing.T) {
	c := NewSampleClock(250)
	c.SetOrigin(0, 0)

	c.SetSampleRate(500)
	idx, err := c.Resolve(1000)
	require.NoError(t, err)
	assert.Equal(t, int64(500), idx)
}

package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardIsDeterministicPerSeed(t *testing.T) {
	a := NewBoard(4, 250, 99)
	b := NewBoard(4, 250, 99)

	for i := 0; i < 100; i++ {
		sa, sb := a.Next(), b.Next()
		assert.Equal(t, sa.Timestamp, sb.Timestamp)
		assert.Equal(t, sa.Channels, sb.Channels)
	}
}

func TestBoardClockAdvancesOneSampleInterval(t *testing.T) {
	b := NewBoard(2, 250, 1)
	require.Zero(t, b.NowMs())

	s := b.Next()
	assert.InDelta(t, 4.0, s.Timestamp, 1e-9)
	assert.Len(t, s.Channels, 2)

	for i := 0; i < 249; i++ {
		b.Next()
	}
	assert.InDelta(t, 1000.0, b.NowMs(), 1e-6)
}

func TestInjectedP300RaisesWindowMean(t *testing.T) {
	with := NewBoard(2, 250, 7)
	without := NewBoard(2, 250, 7)
	with.InjectP300(0, 300, 50)

	// Compare mean amplitude over the 200-400 ms window; the injected
	// deflection dominates the shared rhythm/noise background.
	var sumWith, sumWithout float64
	for i := 0; i < 100; i++ {
		sw, swo := with.Next(), without.Next()
		if sw.Timestamp >= 200 && sw.Timestamp <= 400 {
			sumWith += sw.Channels[0]
			sumWithout += swo.Channels[0]
		}
	}
	assert.Greater(t, sumWith, sumWithout+100)
}

package eventhub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMsecToTicksFloorsNonZero(t *testing.T) {
	assert.Equal(t, Ticks(0), MsecToTicks(0, 1000))
	// 1ms * 500 ticks/sec / 1000 == 0 by plain integer division; the
	// documented floor-of-one-tick rule bumps any non-zero input up to 1.
	assert.Equal(t, Ticks(1), MsecToTicks(1, 500))
}

func TestMsecToTicksRoundTripMonotonic(t *testing.T) {
	const clocksPerSec = 1000
	prev := Ticks(-1)
	for msec := int64(0); msec <= 5000; msec += 37 {
		ticks := MsecToTicks(msec, clocksPerSec)
		assert.GreaterOrEqual(t, ticks, prev)
		prev = ticks
		if msec > 0 {
			assert.Greater(t, ticks, Ticks(0))
		}
		back := TicksToMsec(ticks, clocksPerSec)
		assert.LessOrEqual(t, back, msec)
	}
}

func TestUsecToTicksFloorsNonZero(t *testing.T) {
	assert.Equal(t, Ticks(0), UsecToTicks(0, 1000))
	assert.Equal(t, Ticks(1), UsecToTicks(1, 1000))
}

func TestTicksToMsecZeroClocksPerSec(t *testing.T) {
	assert.Equal(t, int64(0), TicksToMsec(100, 0))
}

package eventhub

// Ticks is one unit of the monotonic clock the platform Port supplies.
// Signed so Forever (a negative value) and wraparound-tolerant
// tick-difference arithmetic both fall out naturally.
type Ticks = int64

// Forever is the reserved sentinel meaning "wait with no timeout". Only
// this exact value is the sentinel: other negative timeouts are not
// treated as Forever (WaitTimeout rejects them with InvalidParam).
const Forever Ticks = -1

// defaultIdleCeilingSeconds is the fallback clamp on first_remaining_time
// when no WithIdleDeadlineCeiling option is supplied: 60 seconds worth
// of ticks at the configured ClocksPerSec, so the idle hook always wakes
// periodically for maintenance even with no timer armed.
const defaultIdleCeilingSeconds Ticks = 60

// MsecToTicks converts milliseconds to ticks at the given clocksPerSec,
// flooring at 1 tick for any non-zero input: the conversion is lossy but
// never rounds a positive duration down to zero.
func MsecToTicks(msec int64, clocksPerSec int64) Ticks {
	if msec == 0 {
		return 0
	}
	t := msec * clocksPerSec / 1000
	if t == 0 {
		return 1
	}
	return t
}

// UsecToTicks converts microseconds to ticks, same flooring rule as
// MsecToTicks.
func UsecToTicks(usec int64, clocksPerSec int64) Ticks {
	if usec == 0 {
		return 0
	}
	t := usec * clocksPerSec / 1_000_000
	if t == 0 {
		return 1
	}
	return t
}

// TicksToMsec converts ticks back to milliseconds. Paired with
// MsecToTicks this is monotonic but not exact, since MsecToTicks floors.
func TicksToMsec(ticks Ticks, clocksPerSec int64) int64 {
	if clocksPerSec == 0 {
		return 0
	}
	return ticks * 1000 / clocksPerSec
}

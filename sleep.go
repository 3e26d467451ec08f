package eventhub

// Sleep suspends the calling task for the given number of ticks. Sugar
// over a one-shot internal timer plus a plain event-wait, exactly as
// original_source/src/eh_sleep.c does it — sleep is not a distinct
// suspension point, it is built atop event-wait.
func Sleep(ticks Ticks) error {
	if ticks == Forever {
		return WrapError(InvalidParam, nil)
	}
	if ticks <= 0 {
		return nil
	}
	var tm Timer
	InitTimer(&tm)
	defer tm.Clean()
	tm.SetInterval(ticks)
	if _, err := tm.Start(); err != nil {
		return WrapError(Fault, err)
	}
	return WaitCondition(&tm.event, nil, Forever)
}

package timerqueue

import "errors"

// ErrBusy is returned by Start when the entry already has a node in the
// tree. The owning eventhub package maps this to its own Busy error code.
var ErrBusy = errors.New("timerqueue: timer already running")

package domain

import "github.com/jonboulle/clockwork"

// clock stamps batches. Events themselves carry no processing time, so
// normalization output depends only on its input.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used by NewBatch. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

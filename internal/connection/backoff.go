package connection

import "time"

// Backoff computes reconnect delays. It holds no state: the manager keeps the
// current delay and asks for the next one after each failed attempt.
type Backoff struct {
	Floor   time.Duration
	Ceiling time.Duration
}

// Next returns the delay to use after cur, doubled and clamped to [Floor, Ceiling].
func (b Backoff) Next(cur time.Duration) time.Duration {
	next := cur * 2
	if next > b.Ceiling {
		next = b.Ceiling
	}
	if next < b.Floor {
		next = b.Floor
	}
	return next
}

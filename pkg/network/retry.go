package network

import "time"

// Retry counts a limited number of attempts with a fixed pause before each.
type Retry struct {
	t        time.Duration
	attempts int
	n        int
}

func NewRetry(attempts int, pause time.Duration) Retry {
	return Retry{t: pause, attempts: attempts}
}

// Fail waits and tells if one more attempt is allowed.
func (r *Retry) Fail() bool {
	if r.n >= r.attempts {
		return false
	}
	r.n++
	time.Sleep(r.t)
	return true
}

func (r *Retry) Attempt() int        { return r.n }
func (r *Retry) Success()            { r.n = 0 }
func (r *Retry) Time() time.Duration { return r.t }

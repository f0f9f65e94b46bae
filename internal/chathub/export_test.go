package chathub

import "time"

// SetClock підміняє годинник реле в тестах.
func (r *Relay) SetClock(now func() time.Time) {
	r.now = now
}

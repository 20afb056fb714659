package attempt

import "sync"

// DefaultDurationSeconds is the countdown every attempt starts from unless the server says otherwise.
const DefaultDurationSeconds = 2700

// Clock counts an attempt down one second per Tick. It cannot be restarted:
// once it reaches zero it stays expired and Done is closed exactly once.
type Clock struct {
	mu        sync.Mutex
	remaining int
	done      chan struct{}
	closed    bool
}

// NewClock returns a clock holding seconds. A non-positive value is already expired.
func NewClock(seconds int) *Clock {
	c := &Clock{remaining: seconds, done: make(chan struct{})}
	if seconds <= 0 {
		c.remaining = 0
		c.expire()
	}
	return c
}

// Tick removes one second. It reports true only on the tick that expired the clock.
func (c *Clock) Tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	c.remaining--
	if c.remaining > 0 {
		return false
	}
	c.remaining = 0
	c.expire()
	return true
}

// IsExpired reports whether the countdown reached zero.
func (c *Clock) IsExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Remaining returns the seconds left.
func (c *Clock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Done is closed when the clock expires.
func (c *Clock) Done() <-chan struct{} {
	return c.done
}

func (c *Clock) expire() {
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

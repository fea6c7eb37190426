package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Countdowns runs at most one guess countdown per user. Arming a user
// who already has a countdown cancels the old one first, so a rearm can
// never leave two timers ticking for the same session.
type Countdowns struct {
	ticks    int
	interval time.Duration

	mu     sync.Mutex
	active map[uuid.UUID]chan struct{}
}

// NewCountdowns creates a countdown manager. ticks is how many interval
// periods elapse before the auto-guess fires.
func NewCountdowns(ticks int, interval time.Duration) *Countdowns {
	return &Countdowns{
		ticks:    ticks,
		interval: interval,
		active:   make(map[uuid.UUID]chan struct{}),
	}
}

// Arm starts the user's countdown. onTick is called once per elapsed
// tick with the remaining tick count, down to and including the final
// zero tick; onExpire is called right after it, once the timer has
// unregistered itself.
func (c *Countdowns) Arm(userID uuid.UUID, onTick func(remaining int), onExpire func()) {
	cancel := make(chan struct{})

	c.mu.Lock()
	if old, ok := c.active[userID]; ok {
		close(old)
	}
	c.active[userID] = cancel
	c.mu.Unlock()

	go c.run(userID, cancel, onTick, onExpire)
}

func (c *Countdowns) run(userID uuid.UUID, cancel chan struct{}, onTick func(remaining int), onExpire func()) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	remaining := c.ticks
	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			remaining--
			onTick(remaining)
			if remaining > 0 {
				continue
			}
			// Unregister before firing so the auto-guess path can rearm.
			c.mu.Lock()
			if c.active[userID] == cancel {
				delete(c.active, userID)
			}
			c.mu.Unlock()

			select {
			case <-cancel:
				// Cancelled while acquiring the lock: the guess won the race.
				return
			default:
			}
			onExpire()
			return
		}
	}
}

// Cancel stops the user's countdown, if one is running. When Cancel
// returns the timer can no longer fire.
func (c *Countdowns) Cancel(userID uuid.UUID) {
	c.mu.Lock()
	if cancel, ok := c.active[userID]; ok {
		close(cancel)
		delete(c.active, userID)
	}
	c.mu.Unlock()
}

// Active reports whether the user currently has a countdown armed.
func (c *Countdowns) Active(userID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.active[userID]
	return ok
}

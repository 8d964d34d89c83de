package client

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Countdown ticks a whole-second counter down to zero.
//
// At most one callback is pending at any time. Start and Stop cancel the
// pending one, so restarting never leaves two timers running against the
// same counter. Reaching zero stops the countdown with nothing pending.
type Countdown struct {
	clock  clockwork.Clock
	onTick func(remaining int)

	mu        sync.Mutex
	timer     clockwork.Timer
	remaining int
	gen       uint64
	seq       uint64

	// emitMu orders onTick calls; emitted is the newest seq delivered.
	emitMu  sync.Mutex
	emitted uint64
}

// NewCountdown returns a stopped countdown. onTick receives every value,
// including the starting one, in order: a value computed before a restart is
// never delivered after the restart's value. onTick must not call back into
// the Countdown.
func NewCountdown(clock clockwork.Clock, onTick func(remaining int)) *Countdown {
	return &Countdown{clock: clock, onTick: onTick}
}

// Start (re)starts the countdown at seconds.
func (c *Countdown) Start(seconds int) {
	if seconds < 0 {
		seconds = 0
	}

	c.mu.Lock()
	c.stopLocked()
	c.remaining = seconds
	if seconds > 0 {
		c.scheduleLocked()
	}
	seq := c.nextSeqLocked()
	c.mu.Unlock()

	c.emit(seq, seconds)
}

// Stop cancels the pending tick, if any. The counter keeps its value.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Active reports whether a tick is pending.
func (c *Countdown) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

// Remaining returns the current counter value.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *Countdown) scheduleLocked() {
	gen := c.gen
	c.timer = c.clock.AfterFunc(time.Second, func() { c.tick(gen) })
}

func (c *Countdown) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		// Stopped or restarted after this callback was already due.
		c.mu.Unlock()
		return
	}
	c.remaining--
	remaining := c.remaining
	if remaining > 0 {
		c.scheduleLocked()
	} else {
		c.timer = nil
	}
	seq := c.nextSeqLocked()
	c.mu.Unlock()

	c.emit(seq, remaining)
}

func (c *Countdown) nextSeqLocked() uint64 {
	c.seq++
	return c.seq
}

// emit delivers value unless a later one has already gone out.
func (c *Countdown) emit(seq uint64, value int) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	if seq <= c.emitted {
		return
	}
	c.emitted = seq
	c.onTick(value)
}

package runtime

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// TickFunc is called on every tick with the sequence number of the tick, starting at 1.
// Returning false stops the clock.
type TickFunc func(ctx context.Context, seq int) bool

type clockHandle struct {
	ctx    context.Context
	cancel context.CancelFunc
	tick   TickFunc
	seq    atomic.Int64
}

func (h *clockHandle) fire() bool {
	return h.tick(h.ctx, int(h.seq.Add(1)))
}

// TurnClocks runs at most one countdown goroutine per battle id.
// Stop only cancels: a tick already waiting on the Coordinator sees its context
// canceled once it gets the lock and turns into a no-op.
type TurnClocks struct {
	mu       sync.Mutex
	log      *slog.Logger
	interval time.Duration
	handles  map[string]*clockHandle
}

func NewTurnClocks(log *slog.Logger, interval time.Duration) *TurnClocks {
	return &TurnClocks{
		log:      log,
		interval: interval,
		handles:  make(map[string]*clockHandle),
	}
}

// Start launches the clock of a battle, stopping the previous one first.
func (c *TurnClocks) Start(battleID string, tick TickFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if previous, ok := c.handles[battleID]; ok {
		previous.cancel()
		c.log.Debug("Replacing running turn clock", "battle_id", battleID)
	}
	ctx, cancel := context.WithCancel(context.Background())
	handle := &clockHandle{ctx: ctx, cancel: cancel, tick: tick}
	c.handles[battleID] = handle
	go c.run(battleID, handle)
}

func (c *TurnClocks) run(battleID string, h *clockHandle) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer c.release(battleID, h)

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			if !h.fire() {
				c.log.Debug("Turn clock stopped itself", "battle_id", battleID)
				return
			}
		}
	}
}

// release forgets the handle unless another clock already replaced it.
func (c *TurnClocks) release(battleID string, h *clockHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h.cancel()
	if current, ok := c.handles[battleID]; ok && current == h {
		delete(c.handles, battleID)
	}
}

// Stop cancels the clock of a battle, it returns false when none was running.
func (c *TurnClocks) Stop(battleID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	handle, ok := c.handles[battleID]
	if !ok {
		return false
	}
	handle.cancel()
	delete(c.handles, battleID)
	return true
}

func (c *TurnClocks) Running(battleID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.handles[battleID]
	return ok
}

func (c *TurnClocks) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handles)
}

func (c *TurnClocks) StopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, handle := range c.handles {
		handle.cancel()
		delete(c.handles, id)
	}
}

// tickNow fires the clock of a battle synchronously, outside of its ticker.
func (c *TurnClocks) tickNow(battleID string) bool {
	c.mu.Lock()
	handle, ok := c.handles[battleID]
	c.mu.Unlock()
	if !ok {
		return false
	}
	if !handle.fire() {
		c.release(battleID, handle)
		return false
	}
	return true
}

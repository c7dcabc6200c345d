package runtime

import (
	"context"
	"io"
	"log/slog"
	"roast-battle/contract"
	"roast-battle/domain/event"
	"roast-battle/errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Subscriber is one live stream attached to a battle.
// The transport calls Touch after every successful write to the client.
type Subscriber struct {
	ID           string
	BattleID     string
	sink         contract.EventSink
	lastActivity atomic.Int64
	closed       atomic.Bool
}

func NewSubscriber(battleID string, sink contract.EventSink, at time.Time) *Subscriber {
	s := &Subscriber{ID: uuid.NewString(), BattleID: battleID, sink: sink}
	s.Touch(at)
	return s
}

// Push hands the event to the subscriber sink without blocking.
func (s *Subscriber) Push(ctx context.Context, e event.Event) error {
	if s.closed.Load() {
		return errors.ErrSubscriberClosed
	}
	return s.sink.Consume(ctx, e)
}

func (s *Subscriber) Touch(at time.Time) {
	s.lastActivity.Store(at.UnixNano())
}

func (s *Subscriber) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

func (s *Subscriber) IsAlive() bool {
	return !s.closed.Load()
}

// Close marks the subscriber dead and closes its sink when it can be closed.
func (s *Subscriber) Close() {
	if s.closed.Swap(true) {
		return
	}
	if closer, ok := s.sink.(io.Closer); ok {
		_ = closer.Close()
	}
}

// SubscriberRegistry tracks live subscribers per battle and pushes events to them.
// Delivery is best-effort: a subscriber that fails a push is removed, the caller never sees the failure.
type SubscriberRegistry struct {
	mu          sync.RWMutex
	log         *slog.Logger
	sinkTimeout time.Duration
	battles     map[string]map[string]*Subscriber // battle -> subscriber id -> subscriber
}

func NewSubscriberRegistry(log *slog.Logger, sinkTimeout time.Duration) *SubscriberRegistry {
	return &SubscriberRegistry{
		log:         log,
		sinkTimeout: sinkTimeout,
		battles:     make(map[string]map[string]*Subscriber),
	}
}

// Add makes the subscriber visible to broadcasts.
func (r *SubscriberRegistry) Add(s *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.battles[s.BattleID]; !ok {
		r.battles[s.BattleID] = make(map[string]*Subscriber)
	}
	r.battles[s.BattleID][s.ID] = s
}

// Remove detaches and closes the subscriber. Removing twice is a no-op.
func (r *SubscriberRegistry) Remove(s *Subscriber) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(s)
}

func (r *SubscriberRegistry) removeLocked(s *Subscriber) bool {
	s.Close()
	members, ok := r.battles[s.BattleID]
	if !ok {
		return false
	}
	if _, ok := members[s.ID]; !ok {
		return false
	}
	delete(members, s.ID)
	// If no one is left on the battle, remove the entry entirely
	if len(members) == 0 {
		delete(r.battles, s.BattleID)
	}
	return true
}

// Broadcast pushes the event to every subscriber of the battle and reaps the ones that failed.
// It returns the number of subscribers the event was handed to.
func (r *SubscriberRegistry) Broadcast(ctx context.Context, battleID string, e event.Event) int {
	subscribers := r.subscribers(battleID)
	if len(subscribers) == 0 {
		return 0
	}

	var dead []*Subscriber
	for _, s := range subscribers {
		if err := r.push(ctx, s, e); err != nil {
			r.log.Debug("Subscriber dropped on broadcast",
				"battle_id", battleID, "subscriber_id", s.ID, "type", e.Type, "error", err)
			dead = append(dead, s)
		}
	}
	r.reap(dead)
	return len(subscribers) - len(dead)
}

// BroadcastAll pushes one event per battle that currently has subscribers.
func (r *SubscriberRegistry) BroadcastAll(ctx context.Context, build func(battleID string) event.Event) int {
	delivered := 0
	for _, battleID := range r.BattleIDs() {
		delivered += r.Broadcast(ctx, battleID, build(battleID))
	}
	return delivered
}

// Send pushes an event to a single subscriber, removing it on failure.
func (r *SubscriberRegistry) Send(ctx context.Context, s *Subscriber, e event.Event) error {
	if err := r.push(ctx, s, e); err != nil {
		r.reap([]*Subscriber{s})
		return err
	}
	return nil
}

// AudienceCount returns the number of live subscribers of a battle, reaping the dead ones.
func (r *SubscriberRegistry) AudienceCount(battleID string) int {
	subscribers := r.subscribers(battleID)
	dead := lo.Reject(subscribers, func(s *Subscriber, _ int) bool { return s.IsAlive() })
	r.reap(dead)
	return len(subscribers) - len(dead)
}

// ReapStale removes subscribers without activity since staleAfter.
func (r *SubscriberRegistry) ReapStale(now time.Time, staleAfter time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	reaped := 0
	for _, members := range r.battles {
		for _, s := range members {
			if now.Sub(s.LastActivity()) <= staleAfter && s.IsAlive() {
				continue
			}
			if r.removeLocked(s) {
				reaped++
			}
		}
	}
	return reaped
}

// Drop closes and removes every subscriber of a battle.
func (r *SubscriberRegistry) Drop(battleID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.battles[battleID]
	for _, s := range members {
		s.Close()
	}
	delete(r.battles, battleID)
	return len(members)
}

func (r *SubscriberRegistry) BattleIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.battles)
}

// Count returns the number of subscribers across every battle.
func (r *SubscriberRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.SumBy(lo.Values(r.battles), func(members map[string]*Subscriber) int { return len(members) })
}

func (r *SubscriberRegistry) subscribers(battleID string) []*Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.battles[battleID])
}

func (r *SubscriberRegistry) push(ctx context.Context, s *Subscriber, e event.Event) error {
	sinkCtx, cancel := context.WithTimeout(ctx, r.sinkTimeout)
	defer cancel()
	return s.Push(sinkCtx, e)
}

func (r *SubscriberRegistry) reap(dead []*Subscriber) {
	if len(dead) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range dead {
		r.removeLocked(s)
	}
}

package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"roast-battle/contract"
	"roast-battle/domain"
	"roast-battle/domain/event"
	"roast-battle/errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Config struct {
	TurnDuration        int           // seconds given to each turn
	TickInterval        time.Duration // turn clock cadence
	TimerBroadcastEvery int           // ticks between two timer_update events
}

func DefaultConfig() Config {
	return Config{
		TurnDuration:        domain.TurnDuration,
		TickInterval:        time.Second,
		TimerBroadcastEvery: 5,
	}
}

type Stats struct {
	Battles       int `json:"battles"`
	LiveBattles   int `json:"liveBattles"`
	RunningClocks int `json:"runningClocks"`
	Subscribers   int `json:"subscribers"`
}

// Coordinator is the single entry point to battle state.
// Every mutation goes through one mutex, and every externally visible change is
// broadcast to the battle subscribers before the operation returns.
// Broadcasts happen under the same mutex so a subscriber always sees the initial
// snapshot before any later event.
type Coordinator struct {
	mu          sync.Mutex
	log         *slog.Logger
	cfg         Config
	battles     *BattleRegistry
	ledger      *VoteLedger
	clocks      *TurnClocks
	subscribers *SubscriberRegistry
	archive     contract.ArchiveSink
	now         func() time.Time
}

func NewCoordinator(log *slog.Logger, subscribers *SubscriberRegistry, cfg Config) *Coordinator {
	return &Coordinator{
		log:         log,
		cfg:         cfg,
		battles:     NewBattleRegistry(),
		ledger:      NewVoteLedger(),
		clocks:      NewTurnClocks(log, cfg.TickInterval),
		subscribers: subscribers,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RegisterArchive sets the sink receiving finished battles.
func (c *Coordinator) RegisterArchive(archive contract.ArchiveSink) *Coordinator {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.archive = archive
	return c
}

func (c *Coordinator) CreateBattle(id string, topics []string, coinFlip *domain.Speaker) (domain.Battle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	battle, err := c.battles.Create(id, topics, coinFlip, c.now())
	if err != nil {
		return domain.Battle{}, err
	}
	c.log.Info("Battle created", "battle_id", battle.ID, "turn", battle.Turn)
	return battle, nil
}

func (c *Coordinator) GetBattle(id string) (domain.BattleState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	battle, ok := c.battles.Get(id)
	if !ok {
		return domain.BattleState{}, notFound(id)
	}
	return c.stateLocked(battle), nil
}

// ListBattles returns every battle held in memory, finished ones included.
func (c *Coordinator) ListBattles() []domain.Battle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.battles.List()
}

// UpdateBattle merges the update. Entering live starts the turn clock, leaving live stops it.
func (c *Coordinator) UpdateBattle(id string, update domain.BattleUpdate) (domain.Battle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(id, update)
}

// StartBattle moves a pending battle to live with a full turn on the clock.
func (c *Coordinator) StartBattle(id string) (domain.Battle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	battle, ok := c.battles.Get(id)
	if !ok {
		return domain.Battle{}, notFound(id)
	}
	if battle.Status != domain.StatusPending {
		return battle, fmt.Errorf("%w: battle %s is already %s", errors.ErrInvalidState, id, battle.Status)
	}
	return c.applyLocked(id, domain.BattleUpdate{
		Status: lo.ToPtr(domain.StatusLive),
		Timer:  lo.ToPtr(c.cfg.TurnDuration),
	})
}

// EndBattle finishes a battle before its last turn expires.
func (c *Coordinator) EndBattle(id string) (domain.Battle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(id, domain.BattleUpdate{Status: lo.ToPtr(domain.StatusFinished)})
}

// DeleteBattle removes the battle with its roasts and votes, stops its clock and closes its streams.
func (c *Coordinator) DeleteBattle(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleteLocked(id)
}

// CastVote records one vote per voter and round on a live battle.
// A duplicate is not an error: the result comes back with Accepted false and nothing changes.
func (c *Coordinator) CastVote(battleID, voter string, round int, choice domain.Speaker) (domain.VoteResult, error) {
	if strings.TrimSpace(voter) == "" {
		return domain.VoteResult{}, fmt.Errorf("%w: voter fingerprint is required", errors.ErrInvalidArgument)
	}
	if !choice.Valid() {
		return domain.VoteResult{}, fmt.Errorf("%w: unknown choice %q", errors.ErrInvalidArgument, choice)
	}
	if round < 1 || round > domain.Rounds {
		return domain.VoteResult{}, fmt.Errorf("%w: round must be in [1,%d], got %d",
			errors.ErrInvalidArgument, domain.Rounds, round)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	battle, ok := c.battles.Get(battleID)
	if !ok {
		return domain.VoteResult{}, notFound(battleID)
	}
	if !battle.IsLive() {
		return domain.VoteResult{}, fmt.Errorf("%w: battle %s is %s, votes are closed",
			errors.ErrInvalidState, battleID, battle.Status)
	}

	vote, accepted := c.ledger.Cast(battleID, voter, round, choice, c.now())
	result := domain.VoteResult{
		Accepted:      accepted,
		Round:         round,
		Tally:         c.ledger.Tally(battleID, &round),
		TotalTally:    c.ledger.Tally(battleID, nil),
		AudienceCount: c.subscribers.AudienceCount(battleID),
	}
	if !accepted {
		c.log.Debug("Duplicate vote rejected", "battle_id", battleID, "round", round)
		return result, nil
	}
	result.Vote = &vote

	c.broadcastLocked(event.NewVoteUpdate(battleID, event.VoteUpdate{
		Round:         round,
		RoundTally:    result.Tally,
		VoteTallies:   domain.RoundTallies(c.ledger.List(battleID)),
		TotalTally:    result.TotalTally,
		AudienceCount: result.AudienceCount,
	}, c.now()))
	return result, nil
}

// AddRoast appends a roast whose text is already resolved and announces it.
func (c *Coordinator) AddRoast(battleID string, r domain.NewRoast) (domain.Roast, error) {
	if !r.Speaker.Valid() {
		return domain.Roast{}, fmt.Errorf("%w: unknown speaker %q", errors.ErrInvalidArgument, r.Speaker)
	}
	if r.Round < 1 || r.Round > domain.Rounds {
		return domain.Roast{}, fmt.Errorf("%w: round must be in [1,%d], got %d",
			errors.ErrInvalidArgument, domain.Rounds, r.Round)
	}
	if strings.TrimSpace(r.Text) == "" {
		return domain.Roast{}, fmt.Errorf("%w: roast text is required", errors.ErrInvalidArgument)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.battles.Get(battleID); !ok {
		return domain.Roast{}, notFound(battleID)
	}
	roast := domain.Roast{
		ID:            uuid.NewString(),
		BattleID:      battleID,
		Speaker:       r.Speaker,
		Round:         r.Round,
		Text:          r.Text,
		AudioURL:      r.AudioURL,
		Language:      r.Language,
		CensoredWords: r.CensoredWords,
		CreatedAt:     c.now(),
	}
	c.battles.AddRoast(roast)
	c.broadcastLocked(event.NewRoastReady(roast, roast.CreatedAt))
	return roast, nil
}

func (c *Coordinator) Roasts(battleID string, round *int) ([]domain.Roast, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.battles.Get(battleID); !ok {
		return nil, notFound(battleID)
	}
	return c.battles.Roasts(battleID, round), nil
}

func (c *Coordinator) Votes(battleID string, round *int) ([]domain.Vote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.battles.Get(battleID); !ok {
		return nil, notFound(battleID)
	}
	return lo.Filter(c.ledger.List(battleID), func(v domain.Vote, _ int) bool {
		return round == nil || v.Round == *round
	}), nil
}

// Subscribe attaches the sink to the battle. The initial snapshot is pushed before the
// subscriber becomes visible to broadcasts, so nothing can overtake it.
func (c *Coordinator) Subscribe(ctx context.Context, battleID string, sink contract.EventSink) (*Subscriber, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	battle, ok := c.battles.Get(battleID)
	if !ok {
		return nil, notFound(battleID)
	}
	now := c.now()
	subscriber := NewSubscriber(battleID, sink, now)
	state := c.stateLocked(battle)
	state.AudienceCount++
	if err := subscriber.Push(ctx, event.NewInitial(state, now)); err != nil {
		subscriber.Close()
		return nil, fmt.Errorf("initial snapshot not delivered: %w", err)
	}
	c.subscribers.Add(subscriber)
	c.log.Debug("Subscriber joined", "battle_id", battleID, "subscriber_id", subscriber.ID)
	return subscriber, nil
}

func (c *Coordinator) Unsubscribe(s *Subscriber) {
	if c.subscribers.Remove(s) {
		c.log.Debug("Subscriber left", "battle_id", s.BattleID, "subscriber_id", s.ID)
	}
}

func (c *Coordinator) AudienceCount(battleID string) int {
	return c.subscribers.AudienceCount(battleID)
}

// StartTimer (re)starts the turn clock of a live battle.
func (c *Coordinator) StartTimer(id string) (domain.Battle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	battle, ok := c.battles.Get(id)
	if !ok {
		return domain.Battle{}, notFound(id)
	}
	if !battle.IsLive() {
		return battle, fmt.Errorf("%w: battle must be live to start the timer", errors.ErrInvalidState)
	}
	c.startClockLocked(id)
	return battle, nil
}

// StopTimer pauses the countdown, the battle stays live.
func (c *Coordinator) StopTimer(id string) (domain.Battle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	battle, ok := c.battles.Get(id)
	if !ok {
		return domain.Battle{}, notFound(id)
	}
	c.clocks.Stop(id)
	return battle, nil
}

// ResetTimer puts seconds back on the clock, a full turn when seconds is 0.
// The clock restarts from scratch when the battle is live.
func (c *Coordinator) ResetTimer(id string, seconds int) (domain.Battle, error) {
	if seconds < 0 {
		return domain.Battle{}, fmt.Errorf("%w: seconds must be positive, got %d", errors.ErrInvalidArgument, seconds)
	}
	if seconds == 0 {
		seconds = c.cfg.TurnDuration
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	battle, err := c.applyLocked(id, domain.BattleUpdate{Timer: lo.ToPtr(seconds)})
	if err != nil {
		return battle, err
	}
	if battle.IsLive() {
		c.startClockLocked(id)
	}
	return battle, nil
}

// SweepBattles deletes battles without activity for longer than maxAge.
func (c *Coordinator) SweepBattles(now time.Time, maxAge time.Duration) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []string
	for _, battle := range c.battles.List() {
		if now.Sub(battle.UpdatedAt) <= maxAge {
			continue
		}
		if c.sweepOne(battle.ID) {
			removed = append(removed, battle.ID)
		}
	}
	return removed
}

// sweepOne isolates the removal of one battle so a failure never aborts the sweep.
func (c *Coordinator) sweepOne(id string) (deleted bool) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Battle sweep failed", "battle_id", id, "panic", r)
			deleted = false
		}
	}()
	return c.deleteLocked(id)
}

func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	battles := c.battles.List()
	return Stats{
		Battles:       len(battles),
		LiveBattles:   lo.CountBy(battles, func(b domain.Battle) bool { return b.IsLive() }),
		RunningClocks: c.clocks.Count(),
		Subscribers:   c.subscribers.Count(),
	}
}

// Close stops every running turn clock.
func (c *Coordinator) Close() {
	c.clocks.StopAll()
}

// applyLocked merges the update and follows the live transitions. A battle going live without a timer gets a full turn.
func (c *Coordinator) applyLocked(id string, update domain.BattleUpdate) (domain.Battle, error) {
	if current, ok := c.battles.Get(id); ok && !current.IsLive() &&
		update.Status != nil && *update.Status == domain.StatusLive && update.Timer == nil {
		update.Timer = lo.ToPtr(c.cfg.TurnDuration)
	}
	now := c.now()
	before, after, err := c.battles.Update(id, update, now)
	if err != nil {
		return after, err
	}

	switch {
	case !before.IsLive() && after.IsLive():
		c.startClockLocked(id)
		c.log.Info("Battle is live", "battle_id", id, "round", after.CurrentRound, "turn", after.Turn)
	case before.IsLive() && !after.IsLive():
		c.clocks.Stop(id)
	}

	var winner *domain.Speaker
	var tie bool
	if after.Status == domain.StatusFinished {
		winner, tie = domain.Outcome(c.ledger.Tally(id, nil))
		c.log.Info("Battle finished", "battle_id", id, "winner", lo.FromPtr(winner), "tie", tie)
		c.archiveLocked(after, winner, tie, now)
	}
	c.broadcastLocked(event.NewBattleUpdated(after, winner, tie, now))
	return after, nil
}

func (c *Coordinator) startClockLocked(id string) {
	c.clocks.Start(id, func(ctx context.Context, seq int) bool {
		return c.tick(ctx, id, seq)
	})
}

// tick decrements the countdown quietly and applies the turn rule when it reaches 0.
func (c *Coordinator) tick(ctx context.Context, id string, seq int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The clock was stopped or replaced while this tick was waiting
	if ctx.Err() != nil {
		return false
	}
	battle, ok := c.battles.Get(id)
	if !ok || !battle.IsLive() {
		return false
	}

	remaining := max(battle.Timer-1, 0)
	if remaining > 0 {
		_, after, err := c.battles.Update(id, domain.BattleUpdate{Timer: &remaining}, c.now())
		if err != nil {
			c.log.Error("Turn clock tick rejected", "battle_id", id, "error", err)
			return false
		}
		if c.cfg.TimerBroadcastEvery > 0 && seq%c.cfg.TimerBroadcastEvery == 0 &&
			c.subscribers.AudienceCount(id) > 0 {
			c.broadcastLocked(event.NewTimerUpdate(after, c.now()))
		}
		return true
	}

	after, err := c.applyLocked(id, domain.NextTurn(battle, c.cfg.TurnDuration))
	if err != nil {
		c.log.Error("Turn advance rejected", "battle_id", id, "error", err)
		return false
	}
	return after.IsLive()
}

func (c *Coordinator) deleteLocked(id string) bool {
	if !c.battles.Delete(id) {
		return false
	}
	c.ledger.Drop(id)
	c.clocks.Stop(id)
	closed := c.subscribers.Drop(id)
	c.log.Info("Battle deleted", "battle_id", id, "closed_streams", closed)
	return true
}

func (c *Coordinator) stateLocked(battle domain.Battle) domain.BattleState {
	votes := c.ledger.List(battle.ID)
	total := domain.TallyVotes(votes, nil)
	state := domain.BattleState{
		Battle:        battle,
		Roasts:        c.battles.Roasts(battle.ID, nil),
		VoteTallies:   domain.RoundTallies(votes),
		TotalTally:    total,
		AudienceCount: c.subscribers.AudienceCount(battle.ID),
	}
	if battle.Status == domain.StatusFinished {
		state.Winner, state.Tie = domain.Outcome(total)
	}
	return state
}

func (c *Coordinator) archiveLocked(battle domain.Battle, winner *domain.Speaker, tie bool, at time.Time) {
	if c.archive == nil {
		return
	}
	votes := c.ledger.List(battle.ID)
	record := domain.BattleRecord{
		Battle:      battle,
		Roasts:      c.battles.Roasts(battle.ID, nil),
		Votes:       votes,
		VoteTallies: domain.RoundTallies(votes),
		TotalTally:  domain.TallyVotes(votes, nil),
		Winner:      winner,
		Tie:         tie,
		FinishedAt:  at,
	}
	if err := c.archive.Archive(context.Background(), record); err != nil {
		c.log.Warn("Finished battle not archived", "battle_id", battle.ID, "error", err)
	}
}

// broadcastLocked never fails the caller, dead subscribers are reaped by the registry.
func (c *Coordinator) broadcastLocked(e event.Event) {
	c.subscribers.Broadcast(context.Background(), e.BattleID, e)
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", errors.ErrNotFound, id)
}

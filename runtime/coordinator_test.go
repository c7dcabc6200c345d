package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"roast-battle/domain"
	"roast-battle/domain/event"
	"roast-battle/errors"
	"roast-battle/mocks"
	"roast-battle/sink"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var topics = []string{"Pineapple on pizza", "Remote work", "Cats vs dogs"}

// newTestCoordinator never ticks on its own, tests drive the clocks with tickNow.
func newTestCoordinator(t *testing.T) *Coordinator {
	log := logs.GetLoggerFromLevel(slog.LevelError)
	cfg := DefaultConfig()
	cfg.TickInterval = time.Hour
	c := NewCoordinator(log, NewSubscriberRegistry(log, 50*time.Millisecond), cfg)
	t.Cleanup(c.Close)
	return c
}

func liveBattle(t *testing.T, c *Coordinator, coinFlip *domain.Speaker) domain.Battle {
	battle, err := c.CreateBattle("", topics, coinFlip)
	require.NoError(t, err)
	battle, err = c.StartBattle(battle.ID)
	require.NoError(t, err)
	return battle
}

func subscribe(t *testing.T, c *Coordinator, battleID string) (*Subscriber, *sink.StreamSink) {
	s := sink.NewStreamSink(64)
	sub, err := c.Subscribe(context.Background(), battleID, s)
	require.NoError(t, err)
	return sub, s
}

// drain returns every buffered event without waiting.
func drain(s *sink.StreamSink) []event.Event {
	var events []event.Event
	for {
		select {
		case e := <-s.Events():
			events = append(events, e)
		default:
			return events
		}
	}
}

func types(events []event.Event) []event.Type {
	return lo.Map(events, func(e event.Event, _ int) event.Type { return e.Type })
}

func TestCoordinator_CreateBattle(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)

	// When a battle is created with a coin flip won by the ai
	battle, err := c.CreateBattle("", topics, lo.ToPtr(domain.AI))

	// Then it is pending on round 1 with the ai opening
	req.NoError(err)
	req.NotEmpty(battle.ID)
	req.Equal(domain.StatusPending, battle.Status)
	req.Equal(1, battle.CurrentRound)
	req.Equal(domain.AI, battle.Turn)
	req.False(c.clocks.Running(battle.ID))

	// And the same id cannot be reused
	_, err = c.CreateBattle(battle.ID, topics, nil)
	req.ErrorIs(err, errors.ErrConflict)

	// And topics are mandatory
	_, err = c.CreateBattle("", topics[:2], nil)
	req.ErrorIs(err, errors.ErrInvalidArgument)
}

func TestCoordinator_Subscribe_InitialComesFirst(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	battle := liveBattle(t, c, nil)
	_, err := c.CastVote(battle.ID, "voter-1", 1, domain.Human)
	req.NoError(err)

	// When a client subscribes
	_, s := subscribe(t, c, battle.ID)

	// Then the first event is a snapshot counting the new subscriber
	events := drain(s)
	req.Len(events, 1)
	req.Equal(event.InitialType, events[0].Type)
	state, ok := events[0].Payload.(domain.BattleState)
	req.True(ok)
	req.Equal(battle.ID, state.Battle.ID)
	req.Equal(1, state.AudienceCount)
	req.Equal(domain.Tally{Human: 1}, state.TotalTally)
	req.Len(state.VoteTallies, domain.Rounds)
	req.Nil(state.Winner)
	req.Equal(1, c.AudienceCount(battle.ID))
}

func TestCoordinator_Subscribe_UnknownBattle(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)

	_, err := c.Subscribe(context.Background(), "missing", sink.NewStreamSink(1))

	req.ErrorIs(err, errors.ErrNotFound)
	req.Zero(c.subscribers.Count())
}

func TestCoordinator_CastVote(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	battle := liveBattle(t, c, nil)
	_, s := subscribe(t, c, battle.ID)
	drain(s)

	// When two voters vote in round 1
	first, err := c.CastVote(battle.ID, "voter-1", 1, domain.Human)
	req.NoError(err)
	second, err := c.CastVote(battle.ID, "voter-2", 1, domain.AI)
	req.NoError(err)

	// Then both are accepted and tallies add up
	req.True(first.Accepted)
	req.NotNil(first.Vote)
	req.True(second.Accepted)
	req.Equal(domain.Tally{Human: 1, AI: 1}, second.Tally)
	req.Equal(domain.Tally{Human: 1, AI: 1}, second.TotalTally)
	req.Equal(1, second.AudienceCount)

	// And each vote is announced
	events := drain(s)
	req.Equal([]event.Type{event.VoteUpdateType, event.VoteUpdateType}, types(events))
	update, ok := events[1].Payload.(event.VoteUpdate)
	req.True(ok)
	req.Equal(1, update.Round)
	req.Equal(domain.Tally{Human: 1, AI: 1}, update.RoundTally)
	req.Equal(update.TotalTally.Total(), update.VoteTallies[1].Total()+update.VoteTallies[2].Total()+update.VoteTallies[3].Total())
}

func TestCoordinator_CastVote_Duplicate(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	battle := liveBattle(t, c, nil)
	_, err := c.CastVote(battle.ID, "voter-1", 1, domain.Human)
	req.NoError(err)
	_, s := subscribe(t, c, battle.ID)
	drain(s)

	// When the same voter votes again in the same round, even for the other side
	result, err := c.CastVote(battle.ID, "voter-1", 1, domain.AI)

	// Then the vote is rejected without error and nothing changes
	req.NoError(err)
	req.False(result.Accepted)
	req.Nil(result.Vote)
	req.Equal(domain.Tally{Human: 1}, result.Tally)
	req.Empty(drain(s))

	// And the same voter can still vote in another round
	result, err = c.CastVote(battle.ID, "voter-1", 2, domain.AI)
	req.NoError(err)
	req.True(result.Accepted)
	req.Equal(domain.Tally{Human: 1, AI: 1}, result.TotalTally)

	votes, err := c.Votes(battle.ID, lo.ToPtr(1))
	req.NoError(err)
	req.Len(votes, 1)
}

func TestCoordinator_CastVote_Concurrent(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	cfg := DefaultConfig()
	cfg.TickInterval = time.Millisecond
	cfg.TurnDuration = 3600
	c := NewCoordinator(log, NewSubscriberRegistry(log, 50*time.Millisecond), cfg)
	t.Cleanup(c.Close)

	// Given a live battle whose clock ticks while a viewer reads the stream
	battle := liveBattle(t, c, nil)
	_, s := subscribe(t, c, battle.ID)
	stop := make(chan struct{})
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-s.Events():
			case <-stop:
				return
			}
		}
	}()

	// When the same voter and many distinct voters vote at the same time
	const voters = 200
	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := range voters {
		wg.Add(2)
		go func() {
			defer wg.Done()
			result, err := c.CastVote(battle.ID, "same", 1, lo.Ternary(i%2 == 0, domain.Human, domain.AI))
			if err == nil && result.Accepted {
				accepted.Add(1)
			}
		}()
		go func() {
			defer wg.Done()
			_, _ = c.CastVote(battle.ID, fmt.Sprintf("voter-%d", i), 2, domain.AI)
		}()
	}
	wg.Wait()
	close(stop)
	readers.Wait()

	// Then exactly one vote of the repeated voter counts
	req.Equal(int32(1), accepted.Load())
	votes, err := c.Votes(battle.ID, lo.ToPtr(1))
	req.NoError(err)
	req.Len(votes, 1)
	req.Equal(1, domain.TallyVotes(votes, nil).Total())

	// And every distinct voter is counted once
	state, err := c.GetBattle(battle.ID)
	req.NoError(err)
	req.Equal(domain.Tally{AI: voters}, state.VoteTallies[2])
	req.Equal(voters+1, state.TotalTally.Total())
	req.True(c.clocks.Running(battle.ID))
}

func TestCoordinator_CastVote_Rejections(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	pending, err := c.CreateBattle("", topics, nil)
	req.NoError(err)
	live := liveBattle(t, c, nil)

	tests := []struct {
		name     string
		battleID string
		voter    string
		round    int
		choice   domain.Speaker
		expected error
	}{
		{name: "Unknown battle", battleID: "missing", voter: "v", round: 1, choice: domain.Human, expected: errors.ErrNotFound},
		{name: "Pending battle", battleID: pending.ID, voter: "v", round: 1, choice: domain.Human, expected: errors.ErrInvalidState},
		{name: "Round too low", battleID: live.ID, voter: "v", round: 0, choice: domain.Human, expected: errors.ErrInvalidArgument},
		{name: "Round too high", battleID: live.ID, voter: "v", round: 4, choice: domain.Human, expected: errors.ErrInvalidArgument},
		{name: "Unknown choice", battleID: live.ID, voter: "v", round: 1, choice: "judge", expected: errors.ErrInvalidArgument},
		{name: "Missing voter", battleID: live.ID, voter: " ", round: 1, choice: domain.AI, expected: errors.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CastVote(tt.battleID, tt.voter, tt.round, tt.choice)
			req.ErrorIs(err, tt.expected)
		})
	}

	// Then the ledger was never touched
	votes, err := c.Votes(live.ID, nil)
	req.NoError(err)
	req.Empty(votes)
}

func TestCoordinator_StartBattle_SingleClock(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	battle := liveBattle(t, c, nil)
	req.Equal(domain.TurnDuration, battle.Timer)
	req.True(c.clocks.Running(battle.ID))

	// When the battle is started again or set live again
	_, err := c.StartBattle(battle.ID)
	req.ErrorIs(err, errors.ErrInvalidState)
	_, err = c.UpdateBattle(battle.ID, domain.BattleUpdate{Status: lo.ToPtr(domain.StatusLive)})
	req.NoError(err)

	// Then exactly one clock runs
	req.Equal(1, c.clocks.Count())
}

func TestCoordinator_UpdateBattle_GoingLiveWithoutTimer(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)

	// Given a pending battle
	battle, err := c.CreateBattle("", topics, nil)
	req.NoError(err)

	// When it is set live without a timer
	battle, err = c.UpdateBattle(battle.ID, domain.BattleUpdate{Status: lo.ToPtr(domain.StatusLive)})

	// Then a full turn is on the clock
	req.NoError(err)
	req.Equal(domain.TurnDuration, battle.Timer)
	req.True(c.clocks.Running(battle.ID))

	// When the clock ticks and the battle is set live again
	req.True(c.clocks.tickNow(battle.ID))
	req.True(c.clocks.tickNow(battle.ID))
	battle, err = c.UpdateBattle(battle.ID, domain.BattleUpdate{Status: lo.ToPtr(domain.StatusLive)})

	// Then the running countdown is kept
	req.NoError(err)
	req.Equal(domain.TurnDuration-2, battle.Timer)
	req.Equal(1, c.clocks.Count())
}

func TestCoordinator_UpdateBattle_GoingLiveWithTimer(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)

	// Given a pending battle
	battle, err := c.CreateBattle("", topics, nil)
	req.NoError(err)

	// When it is set live with a short timer
	battle, err = c.UpdateBattle(battle.ID, domain.BattleUpdate{
		Status: lo.ToPtr(domain.StatusLive),
		Timer:  lo.ToPtr(30),
	})

	// Then the host's timer wins
	req.NoError(err)
	req.Equal(30, battle.Timer)
}

func TestCoordinator_Tick_TimerUpdateEveryFiveTicks(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	battle := liveBattle(t, c, nil)
	_, s := subscribe(t, c, battle.ID)
	drain(s)

	// When the clock ticks four times
	for range 4 {
		req.True(c.clocks.tickNow(battle.ID))
	}

	// Then the countdown moved quietly
	req.Empty(drain(s))
	state, err := c.GetBattle(battle.ID)
	req.NoError(err)
	req.Equal(domain.TurnDuration-4, state.Battle.Timer)

	// When it ticks a fifth time
	req.True(c.clocks.tickNow(battle.ID))

	// Then subscribers get the remaining time
	events := drain(s)
	req.Equal([]event.Type{event.TimerUpdateType}, types(events))
	update, ok := events[0].Payload.(event.TimerUpdate)
	req.True(ok)
	req.Equal(domain.TurnDuration-5, update.Timer)
	req.Equal(1, update.Round)
	req.Equal(domain.Human, update.Turn)
}

func TestCoordinator_Tick_QuietWithoutAudience(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	battle := liveBattle(t, c, nil)
	sub, s := subscribe(t, c, battle.ID)
	c.Unsubscribe(sub)
	drain(s)

	for range 5 {
		req.True(c.clocks.tickNow(battle.ID))
	}

	req.Empty(drain(s))
	req.Zero(c.AudienceCount(battle.ID))
}

func TestCoordinator_Tick_AdvancesTurn(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	battle := liveBattle(t, c, nil)
	_, s := subscribe(t, c, battle.ID)

	// Given one second left on the human turn
	_, err := c.UpdateBattle(battle.ID, domain.BattleUpdate{Timer: lo.ToPtr(1)})
	req.NoError(err)
	drain(s)

	// When the clock ticks
	req.True(c.clocks.tickNow(battle.ID))

	// Then the ai gets a full turn
	events := drain(s)
	req.Equal([]event.Type{event.BattleUpdatedType}, types(events))
	updated, ok := events[0].Payload.(event.BattleUpdated)
	req.True(ok)
	req.Equal(domain.AI, updated.Battle.Turn)
	req.Equal(1, updated.Battle.CurrentRound)
	req.Equal(domain.TurnDuration, updated.Battle.Timer)
	req.Greater(updated.Battle.Revision, battle.Revision)
}

func TestCoordinator_FullBattle(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	archive := mocks.NewMockArchiveSink(ctrl)
	c := newTestCoordinator(t)
	c.RegisterArchive(archive)

	var record domain.BattleRecord
	archive.EXPECT().
		Archive(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r domain.BattleRecord) error {
			record = r
			return nil
		}).
		Times(1)

	battle := liveBattle(t, c, lo.ToPtr(domain.Human))
	for _, voter := range []string{"a", "b"} {
		_, err := c.CastVote(battle.ID, voter, 1, domain.Human)
		req.NoError(err)
	}
	_, err := c.CastVote(battle.ID, "c", 2, domain.AI)
	req.NoError(err)
	_, s := subscribe(t, c, battle.ID)
	drain(s)

	// When every turn runs out
	var turns []string
	for {
		state, err := c.GetBattle(battle.ID)
		req.NoError(err)
		if state.Battle.Status == domain.StatusFinished {
			break
		}
		turns = append(turns, string(state.Battle.Turn)+"@"+string(rune('0'+state.Battle.CurrentRound)))
		_, err = c.UpdateBattle(battle.ID, domain.BattleUpdate{Timer: lo.ToPtr(1)})
		req.NoError(err)
		c.clocks.tickNow(battle.ID)
		req.LessOrEqual(len(turns), 2*domain.Rounds)
	}

	// Then both speakers had one turn per round
	req.Equal([]string{"human@1", "ai@1", "human@2", "ai@2", "human@3", "ai@3"}, turns)

	// And the clock stopped with the battle
	req.False(c.clocks.Running(battle.ID))
	req.False(c.clocks.tickNow(battle.ID))

	// And the winner is announced and archived
	state, err := c.GetBattle(battle.ID)
	req.NoError(err)
	req.Equal(lo.ToPtr(domain.Human), state.Winner)
	req.False(state.Tie)
	req.Zero(state.Battle.Timer)

	events := drain(s)
	last, ok := events[len(events)-1].Payload.(event.BattleUpdated)
	req.True(ok)
	req.Equal(domain.StatusFinished, last.Battle.Status)
	req.Equal(lo.ToPtr(domain.Human), last.Winner)

	req.Equal(battle.ID, record.Battle.ID)
	req.Len(record.Votes, 3)
	req.Equal(domain.Tally{Human: 2, AI: 1}, record.TotalTally)

	// And votes are closed
	_, err = c.CastVote(battle.ID, "d", 3, domain.AI)
	req.ErrorIs(err, errors.ErrInvalidState)
}

func TestCoordinator_EndBattle_Tie(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	battle := liveBattle(t, c, nil)
	_, err := c.CastVote(battle.ID, "a", 1, domain.Human)
	req.NoError(err)
	_, err = c.CastVote(battle.ID, "b", 1, domain.AI)
	req.NoError(err)

	// When the host ends the battle early
	ended, err := c.EndBattle(battle.ID)

	// Then nobody wins
	req.NoError(err)
	req.Equal(domain.StatusFinished, ended.Status)
	state, err := c.GetBattle(battle.ID)
	req.NoError(err)
	req.Nil(state.Winner)
	req.True(state.Tie)
	req.False(c.clocks.Running(battle.ID))

	// And a finished battle cannot change anymore
	_, err = c.UpdateBattle(battle.ID, domain.BattleUpdate{Status: lo.ToPtr(domain.StatusLive)})
	req.ErrorIs(err, errors.ErrInvalidState)
	_, err = c.EndBattle(battle.ID)
	req.ErrorIs(err, errors.ErrInvalidState)
}

func TestCoordinator_UpdateBattle_Rejections(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	battle := liveBattle(t, c, nil)
	_, err := c.UpdateBattle(battle.ID, domain.BattleUpdate{CurrentRound: lo.ToPtr(2)})
	req.NoError(err)

	_, err = c.UpdateBattle(battle.ID, domain.BattleUpdate{CurrentRound: lo.ToPtr(1)})
	req.ErrorIs(err, errors.ErrInvalidState)
	_, err = c.UpdateBattle(battle.ID, domain.BattleUpdate{Status: lo.ToPtr(domain.StatusPending)})
	req.ErrorIs(err, errors.ErrInvalidState)
	_, err = c.UpdateBattle(battle.ID, domain.BattleUpdate{Timer: lo.ToPtr(-1)})
	req.ErrorIs(err, errors.ErrInvalidArgument)
	_, err = c.UpdateBattle("missing", domain.BattleUpdate{Timer: lo.ToPtr(10)})
	req.ErrorIs(err, errors.ErrNotFound)

	// Then the battle kept its last valid state
	state, err := c.GetBattle(battle.ID)
	req.NoError(err)
	req.Equal(2, state.Battle.CurrentRound)
	req.Equal(domain.StatusLive, state.Battle.Status)
}

func TestCoordinator_DeleteBattle(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	battle := liveBattle(t, c, nil)
	sub, s := subscribe(t, c, battle.ID)
	handle := c.clocks.handles[battle.ID]

	// When the battle is deleted
	req.True(c.DeleteBattle(battle.ID))

	// Then its stream is closed and its clock is gone
	req.False(sub.IsAlive())
	<-s.Done()
	req.False(c.clocks.Running(battle.ID))
	req.Zero(c.AudienceCount(battle.ID))

	// And a tick that was already in flight changes nothing
	req.False(handle.fire())
	_, err := c.GetBattle(battle.ID)
	req.ErrorIs(err, errors.ErrNotFound)
	_, err = c.Votes(battle.ID, nil)
	req.ErrorIs(err, errors.ErrNotFound)

	// And deleting twice reports nothing to delete
	req.False(c.DeleteBattle(battle.ID))
}

func TestCoordinator_StopTimer_GhostTick(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	battle := liveBattle(t, c, nil)
	handle := c.clocks.handles[battle.ID]

	// When the timer is paused while a tick is pending
	_, err := c.StopTimer(battle.ID)
	req.NoError(err)

	// Then the pending tick is a no-op and the battle stays live
	req.False(handle.fire())
	state, err := c.GetBattle(battle.ID)
	req.NoError(err)
	req.Equal(domain.TurnDuration, state.Battle.Timer)
	req.Equal(domain.StatusLive, state.Battle.Status)

	// When the timer starts again
	_, err = c.StartTimer(battle.ID)
	req.NoError(err)
	req.True(c.clocks.tickNow(battle.ID))
	state, err = c.GetBattle(battle.ID)
	req.NoError(err)
	req.Equal(domain.TurnDuration-1, state.Battle.Timer)
}

func TestCoordinator_StartTimer_PendingBattle(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	battle, err := c.CreateBattle("", topics, nil)
	req.NoError(err)

	_, err = c.StartTimer(battle.ID)

	req.ErrorIs(err, errors.ErrInvalidState)
	req.False(c.clocks.Running(battle.ID))
}

func TestCoordinator_ResetTimer(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	battle := liveBattle(t, c, nil)
	for range 3 {
		c.clocks.tickNow(battle.ID)
	}

	// When the timer is reset without a value
	reset, err := c.ResetTimer(battle.ID, 0)

	// Then a full turn is back on a fresh clock
	req.NoError(err)
	req.Equal(domain.TurnDuration, reset.Timer)
	req.Equal(int64(0), c.clocks.handles[battle.ID].seq.Load())

	reset, err = c.ResetTimer(battle.ID, 15)
	req.NoError(err)
	req.Equal(15, reset.Timer)

	_, err = c.ResetTimer(battle.ID, -3)
	req.ErrorIs(err, errors.ErrInvalidArgument)
}

func TestCoordinator_AddRoast(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	battle := liveBattle(t, c, nil)
	_, s := subscribe(t, c, battle.ID)
	drain(s)

	// When both speakers roast in round 1
	human, err := c.AddRoast(battle.ID, domain.NewRoast{Speaker: domain.Human, Round: 1, Text: "Your code has more bugs than a rainforest."})
	req.NoError(err)
	_, err = c.AddRoast(battle.ID, domain.NewRoast{Speaker: domain.AI, Round: 1, Text: "At least my bugs are features."})
	req.NoError(err)

	// Then each roast is announced in order
	events := drain(s)
	req.Equal([]event.Type{event.RoastReadyType, event.RoastReadyType}, types(events))
	ready, ok := events[0].Payload.(event.RoastReady)
	req.True(ok)
	req.Equal(human.ID, ready.Roast.ID)

	roasts, err := c.Roasts(battle.ID, lo.ToPtr(1))
	req.NoError(err)
	req.Len(roasts, 2)
	roasts, err = c.Roasts(battle.ID, lo.ToPtr(2))
	req.NoError(err)
	req.Empty(roasts)

	// And invalid roasts are refused
	_, err = c.AddRoast(battle.ID, domain.NewRoast{Speaker: domain.Human, Round: 1, Text: "  "})
	req.ErrorIs(err, errors.ErrInvalidArgument)
	_, err = c.AddRoast(battle.ID, domain.NewRoast{Speaker: domain.Human, Round: 5, Text: "late"})
	req.ErrorIs(err, errors.ErrInvalidArgument)
	_, err = c.AddRoast("missing", domain.NewRoast{Speaker: domain.Human, Round: 1, Text: "hi"})
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestCoordinator_SlowSubscriberIsDropped(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	battle := liveBattle(t, c, nil)
	slow, err := c.Subscribe(context.Background(), battle.ID, sink.NewStreamSink(1))
	req.NoError(err)
	_, fast := subscribe(t, c, battle.ID)

	// When an event arrives while the slow buffer still holds the snapshot
	_, err = c.CastVote(battle.ID, "voter-1", 1, domain.Human)
	req.NoError(err)

	// Then only the slow subscriber is removed
	req.False(slow.IsAlive())
	req.Equal(1, c.AudienceCount(battle.ID))
	req.Equal([]event.Type{event.InitialType, event.VoteUpdateType}, types(drain(fast)))
}

func TestCoordinator_SweepBattles(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	start := time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return start }
	old := liveBattle(t, c, nil)
	c.now = func() time.Time { return start.Add(50 * time.Minute) }
	recent, err := c.CreateBattle("", topics, nil)
	req.NoError(err)

	// When sweeping one hour and ten minutes after the first battle
	removed := c.SweepBattles(start.Add(70*time.Minute), time.Hour)

	// Then only the inactive battle is gone with its clock
	req.Equal([]string{old.ID}, removed)
	req.False(c.clocks.Running(old.ID))
	req.Len(c.ListBattles(), 1)
	_, err = c.GetBattle(recent.ID)
	req.NoError(err)
}

func TestCoordinator_Stats(t *testing.T) {
	req := require.New(t)
	c := newTestCoordinator(t)
	live := liveBattle(t, c, nil)
	_, err := c.CreateBattle("", topics, nil)
	req.NoError(err)
	subscribe(t, c, live.ID)

	req.Equal(Stats{Battles: 2, LiveBattles: 1, RunningClocks: 1, Subscribers: 1}, c.Stats())
}

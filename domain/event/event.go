package event

import (
	"roast-battle/domain"
	"time"
)

type Type string

const (
	InitialType       Type = "initial"
	BattleUpdatedType Type = "battle_updated"
	VoteUpdateType    Type = "vote_update"
	RoastReadyType    Type = "roast_ready"
	TimerUpdateType   Type = "timer_update"
	HeartbeatType     Type = "heartbeat"
)

// Event is the envelope pushed to every subscriber of a battle.
type Event struct {
	Type      Type      `json:"type"`
	BattleID  string    `json:"battleId"`
	CreatedAt time.Time `json:"timestamp"`
	Payload   any       `json:"data,omitempty"`
}

type BattleUpdated struct {
	Battle domain.Battle   `json:"battle"`
	Winner *domain.Speaker `json:"winner,omitempty"`
	Tie    bool            `json:"tie,omitempty"`
}

type VoteUpdate struct {
	Round         int                  `json:"round"`
	RoundTally    domain.Tally         `json:"roundTally"`
	VoteTallies   map[int]domain.Tally `json:"voteTallies"`
	TotalTally    domain.Tally         `json:"totalTally"`
	AudienceCount int                  `json:"audienceCount"`
}

type RoastReady struct {
	Roast domain.Roast `json:"roast"`
}

type TimerUpdate struct {
	Timer    int            `json:"timer"`
	Round    int            `json:"currentRound"`
	Turn     domain.Speaker `json:"turn"`
	Revision uint64         `json:"revision"`
}

func NewInitial(state domain.BattleState, at time.Time) Event {
	return Event{Type: InitialType, BattleID: state.Battle.ID, CreatedAt: at, Payload: state}
}

func NewBattleUpdated(b domain.Battle, winner *domain.Speaker, tie bool, at time.Time) Event {
	return Event{Type: BattleUpdatedType, BattleID: b.ID, CreatedAt: at,
		Payload: BattleUpdated{Battle: b, Winner: winner, Tie: tie}}
}

func NewVoteUpdate(battleID string, payload VoteUpdate, at time.Time) Event {
	return Event{Type: VoteUpdateType, BattleID: battleID, CreatedAt: at, Payload: payload}
}

func NewRoastReady(r domain.Roast, at time.Time) Event {
	return Event{Type: RoastReadyType, BattleID: r.BattleID, CreatedAt: at, Payload: RoastReady{Roast: r}}
}

func NewTimerUpdate(b domain.Battle, at time.Time) Event {
	return Event{Type: TimerUpdateType, BattleID: b.ID, CreatedAt: at,
		Payload: TimerUpdate{Timer: b.Timer, Round: b.CurrentRound, Turn: b.Turn, Revision: b.Revision}}
}

// NewHeartbeat is a keep-alive with no payload semantics.
func NewHeartbeat(battleID string, at time.Time) Event {
	return Event{Type: HeartbeatType, BattleID: battleID, CreatedAt: at}
}

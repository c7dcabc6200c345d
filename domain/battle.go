// Package domain contains core concepts of a roast battle.
// This file defines the Battle record and the rules applied when it is updated.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"fmt"
	"roast-battle/errors"
	"time"
)

const (
	Rounds       = 3
	TurnDuration = 60 // seconds
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusLive     Status = "live"
	StatusFinished Status = "finished"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusLive, StatusFinished:
		return true
	}
	return false
}

type Speaker string

const (
	Human Speaker = "human"
	AI    Speaker = "ai"
)

func (s Speaker) Valid() bool {
	return s == Human || s == AI
}

// Battle is one 3-round match between a human and an AI.
type Battle struct {
	ID             string    `json:"id"`
	Topics         []string  `json:"topics"`
	CurrentRound   int       `json:"currentRound"`
	Status         Status    `json:"status"`
	Turn           Speaker   `json:"turn"`
	Timer          int       `json:"timer"`
	CoinFlipResult *Speaker  `json:"coinFlipResult,omitempty"`
	Revision       uint64    `json:"revision"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"timestamp"`
}

// BattleUpdate carries the fields to merge into a Battle, nil fields are left untouched.
type BattleUpdate struct {
	CurrentRound *int     `json:"currentRound,omitempty"`
	Status       *Status  `json:"status,omitempty"`
	Turn         *Speaker `json:"turn,omitempty"`
	Timer        *int     `json:"timer,omitempty"`
}

func (u BattleUpdate) IsEmpty() bool {
	return u.CurrentRound == nil && u.Status == nil && u.Turn == nil && u.Timer == nil
}

// NewBattle builds a pending battle. Topics must hold exactly one entry per round.
func NewBattle(id string, topics []string, coinFlip *Speaker, at time.Time) (Battle, error) {
	if id == "" {
		return Battle{}, fmt.Errorf("%w: battle id is required", errors.ErrInvalidArgument)
	}
	if len(topics) != Rounds {
		return Battle{}, fmt.Errorf("%w: exactly %d topics are required, got %d",
			errors.ErrInvalidArgument, Rounds, len(topics))
	}
	if coinFlip != nil && !coinFlip.Valid() {
		return Battle{}, fmt.Errorf("%w: unknown coin flip result %q", errors.ErrInvalidArgument, *coinFlip)
	}
	return Battle{
		ID:             id,
		Topics:         append([]string(nil), topics...),
		CurrentRound:   1,
		Status:         StatusPending,
		Turn:           OpeningSpeaker(coinFlip),
		Timer:          0,
		CoinFlipResult: coinFlip,
		CreatedAt:      at,
		UpdatedAt:      at,
	}, nil
}

// OpeningSpeaker is the speaker a round starts with.
func OpeningSpeaker(coinFlip *Speaker) Speaker {
	if coinFlip == nil {
		return Human
	}
	return *coinFlip
}

// Apply merges the update into a copy of the battle.
// A finished battle is terminal, status never goes back, and rounds never decrease.
func (b Battle) Apply(u BattleUpdate) (Battle, error) {
	if b.Status == StatusFinished {
		return b, fmt.Errorf("%w: battle %s is finished", errors.ErrInvalidState, b.ID)
	}
	next := b
	if u.Status != nil {
		if !u.Status.Valid() {
			return b, fmt.Errorf("%w: unknown status %q", errors.ErrInvalidArgument, *u.Status)
		}
		if *u.Status == StatusPending && b.Status != StatusPending {
			return b, fmt.Errorf("%w: battle %s cannot go back to pending", errors.ErrInvalidState, b.ID)
		}
		next.Status = *u.Status
	}
	if u.CurrentRound != nil {
		round := *u.CurrentRound
		if round < 1 || round > Rounds {
			return b, fmt.Errorf("%w: round must be in [1,%d], got %d", errors.ErrInvalidArgument, Rounds, round)
		}
		if round < b.CurrentRound && b.Status != StatusPending {
			return b, fmt.Errorf("%w: round cannot go back from %d to %d", errors.ErrInvalidState, b.CurrentRound, round)
		}
		next.CurrentRound = round
	}
	if u.Turn != nil {
		if !u.Turn.Valid() {
			return b, fmt.Errorf("%w: unknown speaker %q", errors.ErrInvalidArgument, *u.Turn)
		}
		next.Turn = *u.Turn
	}
	if u.Timer != nil {
		if *u.Timer < 0 {
			return b, fmt.Errorf("%w: timer must be positive, got %d", errors.ErrInvalidArgument, *u.Timer)
		}
		next.Timer = *u.Timer
	}
	return next, nil
}

func (b Battle) IsLive() bool {
	return b.Status == StatusLive
}

// IsActive tells whether the battle should still be listed to hosts and voters.
func (b Battle) IsActive(now time.Time, maxAge time.Duration) bool {
	return b.Status != StatusFinished && now.Sub(b.UpdatedAt) <= maxAge
}

// Topic returns the topic of the given round, empty when the round is out of range.
func (b Battle) Topic(round int) string {
	if round < 1 || round > len(b.Topics) {
		return ""
	}
	return b.Topics[round-1]
}

package domain

import (
	"time"

	"github.com/samber/lo"
)

// Vote is one audience choice for a round. The voter fingerprint only deduplicates votes.
type Vote struct {
	ID               string    `json:"id"`
	BattleID         string    `json:"battleId"`
	VoterFingerprint string    `json:"voterHash"`
	Round            int       `json:"round"`
	Choice           Speaker   `json:"voteFor"`
	CreatedAt        time.Time `json:"timestamp"`
}

type Tally struct {
	Human int `json:"human"`
	AI    int `json:"ai"`
}

func (t Tally) Total() int {
	return t.Human + t.AI
}

func (t Tally) Add(o Tally) Tally {
	return Tally{Human: t.Human + o.Human, AI: t.AI + o.AI}
}

// TallyVotes counts votes by choice, restricted to one round when round is set.
func TallyVotes(votes []Vote, round *int) Tally {
	return lo.Reduce(votes, func(acc Tally, v Vote, _ int) Tally {
		if round != nil && v.Round != *round {
			return acc
		}
		switch v.Choice {
		case Human:
			acc.Human++
		case AI:
			acc.AI++
		}
		return acc
	}, Tally{})
}

// RoundTallies returns one tally per round, every round present even without votes.
func RoundTallies(votes []Vote) map[int]Tally {
	tallies := make(map[int]Tally, Rounds)
	for round := 1; round <= Rounds; round++ {
		tallies[round] = TallyVotes(votes, lo.ToPtr(round))
	}
	return tallies
}

// Winner returns the side with strictly more votes, nil on a tie.
func Winner(total Tally) *Speaker {
	switch {
	case total.Human > total.AI:
		return lo.ToPtr(Human)
	case total.AI > total.Human:
		return lo.ToPtr(AI)
	default:
		return nil
	}
}

package runtime

import (
	"roast-battle/domain"
	"time"

	"github.com/google/uuid"
)

type ballotKey struct {
	battleID string
	voter    string
	round    int
}

// VoteLedger stores votes per battle and enforces one vote per voter and round.
// Battle state and round range are checked by the Coordinator before Cast is reached.
type VoteLedger struct {
	votes   map[string][]domain.Vote
	ballots map[ballotKey]struct{}
}

func NewVoteLedger() *VoteLedger {
	return &VoteLedger{
		votes:   make(map[string][]domain.Vote),
		ballots: make(map[ballotKey]struct{}),
	}
}

// Cast records the vote unless the voter already voted in this round.
// A rejected vote leaves the ledger untouched.
func (l *VoteLedger) Cast(battleID, voter string, round int, choice domain.Speaker, at time.Time) (domain.Vote, bool) {
	key := ballotKey{battleID: battleID, voter: voter, round: round}
	if _, ok := l.ballots[key]; ok {
		return domain.Vote{}, false
	}
	vote := domain.Vote{
		ID:               uuid.NewString(),
		BattleID:         battleID,
		VoterFingerprint: voter,
		Round:            round,
		Choice:           choice,
		CreatedAt:        at,
	}
	l.ballots[key] = struct{}{}
	l.votes[battleID] = append(l.votes[battleID], vote)
	return vote, true
}

func (l *VoteLedger) List(battleID string) []domain.Vote {
	return append([]domain.Vote{}, l.votes[battleID]...)
}

func (l *VoteLedger) Tally(battleID string, round *int) domain.Tally {
	return domain.TallyVotes(l.votes[battleID], round)
}

// Drop removes every vote of a battle.
func (l *VoteLedger) Drop(battleID string) {
	for _, vote := range l.votes[battleID] {
		delete(l.ballots, ballotKey{battleID: battleID, voter: vote.VoterFingerprint, round: vote.Round})
	}
	delete(l.votes, battleID)
}

package domain

import "time"

// BattleState is the full view of a battle returned to readers and sent as the initial snapshot.
type BattleState struct {
	Battle        Battle        `json:"battle"`
	Roasts        []Roast       `json:"roasts"`
	VoteTallies   map[int]Tally `json:"voteTallies"`
	TotalTally    Tally         `json:"totalTally"`
	AudienceCount int           `json:"audienceCount"`
	Winner        *Speaker      `json:"winner,omitempty"`
	Tie           bool          `json:"tie,omitempty"`
}

// VoteResult is the outcome of a vote. A duplicate vote is rejected with Accepted false.
type VoteResult struct {
	Accepted      bool  `json:"accepted"`
	Vote          *Vote `json:"vote,omitempty"`
	Round         int   `json:"round"`
	Tally         Tally `json:"roundTally"`
	TotalTally    Tally `json:"totalTally"`
	AudienceCount int   `json:"audienceCount"`
}

// BattleRecord is what remains of a finished battle once it leaves memory.
type BattleRecord struct {
	Battle      Battle        `json:"battle"`
	Roasts      []Roast       `json:"roasts"`
	Votes       []Vote        `json:"votes"`
	VoteTallies map[int]Tally `json:"voteTallies"`
	TotalTally  Tally         `json:"totalTally"`
	Winner      *Speaker      `json:"winner,omitempty"`
	Tie         bool          `json:"tie"`
	FinishedAt  time.Time     `json:"finishedAt"`
}

// Outcome returns the winner of a total tally and whether it is a tie.
func Outcome(total Tally) (*Speaker, bool) {
	winner := Winner(total)
	return winner, winner == nil
}

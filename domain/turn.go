package domain

import "github.com/samber/lo"

// NextTurn returns the update applied when the turn countdown of a live battle expires.
//
//	human turn          -> ai turn, countdown reset
//	ai turn, round < 3  -> next round, turn back to the coin flip winner, countdown reset
//	ai turn, round 3    -> battle finished
func NextTurn(b Battle, turnDuration int) BattleUpdate {
	if b.Turn == Human {
		return BattleUpdate{
			Turn:  lo.ToPtr(AI),
			Timer: lo.ToPtr(turnDuration),
		}
	}
	if b.CurrentRound < Rounds {
		return BattleUpdate{
			CurrentRound: lo.ToPtr(b.CurrentRound + 1),
			Turn:         lo.ToPtr(OpeningSpeaker(b.CoinFlipResult)),
			Timer:        lo.ToPtr(turnDuration),
		}
	}
	return BattleUpdate{
		Status: lo.ToPtr(StatusFinished),
		Timer:  lo.ToPtr(0),
	}
}

package codec

import (
	"roast-battle/domain"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestMarshal_BattleRecord(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, 3, 14, 21, 30, 0, 0, time.UTC)
	record := domain.BattleRecord{
		Battle: domain.Battle{
			ID:           "b1",
			Topics:       []string{"a", "b", "c"},
			CurrentRound: 3,
			Status:       domain.StatusFinished,
			Turn:         domain.AI,
			Revision:     42,
			CreatedAt:    at,
			UpdatedAt:    at,
		},
		Roasts:      []domain.Roast{{ID: "r1", BattleID: "b1", Speaker: domain.Human, Round: 1, Text: "Nice try", CreatedAt: at}},
		VoteTallies: map[int]domain.Tally{1: {Human: 2}, 2: {}, 3: {AI: 1}},
		TotalTally:  domain.Tally{Human: 2, AI: 1},
		Winner:      lo.ToPtr(domain.Human),
		FinishedAt:  at,
	}

	// When the record goes through the binary Struct encoding
	data, err := Marshal(record)
	req.NoError(err)
	var decoded domain.BattleRecord
	req.NoError(Unmarshal(data, &decoded))

	// Then nothing is lost, integers and map keys included
	req.Equal(record.Battle, decoded.Battle)
	req.Equal(record.VoteTallies, decoded.VoteTallies)
	req.Equal(record.Winner, decoded.Winner)
	req.Equal("Nice try", decoded.Roasts[0].Text)
	req.True(record.FinishedAt.Equal(decoded.FinishedAt))
}

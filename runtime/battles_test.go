package runtime

import (
	"roast-battle/domain"
	"roast-battle/errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestBattleRegistry_Update_StampsRevision(t *testing.T) {
	req := require.New(t)
	registry := NewBattleRegistry()
	createdAt := time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)
	battle, err := registry.Create("b1", topics, nil, createdAt)
	req.NoError(err)

	// When the battle goes live
	updatedAt := createdAt.Add(time.Minute)
	before, after, err := registry.Update("b1", domain.BattleUpdate{Status: lo.ToPtr(domain.StatusLive)}, updatedAt)

	// Then the previous state is returned along a newer revision
	req.NoError(err)
	req.Equal(domain.StatusPending, before.Status)
	req.Equal(domain.StatusLive, after.Status)
	req.Greater(after.Revision, battle.Revision)
	req.Equal(updatedAt, after.UpdatedAt)
	req.Equal(createdAt, after.CreatedAt)

	// And a rejected update leaves the stored battle untouched
	_, _, err = registry.Update("b1", domain.BattleUpdate{Status: lo.ToPtr(domain.StatusPending)}, updatedAt)
	req.ErrorIs(err, errors.ErrInvalidState)
	stored, ok := registry.Get("b1")
	req.True(ok)
	req.Equal(after, stored)
}

func TestBattleRegistry_List_Delete(t *testing.T) {
	req := require.New(t)
	registry := NewBattleRegistry()
	start := time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)
	_, err := registry.Create("second", topics, nil, start.Add(time.Second))
	req.NoError(err)
	_, err = registry.Create("first", topics, nil, start)
	req.NoError(err)
	registry.AddRoast(domain.Roast{ID: "r1", BattleID: "first", Round: 1, Speaker: domain.Human, Text: "hi"})

	req.Equal([]string{"first", "second"}, lo.Map(registry.List(), func(b domain.Battle, _ int) string { return b.ID }))

	req.True(registry.Delete("first"))
	req.False(registry.Delete("first"))
	req.Empty(registry.Roasts("first", nil))
	req.Len(registry.List(), 1)
}

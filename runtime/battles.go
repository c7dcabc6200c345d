package runtime

import (
	"fmt"
	"roast-battle/domain"
	"roast-battle/errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// BattleRegistry owns the canonical Battle per id and the roasts appended to it.
// It is not safe for concurrent use, the Coordinator serializes every access.
type BattleRegistry struct {
	battles  map[string]domain.Battle
	roasts   map[string][]domain.Roast
	revision uint64
}

func NewBattleRegistry() *BattleRegistry {
	return &BattleRegistry{
		battles: make(map[string]domain.Battle),
		roasts:  make(map[string][]domain.Roast),
	}
}

// Create registers a new pending battle. An empty id is replaced by a generated one.
func (r *BattleRegistry) Create(id string, topics []string, coinFlip *domain.Speaker, at time.Time) (domain.Battle, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := r.battles[id]; ok {
		return domain.Battle{}, fmt.Errorf("%w: battle %s already exists", errors.ErrConflict, id)
	}
	battle, err := domain.NewBattle(id, topics, coinFlip, at)
	if err != nil {
		return domain.Battle{}, err
	}
	battle.Revision = r.nextRevision()
	r.battles[id] = battle
	return battle, nil
}

func (r *BattleRegistry) Get(id string) (domain.Battle, bool) {
	battle, ok := r.battles[id]
	return battle, ok
}

// Update merges the update into the stored battle and stamps a new revision.
// It returns the battle as it was before and after the merge.
func (r *BattleRegistry) Update(id string, update domain.BattleUpdate, at time.Time) (domain.Battle, domain.Battle, error) {
	before, ok := r.battles[id]
	if !ok {
		return domain.Battle{}, domain.Battle{}, fmt.Errorf("%w: %s", errors.ErrNotFound, id)
	}
	after, err := before.Apply(update)
	if err != nil {
		return before, before, err
	}
	after.Revision = r.nextRevision()
	after.UpdatedAt = at
	r.battles[id] = after
	return before, after, nil
}

// Delete removes the battle and its roasts.
func (r *BattleRegistry) Delete(id string) bool {
	if _, ok := r.battles[id]; !ok {
		return false
	}
	delete(r.battles, id)
	delete(r.roasts, id)
	return true
}

// List returns every battle, oldest first.
func (r *BattleRegistry) List() []domain.Battle {
	battles := lo.Values(r.battles)
	sort.Slice(battles, func(i, j int) bool {
		return battles[i].CreatedAt.Before(battles[j].CreatedAt)
	})
	return battles
}

func (r *BattleRegistry) AddRoast(roast domain.Roast) {
	r.roasts[roast.BattleID] = append(r.roasts[roast.BattleID], roast)
}

// Roasts returns the roasts of a battle in append order, restricted to one round when round is set.
func (r *BattleRegistry) Roasts(battleID string, round *int) []domain.Roast {
	return lo.Filter(r.roasts[battleID], func(roast domain.Roast, _ int) bool {
		return round == nil || roast.Round == *round
	})
}

func (r *BattleRegistry) nextRevision() uint64 {
	r.revision++
	return r.revision
}

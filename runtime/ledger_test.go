package runtime

import (
	"roast-battle/domain"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestVoteLedger_Cast(t *testing.T) {
	req := require.New(t)
	ledger := NewVoteLedger()
	now := time.Now()

	_, ok := ledger.Cast("b1", "v1", 1, domain.Human, now)
	req.True(ok)
	_, ok = ledger.Cast("b1", "v1", 1, domain.AI, now)
	req.False(ok)
	_, ok = ledger.Cast("b1", "v1", 2, domain.AI, now)
	req.True(ok)
	_, ok = ledger.Cast("b2", "v1", 1, domain.AI, now)
	req.True(ok)

	req.Len(ledger.List("b1"), 2)
	req.Equal(domain.Tally{Human: 1}, ledger.Tally("b1", lo.ToPtr(1)))
	req.Equal(domain.Tally{Human: 1, AI: 1}, ledger.Tally("b1", nil))
}

func TestVoteLedger_Drop(t *testing.T) {
	req := require.New(t)
	ledger := NewVoteLedger()
	now := time.Now()
	_, ok := ledger.Cast("b1", "v1", 1, domain.Human, now)
	req.True(ok)

	ledger.Drop("b1")

	req.Empty(ledger.List("b1"))
	// A battle recreated with the same id starts with a fresh ballot box
	_, ok = ledger.Cast("b1", "v1", 1, domain.Human, now)
	req.True(ok)
}

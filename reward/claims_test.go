package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolderDetails(t *testing.T) {
	oldTree := NewTree(1, []Leaf{
		mustLeaf(t, campaign1, holderA, "uniswap", tokenA, "100"),
		mustLeaf(t, campaign1, holderB, "uniswap", tokenA, "50"),
	})
	newTree := NewTree(2, []Leaf{
		mustLeaf(t, campaign1, holderA, "uniswap", tokenA, "150"),
		mustLeaf(t, campaign2, holderA, "arrakis", tokenA, "30"),
		mustLeaf(t, campaign2, holderC, "arrakis", tokenB, "9"),
	})

	details := NewHolderDetails(oldTree, newTree)

	a := details[holderA][tokenA]
	require.NotNil(t, a)
	assert.Equal(t, "180", a.Unclaimed.String())
	assert.Equal(t, "100", a.Previous.String())
	require.Len(t, a.Breakdown, 2)
	assert.Equal(t, campaign1, a.Breakdown[0].CampaignID)
	assert.Equal(t, "50", a.Breakdown[0].Diff.String())

	// holder only in the old tree is still reconciled
	b := details[holderB][tokenA]
	require.NotNil(t, b)
	assert.Zero(t, b.Unclaimed.Sign())
	assert.Equal(t, "50", b.Previous.String())

	assert.Len(t, details.Pairs(), 3)
}

func TestReconcileClaimsOverClaim(t *testing.T) {
	newTree := NewTree(2, []Leaf{
		mustLeaf(t, campaign1, holderA, "uniswap", tokenA, "1000000000000000000001"),
	})
	details := NewHolderDetails(NewTree(1, nil), newTree)

	claimed := Claimed{}
	claimed.Set(holderA, tokenA, bi("1001000000000000000000"))

	over := ReconcileClaims(details, claimed)
	require.Len(t, over, 1)
	assert.Equal(t, holderA, over[0].Holder)
	assert.Equal(t, tokenA, over[0].Token)
	assert.Equal(t, "1001000000000000000000", over[0].Claimed.String())
	assert.Equal(t, "1000000000000000000001", over[0].Unclaimed.String())
}

func TestReconcileClaimsWithinEntitlement(t *testing.T) {
	newTree := NewTree(2, []Leaf{
		mustLeaf(t, campaign1, holderA, "uniswap", tokenA, "100"),
		mustLeaf(t, campaign1, holderB, "uniswap", tokenA, "100"),
	})
	details := NewHolderDetails(NewTree(1, nil), newTree)

	claimed := Claimed{}
	claimed.Set(holderA, tokenA, bi("100"))

	assert.Empty(t, ReconcileClaims(details, claimed))
	assert.Empty(t, ReconcileClaims(details, Claimed{}))
	assert.Zero(t, claimed.Get(holderB, tokenA).Sign())
}

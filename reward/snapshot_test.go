package reward

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var snapshotJSON = fmt.Sprintf(`{
  "lastUpdateEpoch": 470000,
  "updateTimestamp": 1692000000,
  "merklRoot": "0x9f1b0000000000000000000000000000000000000000000000000000000000aa",
  "rewards": {
    "%s": {
      "amm": 0,
      "pool": "0x8DB1B906D47DFC1D84A87FC49BD0522E285B98B9",
      "token": "%s",
      "tokenSymbol": "agEUR",
      "tokenDecimals": 18,
      "boostedAddress": "",
      "boostedReward": 0,
      "lastUpdateEpoch": 469999,
      "holders": {
        "%s": {"amount": "1000", "averageBoost": 1.5, "breakdown": {"uniswap": "600", "arrakis": "300"}},
        "%s": {"amount": "50"}
      }
    }
  }
}`, campaign1, tokenA, holderA, holderB)

func TestParseTree(t *testing.T) {
	tree, err := ParseTree([]byte(snapshotJSON))
	require.NoError(t, err)

	assert.Equal(t, uint32(470000), tree.Epoch)
	require.Equal(t, 4, tree.Len())

	idx, found, err := tree.FindIndex(campaign1, holderA, UnattributedReason)
	require.NoError(t, err)
	require.True(t, found)
	l := tree.Leaf(idx)
	assert.Equal(t, "100", l.Amount.String())
	assert.Equal(t, int64(469999*3600), l.LastProcessedTimestamp)
	assert.Equal(t, "agEUR", l.Aux.TokenSymbol)
	assert.Equal(t, 1.5, l.Aux.AverageBoost)
	assert.Equal(t, "0", l.Aux.AMM)

	idx, found, err = tree.FindIndex(campaign1, holderB, UnattributedReason)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "50", tree.Leaf(idx).Amount.String())

	assert.Equal(t, "1050", tree.CampaignInfo(campaign1).Total.String())
	assert.Equal(t, "1000", tree.Aggregation()[holderA][tokenA].String())
}

func TestParseSnapshotRoot(t *testing.T) {
	s, err := ParseSnapshot([]byte(snapshotJSON))
	require.NoError(t, err)
	assert.Equal(t, "0x9f1b0000000000000000000000000000000000000000000000000000000000aa", s.MerklRoot)
	assert.Equal(t, int64(1692000000), s.UpdateTimestamp)
}

func TestParseTreeStringAMM(t *testing.T) {
	data := fmt.Sprintf(`{"lastUpdateEpoch": 1, "rewards": {"%s": {"amm": "2", "token": "%s", "holders": {"%s": {"amount": "5"}}}}}`,
		campaign1, tokenA, holderA)
	tree, err := ParseTree([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "2", tree.Leaf(0).Aux.AMM)
}

func TestParseTreeMalformed(t *testing.T) {
	cases := map[string]string{
		"breakdown exceeds amount": fmt.Sprintf(`{"rewards": {"%s": {"token": "%s", "holders": {"%s": {"amount": "10", "breakdown": {"a": "11"}}}}}}`,
			campaign1, tokenA, holderA),
		"bad amount": fmt.Sprintf(`{"rewards": {"%s": {"token": "%s", "holders": {"%s": {"amount": "1e18"}}}}}`,
			campaign1, tokenA, holderA),
		"negative amount": fmt.Sprintf(`{"rewards": {"%s": {"token": "%s", "holders": {"%s": {"amount": "-1"}}}}}`,
			campaign1, tokenA, holderA),
		"not json": `{"rewards": [`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTree([]byte(data))
			assert.ErrorIs(t, err, ErrMalformedSnapshot)
		})
	}
}

func TestParseTreeAmountAboveUint256(t *testing.T) {
	// 2^256 + 5 encodes to the same leaf as 5
	wrapped := "115792089237316195423570985008687907853269984665640564039457584007913129639941"
	cases := map[string]string{
		"amount": fmt.Sprintf(`{"rewards": {"%s": {"token": "%s", "holders": {"%s": {"amount": "%s"}}}}}`,
			campaign1, tokenA, holderA, wrapped),
		"breakdown": fmt.Sprintf(`{"rewards": {"%s": {"token": "%s", "holders": {"%s": {"amount": "%s", "breakdown": {"uniswap": "%s"}}}}}}`,
			campaign1, tokenA, holderA, wrapped, wrapped),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTree([]byte(data))
			assert.ErrorIs(t, err, ErrMalformedSnapshot)
			assert.ErrorIs(t, err, ErrInvalidLeafAmount)
		})
	}

	data := fmt.Sprintf(`{"rewards": {"%s": {"token": "%s", "holders": {"%s": {"amount": "%s"}}}}}`,
		campaign1, tokenA, holderA, MaxAmount)
	tree, err := ParseTree([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, MaxAmount.String(), tree.Leaf(0).Amount.String())
}

func TestParseTreeBadHolder(t *testing.T) {
	data := fmt.Sprintf(`{"rewards": {"%s": {"token": "%s", "holders": {"0xnothex": {"amount": "1"}}}}}`, campaign1, tokenA)
	_, err := ParseTree([]byte(data))
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

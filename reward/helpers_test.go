package reward

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	campaign1 = "0xc100000000000000000000000000000000000000000000000000000000000001"
	campaign2 = "0xc200000000000000000000000000000000000000000000000000000000000002"
	campaign3 = "0xc300000000000000000000000000000000000000000000000000000000000003"

	holderA = "0x1000000000000000000000000000000000000001"
	holderB = "0x2000000000000000000000000000000000000002"
	holderC = "0x3000000000000000000000000000000000000003"
	holderD = "0x4000000000000000000000000000000000000004"
	holderE = "0x5000000000000000000000000000000000000005"

	tokenA = "0xa0000000000000000000000000000000000000aa"
	tokenB = "0xb0000000000000000000000000000000000000bb"
)

func bi(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big int " + s)
	}
	return v
}

func mustLeaf(t testing.TB, campaign, recipient, reason, token, amount string) Leaf {
	t.Helper()
	l, err := NewLeaf(campaign, recipient, reason, token, bi(amount), 0, LeafAux{})
	require.NoError(t, err)
	return l
}

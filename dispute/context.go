package dispute

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
	"github.com/AngleProtocol/merkl-dispute-sub000/provider"
)

// Context is everything a run needs. It is built once per run and never
// mutated.
type Context struct {
	ChainID uint64
	// BlockNumber pins the run to a block; nil means latest.
	BlockNumber *uint64
	Distributor common.Address

	OnChain  provider.OnChainProvider
	Roots    provider.MerkleRootsProvider
	Signer   provider.SignerFactory
	Reporter Reporter

	Overrides types.TxOverrides
	DryRun    bool
}

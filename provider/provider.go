package provider

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	sdktypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
	"github.com/AngleProtocol/merkl-dispute-sub000/reward"
)

// PoolPlaceholder replaces a pool name that could not be resolved.
const PoolPlaceholder = "unknown pool"

var (
	ErrRootNotFound     = errors.New("root not published")
	ErrUnexpectedStatus = errors.New("unexpected http status")
)

// OnChainParams is the distributor state a run decides on. Roots are
// lowercase 0x hex.
type OnChainParams struct {
	DisputeToken       common.Address
	DisputeAmount      *big.Int
	DisputePeriod      uint64
	EndOfDisputePeriod uint64
	Disputer           common.Address
	StartRoot          string
	EndRoot            string
	CurrentRoot        string
}

// Stake is what a dispute costs and what the disputer holds of the dispute
// token. Required is the raw disputeAmount.
type Stake struct {
	Token     common.Address
	Required  *big.Int
	Balance   *big.Int
	Allowance *big.Int
}

// StakeReader is satisfied by ETHOnChainProvider.
type StakeReader interface {
	FetchStake(ctx context.Context, holder common.Address) (Stake, error)
}

// OnChainProvider reads the distributor and sends dispute transactions.
// A nil block reads the latest state.
type OnChainProvider interface {
	FetchLatestBlockNumber(ctx context.Context) (uint64, error)
	FetchOnChainParams(ctx context.Context, block *big.Int) (OnChainParams, error)
	FetchTimestampAt(ctx context.Context, block uint64) (uint64, error)
	FetchActiveDistributions(ctx context.Context, block *big.Int) ([]reward.CampaignInfo, error)
	FetchClaimed(ctx context.Context, details reward.HolderDetails) (reward.Claimed, error)
	FetchPoolName(ctx context.Context, pool, amm string) (string, error)
	SendApproveTxn(ctx context.Context, wallet types.ETHWallet, token common.Address, amount *big.Int, overrides types.TxOverrides) (*sdktypes.Receipt, error)
	SendDisputeTxn(ctx context.Context, wallet types.ETHWallet, reason string, overrides types.TxOverrides) (*sdktypes.Receipt, error)
}

// MerkleRootsProvider resolves published roots to epochs and serves the raw
// snapshot of an epoch.
type MerkleRootsProvider interface {
	FetchEpochFor(ctx context.Context, root string) (uint32, error)
	FetchTreeFor(ctx context.Context, epoch uint32) ([]byte, error)
}

type SignerFactory interface {
	CreateSigner(ctx context.Context) (types.ETHWallet, error)
}

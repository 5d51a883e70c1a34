package provider

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	sdktypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
	"github.com/AngleProtocol/merkl-dispute-sub000/logger"
	"github.com/AngleProtocol/merkl-dispute-sub000/reward"
	"github.com/AngleProtocol/merkl-dispute-sub000/utils"
)

type retryingOnChainProvider struct {
	inner  OnChainProvider
	policy utils.RetryPolicy
	logger logger.Logger
}

// NewRetryingOnChainProvider retries every call of inner under policy.
// FetchPoolName never fails: an exhausted lookup yields PoolPlaceholder.
func NewRetryingOnChainProvider(inner OnChainProvider, policy utils.RetryPolicy, log logger.Logger) OnChainProvider {
	return &retryingOnChainProvider{inner: inner, policy: policy, logger: log}
}

func retry[T any](ctx context.Context, r utils.RetryPolicy, log logger.Logger, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	attempt := 0
	return utils.Retry(ctx, r, func(ctx context.Context) (T, error) {
		attempt++
		v, err := fn(ctx)
		if err != nil {
			log.Warn("provider call failed",
				logger.WithField("op", op),
				logger.WithField("attempt", attempt),
				logger.WithError(err),
			)
		}
		return v, err
	})
}

func (r *retryingOnChainProvider) FetchLatestBlockNumber(ctx context.Context) (uint64, error) {
	return retry(ctx, r.policy, r.logger, "FetchLatestBlockNumber", r.inner.FetchLatestBlockNumber)
}

func (r *retryingOnChainProvider) FetchOnChainParams(ctx context.Context, block *big.Int) (OnChainParams, error) {
	return retry(ctx, r.policy, r.logger, "FetchOnChainParams", func(ctx context.Context) (OnChainParams, error) {
		return r.inner.FetchOnChainParams(ctx, block)
	})
}

func (r *retryingOnChainProvider) FetchTimestampAt(ctx context.Context, block uint64) (uint64, error) {
	return retry(ctx, r.policy, r.logger, "FetchTimestampAt", func(ctx context.Context) (uint64, error) {
		return r.inner.FetchTimestampAt(ctx, block)
	})
}

func (r *retryingOnChainProvider) FetchActiveDistributions(ctx context.Context, block *big.Int) ([]reward.CampaignInfo, error) {
	return retry(ctx, r.policy, r.logger, "FetchActiveDistributions", func(ctx context.Context) ([]reward.CampaignInfo, error) {
		return r.inner.FetchActiveDistributions(ctx, block)
	})
}

func (r *retryingOnChainProvider) FetchClaimed(ctx context.Context, details reward.HolderDetails) (reward.Claimed, error) {
	return retry(ctx, r.policy, r.logger, "FetchClaimed", func(ctx context.Context) (reward.Claimed, error) {
		return r.inner.FetchClaimed(ctx, details)
	})
}

func (r *retryingOnChainProvider) FetchPoolName(ctx context.Context, pool, amm string) (string, error) {
	name, err := retry(ctx, r.policy, r.logger, "FetchPoolName", func(ctx context.Context) (string, error) {
		return r.inner.FetchPoolName(ctx, pool, amm)
	})
	if err != nil {
		r.logger.Warn("pool name unavailable", logger.WithField("pool", pool), logger.WithError(err))
		return PoolPlaceholder, nil
	}
	return name, nil
}

func (r *retryingOnChainProvider) SendApproveTxn(ctx context.Context, wallet types.ETHWallet, token common.Address, amount *big.Int, overrides types.TxOverrides) (*sdktypes.Receipt, error) {
	return retry(ctx, r.policy, r.logger, "SendApproveTxn", func(ctx context.Context) (*sdktypes.Receipt, error) {
		return r.inner.SendApproveTxn(ctx, wallet, token, amount, overrides)
	})
}

func (r *retryingOnChainProvider) SendDisputeTxn(ctx context.Context, wallet types.ETHWallet, reason string, overrides types.TxOverrides) (*sdktypes.Receipt, error) {
	return retry(ctx, r.policy, r.logger, "SendDisputeTxn", func(ctx context.Context) (*sdktypes.Receipt, error) {
		return r.inner.SendDisputeTxn(ctx, wallet, reason, overrides)
	})
}

type retryingRootsProvider struct {
	inner  MerkleRootsProvider
	policy utils.RetryPolicy
	logger logger.Logger
}

func NewRetryingRootsProvider(inner MerkleRootsProvider, policy utils.RetryPolicy, log logger.Logger) MerkleRootsProvider {
	return &retryingRootsProvider{inner: inner, policy: policy, logger: log}
}

func (r *retryingRootsProvider) FetchEpochFor(ctx context.Context, root string) (uint32, error) {
	return retry(ctx, r.policy, r.logger, "FetchEpochFor", func(ctx context.Context) (uint32, error) {
		return r.inner.FetchEpochFor(ctx, root)
	})
}

func (r *retryingRootsProvider) FetchTreeFor(ctx context.Context, epoch uint32) ([]byte, error) {
	return retry(ctx, r.policy, r.logger, "FetchTreeFor", func(ctx context.Context) ([]byte, error) {
		return r.inner.FetchTreeFor(ctx, epoch)
	})
}

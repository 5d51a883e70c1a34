package provider

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	sdktypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	contractabi "github.com/AngleProtocol/merkl-dispute-sub000/chainio/abi"
	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/api"
	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/io"
	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
	"github.com/AngleProtocol/merkl-dispute-sub000/reward"
)

// DefaultClaimConcurrency bounds the claimed(user, token) reads in flight.
const DefaultClaimConcurrency = 8

var ammNames = map[string]string{
	"0": "UniswapV3",
	"1": "SushiSwapV3",
	"2": "Retro",
}

type ETHOnChainProvider struct {
	chainIO          io.ETHChainIO
	distributor      api.ETHDistributor
	creator          api.ETHDistributionCreator
	erc20ABI         *abi.ABI
	poolABI          *abi.ABI
	claimConcurrency int
}

var _ OnChainProvider = (*ETHOnChainProvider)(nil)

// NewETHOnChainProvider loads the contract ABIs from abiDir, or the bundled
// ones when abiDir is empty.
func NewETHOnChainProvider(chainIO io.ETHChainIO, distributorAddr, creatorAddr common.Address, abiDir string) (*ETHOnChainProvider, error) {
	load := func(name string) (*abi.ABI, error) {
		parsed, err := contractabi.GetContractABI(abiDir, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s abi: %w", name, err)
		}
		return parsed, nil
	}
	distributorABI, err := load(contractabi.Distributor)
	if err != nil {
		return nil, err
	}
	creatorABI, err := load(contractabi.DistributionCreator)
	if err != nil {
		return nil, err
	}
	erc20ABI, err := load(contractabi.ERC20)
	if err != nil {
		return nil, err
	}
	poolABI, err := load(contractabi.UniswapV3Pool)
	if err != nil {
		return nil, err
	}
	return &ETHOnChainProvider{
		chainIO:          chainIO,
		distributor:      api.NewETHDistributorImpl(chainIO, distributorAddr, distributorABI),
		creator:          api.NewETHDistributionCreatorImpl(chainIO, creatorAddr, creatorABI),
		erc20ABI:         erc20ABI,
		poolABI:          poolABI,
		claimConcurrency: DefaultClaimConcurrency,
	}, nil
}

func (p *ETHOnChainProvider) FetchLatestBlockNumber(ctx context.Context) (uint64, error) {
	return p.chainIO.GetLatestBlockNumber(ctx)
}

// FetchOnChainParams reads every dispute parameter at block in parallel and
// fails on the first error.
func (p *ETHOnChainProvider) FetchOnChainParams(ctx context.Context, block *big.Int) (OnChainParams, error) {
	var (
		params         OnChainParams
		tree, lastTree types.MerkleTree
		current        common.Hash
	)
	g, gctx := errgroup.WithContext(ctx)
	read := func(name string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	read("disputeToken", func() (err error) {
		params.DisputeToken, err = p.distributor.DisputeToken(gctx, block)
		return err
	})
	read("disputeAmount", func() (err error) {
		params.DisputeAmount, err = p.distributor.DisputeAmount(gctx, block)
		return err
	})
	read("disputePeriod", func() (err error) {
		params.DisputePeriod, err = p.distributor.DisputePeriod(gctx, block)
		return err
	})
	read("endOfDisputePeriod", func() (err error) {
		params.EndOfDisputePeriod, err = p.distributor.EndOfDisputePeriod(gctx, block)
		return err
	})
	read("disputer", func() (err error) {
		params.Disputer, err = p.distributor.Disputer(gctx, block)
		return err
	})
	read("tree", func() (err error) {
		tree, err = p.distributor.Tree(gctx, block)
		return err
	})
	read("lastTree", func() (err error) {
		lastTree, err = p.distributor.LastTree(gctx, block)
		return err
	})
	read("getMerkleRoot", func() (err error) {
		current, err = p.distributor.GetMerkleRoot(gctx, block)
		return err
	})
	if err := g.Wait(); err != nil {
		return OnChainParams{}, err
	}

	params.StartRoot = hexRoot(lastTree.MerkleRoot)
	params.EndRoot = hexRoot(tree.MerkleRoot)
	params.CurrentRoot = hexRoot(current)
	return params, nil
}

func (p *ETHOnChainProvider) FetchTimestampAt(ctx context.Context, block uint64) (uint64, error) {
	return p.chainIO.GetBlockTimestamp(ctx, new(big.Int).SetUint64(block))
}

func (p *ETHOnChainProvider) FetchActiveDistributions(ctx context.Context, block *big.Int) ([]reward.CampaignInfo, error) {
	distributions, err := p.creator.GetActiveDistributions(ctx, block)
	if err != nil {
		return nil, err
	}
	campaigns := make([]reward.CampaignInfo, 0, len(distributions))
	for _, d := range distributions {
		campaigns = append(campaigns, reward.CampaignInfo{
			CampaignID:    hexRoot(d.Base.RewardId),
			Pool:          strings.ToLower(d.Base.UniV3Pool.Hex()),
			AMM:           "0",
			RewardToken:   strings.ToLower(d.Base.RewardToken.Hex()),
			Budget:        new(big.Int).Set(d.Base.Amount),
			EpochStart:    d.Base.EpochStart,
			NumEpoch:      d.Base.NumEpoch,
			TokenDecimals: d.RewardTokenDecimals,
			TokenSymbol:   d.RewardTokenSymbol,
		})
	}
	return campaigns, nil
}

// FetchClaimed reads claimed(holder, token) for every pair of details.
func (p *ETHOnChainProvider) FetchClaimed(ctx context.Context, details reward.HolderDetails) (reward.Claimed, error) {
	pairs := details.Pairs()
	amounts := make([]*big.Int, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.claimConcurrency)
	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			claim, err := p.distributor.Claimed(gctx, common.HexToAddress(pair.Holder), common.HexToAddress(pair.Token))
			if err != nil {
				return fmt.Errorf("claimed %s %s: %w", pair.Holder, pair.Token, err)
			}
			amounts[i] = claim.Amount
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	claimed := make(reward.Claimed)
	for i, pair := range pairs {
		if amounts[i] == nil || amounts[i].Sign() == 0 {
			continue
		}
		claimed.Set(pair.Holder, pair.Token, amounts[i])
	}
	return claimed, nil
}

// FetchPoolName builds "<amm> <symbol0>-<symbol1>-<fee>%".
func (p *ETHOnChainProvider) FetchPoolName(ctx context.Context, pool, amm string) (string, error) {
	if !common.IsHexAddress(pool) {
		return "", fmt.Errorf("invalid pool address %q", pool)
	}
	poolAPI := api.NewETHUniswapV3PoolImpl(p.chainIO, common.HexToAddress(pool), p.poolABI)

	token0, err := poolAPI.Token0(ctx)
	if err != nil {
		return "", err
	}
	token1, err := poolAPI.Token1(ctx)
	if err != nil {
		return "", err
	}
	fee, err := poolAPI.Fee(ctx)
	if err != nil {
		return "", err
	}
	symbol0, err := api.NewETHERC20Impl(p.chainIO, token0, p.erc20ABI).Symbol(ctx)
	if err != nil {
		return "", err
	}
	symbol1, err := api.NewETHERC20Impl(p.chainIO, token1, p.erc20ABI).Symbol(ctx)
	if err != nil {
		return "", err
	}

	name, ok := ammNames[amm]
	if !ok {
		name = "AMM " + amm
	}
	// fee is expressed in hundredths of a bip
	return fmt.Sprintf("%s %s-%s-%s%%", name, symbol0, symbol1, decimal.NewFromBigInt(fee, -4).String()), nil
}

func (p *ETHOnChainProvider) SendApproveTxn(ctx context.Context, wallet types.ETHWallet, token common.Address, amount *big.Int, overrides types.TxOverrides) (*sdktypes.Receipt, error) {
	return api.NewETHERC20Impl(p.chainIO, token, p.erc20ABI).Approve(ctx, wallet, p.distributor.Address(), amount, overrides)
}

func (p *ETHOnChainProvider) SendDisputeTxn(ctx context.Context, wallet types.ETHWallet, reason string, overrides types.TxOverrides) (*sdktypes.Receipt, error) {
	return p.distributor.DisputeTree(ctx, wallet, reason, overrides)
}

// FetchStake reads the dispute stake requirement and what holder can put up
// against it at the latest block.
func (p *ETHOnChainProvider) FetchStake(ctx context.Context, holder common.Address) (Stake, error) {
	stake := Stake{Balance: new(big.Int), Allowance: new(big.Int)}
	token, err := p.distributor.DisputeToken(ctx, nil)
	if err != nil {
		return Stake{}, fmt.Errorf("disputeToken: %w", err)
	}
	stake.Token = token
	if stake.Required, err = p.distributor.DisputeAmount(ctx, nil); err != nil {
		return Stake{}, fmt.Errorf("disputeAmount: %w", err)
	}
	if token == (common.Address{}) {
		return stake, nil
	}

	erc20 := api.NewETHERC20Impl(p.chainIO, token, p.erc20ABI)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stake.Balance, err = erc20.BalanceOf(gctx, holder)
		return err
	})
	g.Go(func() (err error) {
		stake.Allowance, err = erc20.Allowance(gctx, holder, p.distributor.Address())
		return err
	})
	if err := g.Wait(); err != nil {
		return Stake{}, err
	}
	return stake, nil
}

func hexRoot(b [32]byte) string {
	return strings.ToLower(hexutil.Encode(b[:]))
}

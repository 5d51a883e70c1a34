package api

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	sdktypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/io"
	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
)

// ETHDistributor reads dispute state from the reward distributor. A nil block
// reads the latest state.
type ETHDistributor interface {
	Address() common.Address
	Tree(ctx context.Context, block *big.Int) (types.MerkleTree, error)
	LastTree(ctx context.Context, block *big.Int) (types.MerkleTree, error)
	GetMerkleRoot(ctx context.Context, block *big.Int) (common.Hash, error)
	DisputeToken(ctx context.Context, block *big.Int) (common.Address, error)
	DisputeAmount(ctx context.Context, block *big.Int) (*big.Int, error)
	DisputePeriod(ctx context.Context, block *big.Int) (uint64, error)
	EndOfDisputePeriod(ctx context.Context, block *big.Int) (uint64, error)
	Disputer(ctx context.Context, block *big.Int) (common.Address, error)
	Claimed(ctx context.Context, user, token common.Address) (types.Claim, error)

	DisputeTree(ctx context.Context, wallet types.ETHWallet, reason string, overrides types.TxOverrides) (*sdktypes.Receipt, error)
}

type ethDistributorImpl struct {
	io           io.ETHChainIO
	contractAddr common.Address
	contractABI  *abi.ABI
}

func (e *ethDistributorImpl) call(ctx context.Context, block *big.Int, method string, result interface{}, args ...interface{}) error {
	return e.io.CallContract(ctx, types.ETHCallOptions{
		ContractAddr: e.contractAddr,
		ContractABI:  e.contractABI,
		Method:       method,
		Args:         args,
		BlockNumber:  block,
	}, result)
}

func (e *ethDistributorImpl) Address() common.Address {
	return e.contractAddr
}

func (e *ethDistributorImpl) Tree(ctx context.Context, block *big.Int) (types.MerkleTree, error) {
	var tree types.MerkleTree
	if err := e.call(ctx, block, "tree", &tree); err != nil {
		return types.MerkleTree{}, err
	}
	return tree, nil
}

func (e *ethDistributorImpl) LastTree(ctx context.Context, block *big.Int) (types.MerkleTree, error) {
	var tree types.MerkleTree
	if err := e.call(ctx, block, "lastTree", &tree); err != nil {
		return types.MerkleTree{}, err
	}
	return tree, nil
}

func (e *ethDistributorImpl) GetMerkleRoot(ctx context.Context, block *big.Int) (common.Hash, error) {
	var root [32]byte
	if err := e.call(ctx, block, "getMerkleRoot", &root); err != nil {
		return common.Hash{}, err
	}
	return common.Hash(root), nil
}

func (e *ethDistributorImpl) DisputeToken(ctx context.Context, block *big.Int) (common.Address, error) {
	var addr common.Address
	if err := e.call(ctx, block, "disputeToken", &addr); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

func (e *ethDistributorImpl) DisputeAmount(ctx context.Context, block *big.Int) (*big.Int, error) {
	var amount *big.Int
	if err := e.call(ctx, block, "disputeAmount", &amount); err != nil {
		return nil, err
	}
	return amount, nil
}

func (e *ethDistributorImpl) DisputePeriod(ctx context.Context, block *big.Int) (uint64, error) {
	var period *big.Int
	if err := e.call(ctx, block, "disputePeriod", &period); err != nil {
		return 0, err
	}
	return period.Uint64(), nil
}

func (e *ethDistributorImpl) EndOfDisputePeriod(ctx context.Context, block *big.Int) (uint64, error) {
	var end *big.Int
	if err := e.call(ctx, block, "endOfDisputePeriod", &end); err != nil {
		return 0, err
	}
	return end.Uint64(), nil
}

func (e *ethDistributorImpl) Disputer(ctx context.Context, block *big.Int) (common.Address, error) {
	var addr common.Address
	if err := e.call(ctx, block, "disputer", &addr); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

func (e *ethDistributorImpl) Claimed(ctx context.Context, user, token common.Address) (types.Claim, error) {
	var claim types.Claim
	if err := e.call(ctx, nil, "claimed", &claim, user, token); err != nil {
		return types.Claim{}, err
	}
	return claim, nil
}

func (e *ethDistributorImpl) DisputeTree(ctx context.Context, wallet types.ETHWallet, reason string, overrides types.TxOverrides) (*sdktypes.Receipt, error) {
	return e.io.SendTransaction(ctx, types.ETHExecuteOptions{
		ETHWallet: wallet,
		ETHCallOptions: types.ETHCallOptions{
			ContractAddr: e.contractAddr,
			ContractABI:  e.contractABI,
			Method:       "disputeTree",
			Args:         []interface{}{reason},
		},
		Overrides: overrides,
	})
}

func NewETHDistributorImpl(chainIO io.ETHChainIO, contractAddr common.Address, contractABI *abi.ABI) ETHDistributor {
	return &ethDistributorImpl{
		io:           chainIO,
		contractABI:  contractABI,
		contractAddr: contractAddr,
	}
}

package api

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/io"
	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
)

type ETHDistributionCreator interface {
	GetActiveDistributions(ctx context.Context, block *big.Int) ([]types.ExtensiveDistributionParameters, error)
}

type ethDistributionCreatorImpl struct {
	io           io.ETHChainIO
	contractAddr common.Address
	contractABI  *abi.ABI
}

func (e *ethDistributionCreatorImpl) GetActiveDistributions(ctx context.Context, block *big.Int) ([]types.ExtensiveDistributionParameters, error) {
	var distributions []types.ExtensiveDistributionParameters
	if err := e.io.CallContract(ctx, types.ETHCallOptions{
		ContractAddr: e.contractAddr,
		ContractABI:  e.contractABI,
		Method:       "getActiveDistributions",
		Args:         []interface{}{},
		BlockNumber:  block,
	}, &distributions); err != nil {
		return nil, err
	}
	return distributions, nil
}

func NewETHDistributionCreatorImpl(chainIO io.ETHChainIO, contractAddr common.Address, contractABI *abi.ABI) ETHDistributionCreator {
	return &ethDistributionCreatorImpl{
		io:           chainIO,
		contractABI:  contractABI,
		contractAddr: contractAddr,
	}
}

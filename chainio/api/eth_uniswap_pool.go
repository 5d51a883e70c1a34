package api

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/io"
	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
)

type ETHUniswapV3Pool interface {
	Token0(ctx context.Context) (common.Address, error)
	Token1(ctx context.Context) (common.Address, error)
	Fee(ctx context.Context) (*big.Int, error)
}

type ethUniswapV3PoolImpl struct {
	io           io.ETHChainIO
	contractAddr common.Address
	contractABI  *abi.ABI
}

func (e *ethUniswapV3PoolImpl) call(ctx context.Context, method string, result interface{}) error {
	return e.io.CallContract(ctx, types.ETHCallOptions{
		ContractAddr: e.contractAddr,
		ContractABI:  e.contractABI,
		Method:       method,
		Args:         []interface{}{},
	}, result)
}

func (e *ethUniswapV3PoolImpl) Token0(ctx context.Context) (common.Address, error) {
	var addr common.Address
	if err := e.call(ctx, "token0", &addr); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

func (e *ethUniswapV3PoolImpl) Token1(ctx context.Context) (common.Address, error) {
	var addr common.Address
	if err := e.call(ctx, "token1", &addr); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

func (e *ethUniswapV3PoolImpl) Fee(ctx context.Context) (*big.Int, error) {
	var fee *big.Int
	if err := e.call(ctx, "fee", &fee); err != nil {
		return nil, err
	}
	return fee, nil
}

func NewETHUniswapV3PoolImpl(chainIO io.ETHChainIO, contractAddr common.Address, contractABI *abi.ABI) ETHUniswapV3Pool {
	return &ethUniswapV3PoolImpl{
		io:           chainIO,
		contractABI:  contractABI,
		contractAddr: contractAddr,
	}
}

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

type ETHERC20 interface {
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	Symbol(ctx context.Context) (string, error)

	Approve(ctx context.Context, wallet types.ETHWallet, spender common.Address, amount *big.Int, overrides types.TxOverrides) (*sdktypes.Receipt, error)
}

type ethERC20Impl struct {
	io           io.ETHChainIO
	contractAddr common.Address
	contractABI  *abi.ABI
}

func (e *ethERC20Impl) call(ctx context.Context, method string, result interface{}, args ...interface{}) error {
	return e.io.CallContract(ctx, types.ETHCallOptions{
		ContractAddr: e.contractAddr,
		ContractABI:  e.contractABI,
		Method:       method,
		Args:         args,
	}, result)
}

func (e *ethERC20Impl) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	var allowance *big.Int
	if err := e.call(ctx, "allowance", &allowance, owner, spender); err != nil {
		return nil, err
	}
	return allowance, nil
}

func (e *ethERC20Impl) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	var balance *big.Int
	if err := e.call(ctx, "balanceOf", &balance, account); err != nil {
		return nil, err
	}
	return balance, nil
}

func (e *ethERC20Impl) Symbol(ctx context.Context) (string, error) {
	var symbol string
	if err := e.call(ctx, "symbol", &symbol); err != nil {
		return "", err
	}
	return symbol, nil
}

func (e *ethERC20Impl) Approve(ctx context.Context, wallet types.ETHWallet, spender common.Address, amount *big.Int, overrides types.TxOverrides) (*sdktypes.Receipt, error) {
	return e.io.SendTransaction(ctx, types.ETHExecuteOptions{
		ETHWallet: wallet,
		ETHCallOptions: types.ETHCallOptions{
			ContractAddr: e.contractAddr,
			ContractABI:  e.contractABI,
			Method:       "approve",
			Args:         []interface{}{spender, amount},
		},
		Overrides: overrides,
	})
}

func NewETHERC20Impl(chainIO io.ETHChainIO, contractAddr common.Address, contractABI *abi.ABI) ETHERC20 {
	return &ethERC20Impl{
		io:           chainIO,
		contractABI:  contractABI,
		contractAddr: contractAddr,
	}
}

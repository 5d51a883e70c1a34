package signer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	sdktypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
)

// Backend is the part of ethclient.Client needed to build transactions.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*sdktypes.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

type ETHSigner struct {
	client  Backend
	chainID *big.Int
}

func NewETHSigner(client Backend, chainID *big.Int) *ETHSigner {
	return &ETHSigner{client: client, chainID: chainID}
}

func (e *ETHSigner) BuildAndSignTx(
	ctx context.Context,
	signerFn bind.SignerFn,
	fromAddr common.Address,
	contractAddr common.Address,
	params types.TxManagerParams,
	overrides types.TxOverrides,
	input []byte,
) (*sdktypes.Transaction, error) {
	unsignedTx, err := e.BuildUnsignedTx(ctx, fromAddr, contractAddr, params, overrides, input)
	if err != nil {
		return nil, err
	}

	signedTx, err := signerFn(fromAddr, unsignedTx)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signedTx, nil
}

func (e *ETHSigner) BuildUnsignedTx(
	ctx context.Context,
	fromAddr common.Address,
	contractAddr common.Address,
	params types.TxManagerParams,
	overrides types.TxOverrides,
	input []byte,
) (*sdktypes.Transaction, error) {
	nonce, err := e.client.PendingNonceAt(ctx, fromAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasTipCap, gasFeeCap := overrides.GasTipCap, overrides.GasFeeCap
	if gasTipCap == nil || gasFeeCap == nil {
		suggestedTip, suggestedFee, err := e.SuggestGasFees(ctx, params.ETHGasFeeCapAdjustmentRate)
		if err != nil {
			return nil, fmt.Errorf("failed to suggest gas fees: %w", err)
		}
		if gasTipCap == nil {
			gasTipCap = suggestedTip
		}
		if gasFeeCap == nil {
			gasFeeCap = suggestedFee
		}
	}

	gas := overrides.GasLimit
	if gas == 0 {
		estimateGasLimit, err := e.client.EstimateGas(ctx, ethereum.CallMsg{
			From:      fromAddr,
			To:        &contractAddr,
			GasFeeCap: gasFeeCap,
			GasTipCap: gasTipCap,
			Data:      input,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to estimate gas: %w", err)
		}

		gas = uint64(float64(estimateGasLimit) * params.ETHGasLimitAdjustmentRate)
		if params.GasLimit > 0 && gas > params.GasLimit {
			return nil, fmt.Errorf("failed to estimate gas limit (%d > %d)", gas, params.GasLimit)
		}
	}

	tx := sdktypes.NewTx(&sdktypes.DynamicFeeTx{
		ChainID:   e.chainID,
		Nonce:     nonce,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Gas:       gas,
		To:        &contractAddr,
		Data:      input,
	})
	return tx, nil
}

// SuggestGasFees
// gasTipCap  The user is willing to pay additional fees to the miner, in units of wei/gas
// gasFeeCap  The maximum fee per unit of gas that users are willing to pay for a transaction, also in units of wei/gas
func (e *ETHSigner) SuggestGasFees(ctx context.Context, gasFeeCapAdjustmentRate int64) (gasTipCap, gasFeeCap *big.Int, err error) {
	gasTipCap, err = e.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to suggest gas tip cap: %w", err)
	}

	// get base fee
	head, err := e.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get header: %w", err)
	}
	baseFee := head.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}

	// gasFeeCap = baseFee * rate + gasTipCap
	gasFeeCap = new(big.Int).Mul(baseFee, big.NewInt(gasFeeCapAdjustmentRate))
	gasFeeCap.Add(gasFeeCap, gasTipCap)

	return gasTipCap, gasFeeCap, nil
}

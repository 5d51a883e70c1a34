package io

import (
	"context"
	"fmt"
	"math/big"
	"reflect"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	sdktypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"

	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
	"github.com/AngleProtocol/merkl-dispute-sub000/logger"
	rpccalls "github.com/AngleProtocol/merkl-dispute-sub000/metrics/indicators/rpc_calls"
	transactionprocess "github.com/AngleProtocol/merkl-dispute-sub000/metrics/indicators/transaction_process"
	"github.com/AngleProtocol/merkl-dispute-sub000/signer"
)

type ETHChainIO interface {
	SendTransaction(ctx context.Context, params types.ETHExecuteOptions) (*sdktypes.Receipt, error)
	ExecuteContract(ctx context.Context, params types.ETHExecuteOptions) (*sdktypes.Transaction, error)
	CallContract(ctx context.Context, params types.ETHCallOptions, result interface{}) error
	GetLatestBlockNumber(ctx context.Context) (uint64, error)
	GetBlockTimestamp(ctx context.Context, blockNumber *big.Int) (uint64, error)
	GetChainID(ctx context.Context) (*big.Int, error)
	Close()
}

type ethChainIO struct {
	client        *ethclient.Client
	signer        *signer.ETHSigner
	logger        logger.Logger
	txIndicators  transactionprocess.Indicators
	rpcIndicators rpccalls.Indicators
	limiter       *rate.Limiter
	params        types.TxManagerParams
	keys          *Keystore
	chainID       *big.Int
}

// NewETHChainIO dials endpoint and signs transactions with keys. Every
// json-rpc request waits on limiter; a nil limiter does not throttle.
func NewETHChainIO(
	endpoint string,
	keys *Keystore,
	logger logger.Logger,
	txIndicators transactionprocess.Indicators,
	rpcIndicators rpccalls.Indicators,
	limiter *rate.Limiter,
	params types.TxManagerParams,
) (ETHChainIO, error) {
	client, err := ethclient.Dial(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum node: %w", err)
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	e := &ethChainIO{
		client:        client,
		logger:        logger,
		txIndicators:  txIndicators,
		rpcIndicators: rpcIndicators,
		limiter:       limiter,
		params:        params,
		keys:          keys,
	}
	chainID, err := e.GetChainID(context.Background())
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to retrieve chain ID: %w", err)
	}
	e.chainID = chainID
	e.signer = signer.NewETHSigner(client, chainID)
	return e, nil
}

// observe waits for the rate limiter and returns a func recording the call.
func (e *ethChainIO) observe(ctx context.Context, method string) (func(error), error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	return func(err error) {
		status := "ok"
		if err != nil {
			status = "error"
		}
		e.rpcIndicators.AddRPCRequestTotal(method, status)
		e.rpcIndicators.ObserveRPCRequestDurationSeconds(time.Since(start).Seconds(), method, status)
	}, nil
}

// SendTransaction broadcasts once and waits for the receipt. Retrying is left
// to the caller so that a stage is never sent twice behind its back.
func (e *ethChainIO) SendTransaction(ctx context.Context, params types.ETHExecuteOptions) (*sdktypes.Receipt, error) {
	e.txIndicators.IncrementInFlight()
	defer e.txIndicators.DecrementInFlight()

	startTime := time.Now()
	txResp, err := e.ExecuteContract(ctx, params)
	if err != nil {
		e.logger.Warn("Failed to send transaction", logger.WithField("method", params.Method), logger.WithError(err))
		e.txIndicators.IncrementProcessedTxsTotal(params.Method, "failure")
		return nil, err
	}
	e.txIndicators.ObserveBroadcastSeconds(params.Method, time.Since(startTime).Seconds())
	e.logger.Info("Transaction sent", logger.WithField("method", params.Method), logger.WithField("hash", txResp.Hash().Hex()))

	receipt, err := e.waitForConfirmation(ctx, txResp.Hash())
	if err != nil {
		e.txIndicators.IncrementProcessedTxsTotal(params.Method, "failure")
		return nil, err
	}
	if receipt.Status != sdktypes.ReceiptStatusSuccessful {
		e.txIndicators.IncrementProcessedTxsTotal(params.Method, "failure")
		return receipt, fmt.Errorf("transaction %s reverted", receipt.TxHash.Hex())
	}

	e.txIndicators.ObserveConfirmationSeconds(params.Method, time.Since(startTime).Seconds())
	e.txIndicators.ObserveGasUsed(params.Method, receipt.GasUsed)
	e.txIndicators.IncrementProcessedTxsTotal(params.Method, "success")
	return receipt, nil
}

func (e *ethChainIO) waitForConfirmation(ctx context.Context, hash common.Hash) (*sdktypes.Receipt, error) {
	queryTicker := time.NewTicker(time.Second)
	defer queryTicker.Stop()

	timeout := time.After(e.params.ConfirmationTimeout)

	for {
		done, err := e.observe(ctx, "eth_getTransactionReceipt")
		if err != nil {
			return nil, err
		}
		receipt, err := e.client.TransactionReceipt(ctx, hash)
		done(err)
		if err == nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, fmt.Errorf("transaction confirmation timed out")
		case <-queryTicker.C:
			continue
		}
	}
}

func (e *ethChainIO) ExecuteContract(ctx context.Context, params types.ETHExecuteOptions) (*sdktypes.Transaction, error) {
	if params.ContractAddr == (common.Address{}) {
		return nil, fmt.Errorf("contract address cannot be zero address")
	}

	if _, exists := params.ContractABI.Methods[params.Method]; !exists {
		return nil, fmt.Errorf("method %s not found in ABI", params.Method)
	}

	input, err := params.ContractABI.Pack(params.Method, params.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack input: %w", err)
	}

	auth, err := e.keys.transactor(params.FromAddr, params.PWD, e.chainID)
	if err != nil {
		return nil, err
	}
	signedTx, err := e.signer.BuildAndSignTx(ctx, auth.Signer, params.FromAddr, params.ContractAddr, e.params, params.Overrides, input)
	if err != nil {
		return nil, err
	}

	done, err := e.observe(ctx, "eth_sendRawTransaction")
	if err != nil {
		return nil, err
	}
	err = e.client.SendTransaction(ctx, signedTx)
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	return signedTx, nil
}

func (e *ethChainIO) CallContract(ctx context.Context, params types.ETHCallOptions, result interface{}) error {
	rv := reflect.ValueOf(result)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("result must be a non-nil pointer")
	}

	input, err := params.ContractABI.Pack(params.Method, params.Args...)
	if err != nil {
		return fmt.Errorf("failed to pack input: %w", err)
	}
	msg := ethereum.CallMsg{
		To:   &params.ContractAddr,
		Data: input,
	}

	done, err := e.observe(ctx, "eth_call")
	if err != nil {
		return err
	}
	output, err := e.client.CallContract(ctx, msg, params.BlockNumber)
	done(err)
	if err != nil {
		return fmt.Errorf("failed to call contract %s: %w", params.Method, err)
	}

	return params.ContractABI.UnpackIntoInterface(result, params.Method, output)
}

func (e *ethChainIO) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	done, err := e.observe(ctx, "eth_blockNumber")
	if err != nil {
		return 0, err
	}
	n, err := e.client.BlockNumber(ctx)
	done(err)
	return n, err
}

func (e *ethChainIO) GetBlockTimestamp(ctx context.Context, blockNumber *big.Int) (uint64, error) {
	done, err := e.observe(ctx, "eth_getBlockByNumber")
	if err != nil {
		return 0, err
	}
	header, err := e.client.HeaderByNumber(ctx, blockNumber)
	done(err)
	if err != nil {
		return 0, fmt.Errorf("failed to get header: %w", err)
	}
	return header.Time, nil
}

func (e *ethChainIO) GetChainID(ctx context.Context) (*big.Int, error) {
	done, err := e.observe(ctx, "eth_chainId")
	if err != nil {
		return nil, err
	}
	id, err := e.client.ChainID(ctx)
	done(err)
	return id, err
}

func (e *ethChainIO) Close() {
	e.client.Close()
	e.signer = nil
	e.keys = nil
}

package io_test

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	sdktypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	contractabi "github.com/AngleProtocol/merkl-dispute-sub000/chainio/abi"
	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/io"
	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/rpctest"
	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
	"github.com/AngleProtocol/merkl-dispute-sub000/logger"
	rpccalls "github.com/AngleProtocol/merkl-dispute-sub000/metrics/indicators/rpc_calls"
	transactionprocess "github.com/AngleProtocol/merkl-dispute-sub000/metrics/indicators/transaction_process"
)

var tokenAddr = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")

type ETHChainIOTestSuite struct {
	suite.Suite
	server  *rpctest.Server
	reg     *prometheus.Registry
	keys    *io.Keystore
	chainIO io.ETHChainIO
}

func (suite *ETHChainIOTestSuite) SetupTest() {
	suite.server = rpctest.NewServer()
	suite.server.SetChainID(137)
	suite.reg = prometheus.NewRegistry()
	suite.keys = io.OpenKeystore(suite.T().TempDir())

	chainIO, err := io.NewETHChainIO(
		suite.server.URL,
		suite.keys,
		logger.NewMockELKLogger(),
		transactionprocess.NewPromIndicators("localbot", suite.reg),
		rpccalls.NewPromIndicators("localbot", suite.reg),
		nil,
		types.TxManagerParams{
			ConfirmationTimeout:        5 * time.Second,
			ETHGasFeeCapAdjustmentRate: 2,
			ETHGasLimitAdjustmentRate:  1.2,
			GasLimit:                   1_000_000,
		},
	)
	require.NoError(suite.T(), err)
	suite.chainIO = chainIO
}

func (suite *ETHChainIOTestSuite) TearDownTest() {
	suite.chainIO.Close()
	suite.server.Close()
}

func (suite *ETHChainIOTestSuite) Test_GetChainID() {
	id, err := suite.chainIO.GetChainID(context.Background())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(137), id.Int64())
}

func (suite *ETHChainIOTestSuite) Test_CallContractAtBlock() {
	erc20, err := contractabi.GetContractABI("", contractabi.ERC20)
	require.NoError(suite.T(), err)
	suite.server.Returns(tokenAddr, erc20, "decimals", uint8(6))

	var decimals uint8
	err = suite.chainIO.CallContract(context.Background(), types.ETHCallOptions{
		ContractAddr: tokenAddr,
		ContractABI:  erc20,
		Method:       "decimals",
		BlockNumber:  big.NewInt(100),
	}, &decimals)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), uint8(6), decimals)
	assert.Equal(suite.T(), []string{rpctest.BlockTag(100)}, suite.server.CallBlocks())

	series, err := testutil.GatherAndCount(suite.reg, "merkl_dispute_rpc_request_total")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, series)
}

func (suite *ETHChainIOTestSuite) Test_CallContractRejectsNonPointer() {
	erc20, err := contractabi.GetContractABI("", contractabi.ERC20)
	require.NoError(suite.T(), err)

	var decimals uint8
	err = suite.chainIO.CallContract(context.Background(), types.ETHCallOptions{
		ContractAddr: tokenAddr,
		ContractABI:  erc20,
		Method:       "decimals",
	}, decimals)
	assert.ErrorContains(suite.T(), err, "non-nil pointer")
}

func (suite *ETHChainIOTestSuite) Test_GetBlockTimestamp() {
	suite.server.SetBlock(100, 1_690_000_123)
	ts, err := suite.chainIO.GetBlockTimestamp(context.Background(), big.NewInt(100))
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), uint64(1_690_000_123), ts)

	n, err := suite.chainIO.GetLatestBlockNumber(context.Background())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), uint64(100), n)
}

func (suite *ETHChainIOTestSuite) importWallet() types.ETHWallet {
	key, err := crypto.GenerateKey()
	require.NoError(suite.T(), err)
	account, err := suite.keys.ImportKey(hex.EncodeToString(crypto.FromECDSA(key)), "secret")
	require.NoError(suite.T(), err)
	return types.ETHWallet{FromAddr: account.Address, PWD: "secret"}
}

func (suite *ETHChainIOTestSuite) Test_SendTransaction() {
	wallet := suite.importWallet()
	erc20, err := contractabi.GetContractABI("", contractabi.ERC20)
	require.NoError(suite.T(), err)

	receipt, err := suite.chainIO.SendTransaction(context.Background(), types.ETHExecuteOptions{
		ETHWallet: wallet,
		ETHCallOptions: types.ETHCallOptions{
			ContractAddr: tokenAddr,
			ContractABI:  erc20,
			Method:       "approve",
			Args:         []interface{}{common.HexToAddress("0x01"), big.NewInt(1000)},
		},
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), sdktypes.ReceiptStatusSuccessful, receipt.Status)

	sent := suite.server.Sent()
	require.Len(suite.T(), sent, 1)
	sender, err := sdktypes.Sender(sdktypes.LatestSignerForChainID(big.NewInt(137)), sent[0])
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), wallet.FromAddr, sender)
	assert.Equal(suite.T(), uint64(60_000), sent[0].Gas())
}

func (suite *ETHChainIOTestSuite) Test_SendTransactionReverted() {
	wallet := suite.importWallet()
	suite.server.SetReceiptStatus(sdktypes.ReceiptStatusFailed)
	erc20, err := contractabi.GetContractABI("", contractabi.ERC20)
	require.NoError(suite.T(), err)

	_, err = suite.chainIO.SendTransaction(context.Background(), types.ETHExecuteOptions{
		ETHWallet: wallet,
		ETHCallOptions: types.ETHCallOptions{
			ContractAddr: tokenAddr,
			ContractABI:  erc20,
			Method:       "approve",
			Args:         []interface{}{common.HexToAddress("0x01"), big.NewInt(1000)},
		},
	})
	assert.ErrorContains(suite.T(), err, "reverted")
}

func (suite *ETHChainIOTestSuite) Test_SendTransactionUnknownSigner() {
	erc20, err := contractabi.GetContractABI("", contractabi.ERC20)
	require.NoError(suite.T(), err)

	_, err = suite.chainIO.SendTransaction(context.Background(), types.ETHExecuteOptions{
		ETHWallet: types.ETHWallet{FromAddr: common.HexToAddress("0x02"), PWD: "x"},
		ETHCallOptions: types.ETHCallOptions{
			ContractAddr: tokenAddr,
			ContractABI:  erc20,
			Method:       "approve",
			Args:         []interface{}{common.HexToAddress("0x01"), big.NewInt(1000)},
		},
	})
	assert.ErrorContains(suite.T(), err, "account not found")
	assert.Empty(suite.T(), suite.server.Sent())
}

func TestETHChainIOTestSuite(t *testing.T) {
	suite.Run(t, new(ETHChainIOTestSuite))
}

package api_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	contractabi "github.com/AngleProtocol/merkl-dispute-sub000/chainio/abi"
	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/api"
	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/io"
	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/rpctest"
	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
	"github.com/AngleProtocol/merkl-dispute-sub000/logger"
	rpccalls "github.com/AngleProtocol/merkl-dispute-sub000/metrics/indicators/rpc_calls"
	transactionprocess "github.com/AngleProtocol/merkl-dispute-sub000/metrics/indicators/transaction_process"
)

var (
	distributorAddr = common.HexToAddress("0x3Ef3D8bA38EBe18DB133cEc108f4D14CE00Dd9Ae")
	creatorAddr     = common.HexToAddress("0x8BB4C975Ff3c250e0ceEA271728547f3802B36Fd")
	poolAddr        = common.HexToAddress("0x8DB1b906d47dFc1D84A87fc49bd0522e285b98b9")
	agEUR           = common.HexToAddress("0x1a7e4e63778B4f12a199C062f3eFdD288afCBce8")
)

type ETHAPITestSuite struct {
	suite.Suite
	server  *rpctest.Server
	chainIO io.ETHChainIO
}

func (suite *ETHAPITestSuite) SetupTest() {
	suite.server = rpctest.NewServer()
	reg := prometheus.NewRegistry()
	chainIO, err := io.NewETHChainIO(
		suite.server.URL,
		io.OpenKeystore(suite.T().TempDir()),
		logger.NewMockELKLogger(),
		transactionprocess.NewPromIndicators("localbot", reg),
		rpccalls.NewPromIndicators("localbot", reg),
		nil,
		types.TxManagerParams{ConfirmationTimeout: time.Second, ETHGasFeeCapAdjustmentRate: 2, ETHGasLimitAdjustmentRate: 1},
	)
	require.NoError(suite.T(), err)
	suite.chainIO = chainIO
}

func (suite *ETHAPITestSuite) TearDownTest() {
	suite.chainIO.Close()
	suite.server.Close()
}

func (suite *ETHAPITestSuite) Test_Distributor() {
	distributorABI, err := contractabi.GetContractABI("", contractabi.Distributor)
	require.NoError(suite.T(), err)

	root := [32]byte{0xab, 0xcd}
	last := [32]byte{0x01}
	suite.server.Returns(distributorAddr, distributorABI, "tree", root, [32]byte{})
	suite.server.Returns(distributorAddr, distributorABI, "lastTree", last, [32]byte{0x02})
	suite.server.Returns(distributorAddr, distributorABI, "getMerkleRoot", root)
	suite.server.Returns(distributorAddr, distributorABI, "disputeToken", agEUR)
	suite.server.Returns(distributorAddr, distributorABI, "disputeAmount", big.NewInt(100))
	suite.server.Returns(distributorAddr, distributorABI, "disputePeriod", big.NewInt(2))
	suite.server.Returns(distributorAddr, distributorABI, "endOfDisputePeriod", big.NewInt(1_700_003_600))
	suite.server.Returns(distributorAddr, distributorABI, "disputer", common.Address{})

	distributor := api.NewETHDistributorImpl(suite.chainIO, distributorAddr, distributorABI)
	ctx := context.Background()
	block := big.NewInt(100)

	tree, err := distributor.Tree(ctx, block)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), root, tree.MerkleRoot)

	lastTree, err := distributor.LastTree(ctx, block)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), last, lastTree.MerkleRoot)
	assert.Equal(suite.T(), [32]byte{0x02}, lastTree.IpfsHash)

	current, err := distributor.GetMerkleRoot(ctx, block)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), common.Hash(root), current)

	token, err := distributor.DisputeToken(ctx, block)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), agEUR, token)

	amount, err := distributor.DisputeAmount(ctx, block)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(100), amount.Int64())

	period, err := distributor.DisputePeriod(ctx, block)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), uint64(2), period)

	end, err := distributor.EndOfDisputePeriod(ctx, block)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), uint64(1_700_003_600), end)

	disputer, err := distributor.Disputer(ctx, block)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), common.Address{}, disputer)

	for _, tag := range suite.server.CallBlocks() {
		assert.Equal(suite.T(), rpctest.BlockTag(100), tag)
	}
}

func (suite *ETHAPITestSuite) Test_Claimed() {
	distributorABI, err := contractabi.GetContractABI("", contractabi.Distributor)
	require.NoError(suite.T(), err)

	holder := common.HexToAddress("0x1000000000000000000000000000000000000001")
	suite.server.Handle(distributorAddr, distributorABI, "claimed", func(args []interface{}) ([]interface{}, error) {
		amount := big.NewInt(0)
		if args[0].(common.Address) == holder && args[1].(common.Address) == agEUR {
			amount, _ = new(big.Int).SetString("1001000000000000000000", 10)
		}
		return []interface{}{amount, big.NewInt(1_700_000_000), [32]byte{0x0f}}, nil
	})

	distributor := api.NewETHDistributorImpl(suite.chainIO, distributorAddr, distributorABI)
	claim, err := distributor.Claimed(context.Background(), holder, agEUR)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "1001000000000000000000", claim.Amount.String())
	assert.Equal(suite.T(), int64(1_700_000_000), claim.Timestamp.Int64())

	claim, err = distributor.Claimed(context.Background(), agEUR, agEUR)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), claim.Amount.Sign())
}

func (suite *ETHAPITestSuite) Test_GetActiveDistributions() {
	creatorABI, err := contractabi.GetContractABI("", contractabi.DistributionCreator)
	require.NoError(suite.T(), err)

	distribution := types.ExtensiveDistributionParameters{
		Base: types.DistributionParameters{
			RewardId:         [32]byte{0xc1},
			UniV3Pool:        poolAddr,
			RewardToken:      agEUR,
			Amount:           big.NewInt(900),
			PositionWrappers: []common.Address{},
			WrapperTypes:     []uint32{},
			PropToken0:       4000,
			PropToken1:       4000,
			PropFees:         2000,
			EpochStart:       1_699_999_200,
			NumEpoch:         24,
			AdditionalData:   []byte{},
		},
		PoolFee:             big.NewInt(500),
		Token0:              types.UniswapTokenData{Add: agEUR, Decimals: 18, Symbol: "agEUR", PoolBalance: big.NewInt(1)},
		Token1:              types.UniswapTokenData{Add: poolAddr, Decimals: 6, Symbol: "USDC", PoolBalance: big.NewInt(2)},
		RewardTokenSymbol:   "agEUR",
		RewardTokenDecimals: 18,
	}
	suite.server.Returns(creatorAddr, creatorABI, "getActiveDistributions", []types.ExtensiveDistributionParameters{distribution})

	creator := api.NewETHDistributionCreatorImpl(suite.chainIO, creatorAddr, creatorABI)
	got, err := creator.GetActiveDistributions(context.Background(), nil)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), got, 1)

	assert.Equal(suite.T(), distribution.Base.RewardId, got[0].Base.RewardId)
	assert.Equal(suite.T(), "900", got[0].Base.Amount.String())
	assert.Equal(suite.T(), uint32(24), got[0].Base.NumEpoch)
	assert.Equal(suite.T(), "USDC", got[0].Token1.Symbol)
	assert.Equal(suite.T(), uint8(18), got[0].RewardTokenDecimals)
	assert.Equal(suite.T(), int64(500), got[0].PoolFee.Int64())
}

func (suite *ETHAPITestSuite) Test_ERC20AndPool() {
	erc20ABI, err := contractabi.GetContractABI("", contractabi.ERC20)
	require.NoError(suite.T(), err)
	poolABI, err := contractabi.GetContractABI("", contractabi.UniswapV3Pool)
	require.NoError(suite.T(), err)

	suite.server.Returns(agEUR, erc20ABI, "symbol", "agEUR")
	suite.server.Returns(agEUR, erc20ABI, "allowance", big.NewInt(5))
	suite.server.Returns(poolAddr, poolABI, "token0", agEUR)
	suite.server.Returns(poolAddr, poolABI, "fee", big.NewInt(100))

	token := api.NewETHERC20Impl(suite.chainIO, agEUR, erc20ABI)
	symbol, err := token.Symbol(context.Background())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "agEUR", symbol)

	allowance, err := token.Allowance(context.Background(), common.Address{1}, distributorAddr)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(5), allowance.Int64())

	pool := api.NewETHUniswapV3PoolImpl(suite.chainIO, poolAddr, poolABI)
	token0, err := pool.Token0(context.Background())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), agEUR, token0)

	fee, err := pool.Fee(context.Background())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(100), fee.Int64())

	_, err = pool.Token1(context.Background())
	assert.Error(suite.T(), err)
}

func TestETHAPITestSuite(t *testing.T) {
	suite.Run(t, new(ETHAPITestSuite))
}

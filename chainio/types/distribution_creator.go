package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type DistributionParameters struct {
	RewardId                 [32]byte
	UniV3Pool                common.Address
	RewardToken              common.Address
	Amount                   *big.Int
	PositionWrappers         []common.Address
	WrapperTypes             []uint32
	PropToken0               uint32
	PropToken1               uint32
	PropFees                 uint32
	EpochStart               uint32
	NumEpoch                 uint32
	IsOutOfRangeIncentivized uint32
	BoostedReward            uint32
	BoostingAddress          common.Address
	AdditionalData           []byte
}

type UniswapTokenData struct {
	Add         common.Address
	Decimals    uint8
	Symbol      string
	PoolBalance *big.Int
}

// ExtensiveDistributionParameters is one entry of getActiveDistributions.
type ExtensiveDistributionParameters struct {
	Base                DistributionParameters
	PoolFee             *big.Int
	Token0              UniswapTokenData
	Token1              UniswapTokenData
	RewardTokenSymbol   string
	RewardTokenDecimals uint8
}

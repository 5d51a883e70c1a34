package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ETHWallet is a keystore account and the passphrase unlocking it.
type ETHWallet struct {
	FromAddr common.Address
	PWD      string
}

type ETHCallOptions struct {
	ContractAddr common.Address
	ContractABI  *abi.ABI
	Method       string
	Args         []interface{}
	// BlockNumber pins the call; nil reads the latest state.
	BlockNumber *big.Int
}

type ETHExecuteOptions struct {
	ETHWallet
	ETHCallOptions
	Overrides TxOverrides
}

// TxOverrides replaces the estimated values when set.
type TxOverrides struct {
	GasLimit  uint64
	GasFeeCap *big.Int
	GasTipCap *big.Int
}

type TxManagerParams struct {
	ConfirmationTimeout        time.Duration
	ETHGasFeeCapAdjustmentRate int64
	ETHGasLimitAdjustmentRate  float64
	GasLimit                   uint64
}

package reward

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of decimals kept in human readable amounts.
const DisplayPlaces = 4

// FormatAmount renders base units as a token amount rounded to DisplayPlaces.
// Only used for reports; violation checks never see the rounded value.
func FormatAmount(amount *big.Int, decimals uint8) string {
	if amount == nil {
		amount = new(big.Int)
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).StringFixed(DisplayPlaces)
}

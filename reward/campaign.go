package reward

import (
	"math/big"
	"strings"
)

// CampaignInfo is what the creator contract reports for an active campaign.
// It is consumed as is and never mutated.
type CampaignInfo struct {
	CampaignID    string
	Pool          string
	AMM           string
	RewardToken   string
	Budget        *big.Int
	EpochStart    uint32
	NumEpoch      uint32
	TokenDecimals uint8
	TokenSymbol   string
}

// CampaignsByID indexes campaigns by lowercase id.
func CampaignsByID(campaigns []CampaignInfo) map[string]CampaignInfo {
	out := make(map[string]CampaignInfo, len(campaigns))
	for _, c := range campaigns {
		out[strings.ToLower(c.CampaignID)] = c
	}
	return out
}

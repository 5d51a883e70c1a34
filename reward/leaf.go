package reward

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// LeafAux carries snapshot fields that only feed reports.
type LeafAux struct {
	Pool           string
	AMM            string
	TokenSymbol    string
	TokenDecimals  uint8
	BoostedAddress string
	BoostedReward  float64
	AverageBoost   float64
}

// Leaf is the entitlement of one recipient for one campaign and reason.
// Addresses and campaign ids are kept lowercase.
type Leaf struct {
	CampaignID             string
	Recipient              string
	Reason                 string
	RewardToken            string
	Amount                 *big.Int
	LastProcessedTimestamp int64
	Aux                    LeafAux
}

// MaxAmount is the largest amount a merkle leaf can encode.
var MaxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// NewLeaf validates and canonicalises a leaf. A leaf without identity signals
// a corrupted data source and is rejected.
func NewLeaf(campaignID, recipient, reason, token string, amount *big.Int, lastProcessed int64, aux LeafAux) (Leaf, error) {
	if campaignID == "" || recipient == "" || reason == "" {
		return Leaf{}, fmt.Errorf("%w: campaign=%q recipient=%q reason=%q", ErrMissingLeafIdentity, campaignID, recipient, reason)
	}
	if amount == nil || amount.Sign() < 0 || amount.Cmp(MaxAmount) > 0 {
		return Leaf{}, fmt.Errorf("%w: %s/%s/%s", ErrInvalidLeafAmount, campaignID, recipient, reason)
	}
	rcpt, err := CanonicalAddress(recipient)
	if err != nil {
		return Leaf{}, err
	}
	tok, err := CanonicalAddress(token)
	if err != nil {
		return Leaf{}, err
	}
	return Leaf{
		CampaignID:             strings.ToLower(campaignID),
		Recipient:              rcpt,
		Reason:                 reason,
		RewardToken:            tok,
		Amount:                 new(big.Int).Set(amount),
		LastProcessedTimestamp: lastProcessed,
		Aux:                    aux,
	}, nil
}

// CanonicalAddress returns the lowercase 0x form of a hex address.
func CanonicalAddress(addr string) (string, error) {
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return strings.ToLower(common.HexToAddress(addr).Hex()), nil
}

// Compare orders leaves by (campaign, recipient, reason).
func Compare(a, b Leaf) int {
	return compareKey(a.CampaignID, a.Recipient, a.Reason, b.CampaignID, b.Recipient, b.Reason)
}

func compareKey(c1, r1, s1, c2, r2, s2 string) int {
	if c := strings.Compare(c1, c2); c != 0 {
		return c
	}
	if c := strings.Compare(r1, r2); c != 0 {
		return c
	}
	return strings.Compare(s1, s2)
}

// SameIdentity reports whether both leaves share (campaign, recipient, reason).
func SameIdentity(a, b Leaf) bool {
	return Compare(a, b) == 0
}

// Sub returns a leaf whose amount is a.Amount - b.Amount. The result may be
// negative; it only lives inside diff computations.
func Sub(a, b Leaf) (Leaf, error) {
	if !SameIdentity(a, b) {
		return Leaf{}, fmt.Errorf("%w: %s vs %s", ErrLeafIdentityMismatch, a.Key(), b.Key())
	}
	out := a
	out.Amount = new(big.Int).Sub(amountOf(a), amountOf(b))
	return out, nil
}

// ZeroOf returns l with a zero amount.
func ZeroOf(l Leaf) Leaf {
	l.Amount = new(big.Int)
	return l
}

func (l Leaf) Key() string {
	return l.CampaignID + "/" + l.Recipient + "/" + l.Reason
}

func amountOf(l Leaf) *big.Int {
	if l.Amount == nil {
		return new(big.Int)
	}
	return l.Amount
}

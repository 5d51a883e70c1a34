package reward

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// UnattributedReason labels the part of a holder amount not covered by its
// breakdown.
const UnattributedReason = "unattributed"

// Snapshot is the JSON document published for one epoch.
type Snapshot struct {
	LastUpdateEpoch uint32                    `json:"lastUpdateEpoch"`
	UpdateTimestamp int64                     `json:"updateTimestamp"`
	MerklRoot       string                    `json:"merklRoot"`
	Rewards         map[string]SnapshotReward `json:"rewards"`
}

type SnapshotReward struct {
	AMM             flexString                `json:"amm"`
	Pool            string                    `json:"pool"`
	Token           string                    `json:"token"`
	TokenSymbol     string                    `json:"tokenSymbol"`
	TokenDecimals   uint8                     `json:"tokenDecimals"`
	BoostedAddress  string                    `json:"boostedAddress"`
	BoostedReward   float64                   `json:"boostedReward"`
	LastUpdateEpoch uint32                    `json:"lastUpdateEpoch"`
	Holders         map[string]SnapshotHolder `json:"holders"`
}

type SnapshotHolder struct {
	Amount       string            `json:"amount"`
	AverageBoost float64           `json:"averageBoost,omitempty"`
	Breakdown    map[string]string `json:"breakdown,omitempty"`
}

// flexString accepts a JSON string or number; amm ids are published as both.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	return &s, nil
}

// ParseTree decodes a snapshot and expands it into leaves.
func ParseTree(data []byte) (*Tree, error) {
	s, err := ParseSnapshot(data)
	if err != nil {
		return nil, err
	}
	return s.Tree()
}

// Tree expands every holder breakdown into one leaf per reason. The part of
// the holder amount left after the breakdown becomes an unattributed leaf.
func (s *Snapshot) Tree() (*Tree, error) {
	t := NewTree(s.LastUpdateEpoch, nil)
	for rewardID, r := range s.Rewards {
		aux := LeafAux{
			Pool:           strings.ToLower(r.Pool),
			AMM:            string(r.AMM),
			TokenSymbol:    r.TokenSymbol,
			TokenDecimals:  r.TokenDecimals,
			BoostedAddress: strings.ToLower(r.BoostedAddress),
			BoostedReward:  r.BoostedReward,
		}
		processed := int64(r.LastUpdateEpoch) * 3600
		for holder, h := range r.Holders {
			total, err := parseAmount(h.Amount)
			if err != nil {
				return nil, fmt.Errorf("%w: reward %s holder %s: %w", ErrMalformedSnapshot, rewardID, holder, err)
			}
			holderAux := aux
			holderAux.AverageBoost = h.AverageBoost

			rest := new(big.Int).Set(total)
			for reason, raw := range h.Breakdown {
				amount, err := parseAmount(raw)
				if err != nil {
					return nil, fmt.Errorf("%w: reward %s holder %s reason %s: %w", ErrMalformedSnapshot, rewardID, holder, reason, err)
				}
				rest.Sub(rest, amount)
				leaf, err := NewLeaf(rewardID, holder, reason, r.Token, amount, processed, holderAux)
				if err != nil {
					return nil, err
				}
				t.Add(leaf)
			}
			if rest.Sign() < 0 {
				return nil, fmt.Errorf("%w: reward %s holder %s breakdown exceeds amount %s", ErrMalformedSnapshot, rewardID, holder, total)
			}
			if rest.Sign() > 0 || len(h.Breakdown) == 0 {
				if _, ok := h.Breakdown[UnattributedReason]; ok {
					return nil, fmt.Errorf("%w: reward %s holder %s: explicit %q reason with remainder", ErrMalformedSnapshot, rewardID, holder, UnattributedReason)
				}
				leaf, err := NewLeaf(rewardID, holder, UnattributedReason, r.Token, rest, processed, holderAux)
				if err != nil {
					return nil, err
				}
				t.Add(leaf)
			}
		}
	}
	t.Sort()
	return t, nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	if v.Cmp(MaxAmount) > 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLeafAmount, s)
	}
	return v, nil
}

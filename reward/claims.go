package reward

import (
	"math/big"
	"sort"
)

// CampaignDelta is the per campaign part of a holder's token change.
type CampaignDelta struct {
	CampaignID            string
	Diff                  *big.Int
	PercentOfCampaignDiff float64
	BoostDelta            float64
}

// HolderToken is what a holder is entitled to for one token in both trees.
type HolderToken struct {
	Holder    string
	Token     string
	Symbol    string
	Decimals  uint8
	Unclaimed *big.Int
	Previous  *big.Int
	Breakdown []CampaignDelta
}

// HolderDetails is holder -> token -> entitlement.
type HolderDetails map[string]map[string]*HolderToken

// Claimed is holder -> token -> amount already claimed on chain.
type Claimed map[string]map[string]*big.Int

func (c Claimed) Get(holder, token string) *big.Int {
	if v, ok := c[holder][token]; ok && v != nil {
		return v
	}
	return new(big.Int)
}

func (c Claimed) Set(holder, token string, amount *big.Int) {
	byToken, ok := c[holder]
	if !ok {
		byToken = make(map[string]*big.Int)
		c[holder] = byToken
	}
	byToken[token] = new(big.Int).Set(amount)
}

// OverClaim is a holder that already claimed more than the new tree grants.
type OverClaim struct {
	Holder    string
	Token     string
	Symbol    string
	Decimals  uint8
	Claimed   *big.Int
	Unclaimed *big.Int
}

type holderCampaignKey struct {
	holder   string
	token    string
	campaign string
}

type holderCampaignAcc struct {
	diff     *big.Int
	oldBoost float64
	newBoost float64
}

// NewHolderDetails sums, for every holder and token present in either tree,
// the new tree amounts (Unclaimed) and the old tree amounts (Previous).
func NewHolderDetails(oldTree, newTree *Tree) HolderDetails {
	details := make(HolderDetails)
	perCampaign := make(map[holderCampaignKey]*holderCampaignAcc)
	campaignDiff := make(map[string]*big.Int)

	visit := func(l Leaf, isNew bool) {
		byToken, ok := details[l.Recipient]
		if !ok {
			byToken = make(map[string]*HolderToken)
			details[l.Recipient] = byToken
		}
		ht, ok := byToken[l.RewardToken]
		if !ok {
			ht = &HolderToken{
				Holder:    l.Recipient,
				Token:     l.RewardToken,
				Unclaimed: new(big.Int),
				Previous:  new(big.Int),
			}
			byToken[l.RewardToken] = ht
		}
		if l.Aux.TokenSymbol != "" {
			ht.Symbol = l.Aux.TokenSymbol
			ht.Decimals = l.Aux.TokenDecimals
		}

		key := holderCampaignKey{holder: l.Recipient, token: l.RewardToken, campaign: l.CampaignID}
		acc, ok := perCampaign[key]
		if !ok {
			acc = &holderCampaignAcc{diff: new(big.Int)}
			perCampaign[key] = acc
		}
		total, ok := campaignDiff[l.CampaignID]
		if !ok {
			total = new(big.Int)
			campaignDiff[l.CampaignID] = total
		}

		amount := amountOf(l)
		if isNew {
			ht.Unclaimed.Add(ht.Unclaimed, amount)
			acc.diff.Add(acc.diff, amount)
			acc.newBoost = l.Aux.AverageBoost
			total.Add(total, amount)
		} else {
			ht.Previous.Add(ht.Previous, amount)
			acc.diff.Sub(acc.diff, amount)
			acc.oldBoost = l.Aux.AverageBoost
			total.Sub(total, amount)
		}
	}
	for _, l := range oldTree.Leaves() {
		visit(l, false)
	}
	for _, l := range newTree.Leaves() {
		visit(l, true)
	}

	for key, acc := range perCampaign {
		ht := details[key.holder][key.token]
		ht.Breakdown = append(ht.Breakdown, CampaignDelta{
			CampaignID:            key.campaign,
			Diff:                  acc.diff,
			PercentOfCampaignDiff: percentOf(acc.diff, campaignDiff[key.campaign]),
			BoostDelta:            acc.newBoost - acc.oldBoost,
		})
	}
	for _, byToken := range details {
		for _, ht := range byToken {
			sort.Slice(ht.Breakdown, func(i, j int) bool {
				return ht.Breakdown[i].CampaignID < ht.Breakdown[j].CampaignID
			})
		}
	}
	return details
}

// Pairs lists (holder, token) in sorted order.
func (d HolderDetails) Pairs() []*HolderToken {
	out := make([]*HolderToken, 0, len(d))
	for _, byToken := range d {
		for _, ht := range byToken {
			out = append(out, ht)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Holder != out[j].Holder {
			return out[i].Holder < out[j].Holder
		}
		return out[i].Token < out[j].Token
	})
	return out
}

// ReconcileClaims reports every (holder, token) whose on chain claimed amount
// exceeds what the new tree grants. A missing claimed entry counts as zero.
func ReconcileClaims(details HolderDetails, claimed Claimed) []OverClaim {
	var out []OverClaim
	for _, ht := range details.Pairs() {
		c := claimed.Get(ht.Holder, ht.Token)
		if c.Cmp(ht.Unclaimed) <= 0 {
			continue
		}
		out = append(out, OverClaim{
			Holder:    ht.Holder,
			Token:     ht.Token,
			Symbol:    ht.Symbol,
			Decimals:  ht.Decimals,
			Claimed:   new(big.Int).Set(c),
			Unclaimed: new(big.Int).Set(ht.Unclaimed),
		})
	}
	return out
}

package reward

import (
	"math/big"
	"sort"
	"strings"
)

// CampaignDiff is the per campaign summary between two trees.
type CampaignDiff struct {
	CampaignID    string
	Diff          *big.Int
	OldTotal      *big.Int
	NewTotal      *big.Int
	Recipients    int
	LastProcessed int64
	// Budget is nil when the campaign is not in the active list.
	Budget *big.Int
}

// RecipientDiff is the change of one recipient inside one campaign.
type RecipientDiff struct {
	CampaignID string
	Recipient  string
	Diff       *big.Int
	// Percent of the campaign diff, reporting only.
	Percent float64
}

type OverDistribution struct {
	CampaignID  string
	Distributed *big.Int
	Budget      *big.Int
}

type Diff struct {
	PerCampaign     map[string]*CampaignDiff
	PerRecipient    []RecipientDiff
	NegativeDiffs   []Leaf
	OverDistributed []OverDistribution
	// MissingCampaigns were in the old tree but vanished from the new one.
	MissingCampaigns []string
	// UnknownCampaigns are absent from the active list; their budget is not checked.
	UnknownCampaigns []string
}

// ComputeDiff reconciles newTree against oldTree campaign by campaign and
// checks cumulative distributions against campaign budgets. All decisions use
// exact integers.
func ComputeDiff(oldTree, newTree *Tree, campaigns map[string]CampaignInfo) (*Diff, error) {
	oldTree.Sort()
	newTree.Sort()
	budgets := make(map[string]CampaignInfo, len(campaigns))
	for id, c := range campaigns {
		budgets[strings.ToLower(id)] = c
	}

	d := &Diff{PerCampaign: make(map[string]*CampaignDiff)}

	for _, id := range oldTree.CampaignIDs() {
		if newTree.CampaignInfo(id).First >= 0 {
			continue
		}
		d.MissingCampaigns = append(d.MissingCampaigns, id)
		r := oldTree.CampaignInfo(id)
		cd := &CampaignDiff{CampaignID: id, Diff: new(big.Int), OldTotal: r.Total, NewTotal: new(big.Int)}
		for _, l := range oldTree.leaves[r.First : r.Last+1] {
			neg, _ := Sub(ZeroOf(l), l)
			d.NegativeDiffs = append(d.NegativeDiffs, neg)
			cd.Diff.Add(cd.Diff, neg.Amount)
		}
		d.PerCampaign[id] = cd
	}

	for _, id := range newTree.CampaignIDs() {
		r := newTree.CampaignInfo(id)
		cd := &CampaignDiff{
			CampaignID:    id,
			Diff:          new(big.Int),
			OldTotal:      oldTree.CampaignInfo(id).Total,
			NewTotal:      r.Total,
			LastProcessed: r.MaxLastProcessed,
		}
		perRecipient := make(map[string]*big.Int)
		addRecipient := func(recipient string, amount *big.Int) {
			sum, ok := perRecipient[recipient]
			if !ok {
				sum = new(big.Int)
				perRecipient[recipient] = sum
			}
			sum.Add(sum, amount)
		}

		for _, nl := range newTree.leaves[r.First : r.Last+1] {
			idx, found, err := oldTree.FindIndex(nl.CampaignID, nl.Recipient, nl.Reason)
			if err != nil {
				return nil, err
			}
			old := ZeroOf(nl)
			if found {
				old = oldTree.leaves[idx]
			}
			dl, err := Sub(nl, old)
			if err != nil {
				return nil, err
			}
			if dl.Amount.Sign() < 0 {
				d.NegativeDiffs = append(d.NegativeDiffs, dl)
			}
			cd.Diff.Add(cd.Diff, dl.Amount)
			addRecipient(nl.Recipient, dl.Amount)
		}

		// old leaves dropped from a campaign that still exists
		if oldRange := oldTree.CampaignInfo(id); oldRange.First >= 0 {
			for _, ol := range oldTree.leaves[oldRange.First : oldRange.Last+1] {
				_, found, err := newTree.FindIndex(ol.CampaignID, ol.Recipient, ol.Reason)
				if err != nil {
					return nil, err
				}
				if found {
					continue
				}
				neg, _ := Sub(ZeroOf(ol), ol)
				d.NegativeDiffs = append(d.NegativeDiffs, neg)
				cd.Diff.Add(cd.Diff, neg.Amount)
				addRecipient(ol.Recipient, neg.Amount)
			}
		}

		cd.Recipients = len(perRecipient)
		for recipient, amount := range perRecipient {
			d.PerRecipient = append(d.PerRecipient, RecipientDiff{
				CampaignID: id,
				Recipient:  recipient,
				Diff:       amount,
				Percent:    percentOf(amount, cd.Diff),
			})
		}

		info, ok := budgets[id]
		if !ok || info.Budget == nil {
			d.UnknownCampaigns = append(d.UnknownCampaigns, id)
		} else {
			cd.Budget = new(big.Int).Set(info.Budget)
			if r.Total.Cmp(info.Budget) > 0 {
				d.OverDistributed = append(d.OverDistributed, OverDistribution{
					CampaignID:  id,
					Distributed: new(big.Int).Set(r.Total),
					Budget:      new(big.Int).Set(info.Budget),
				})
			}
		}
		d.PerCampaign[id] = cd
	}

	sort.Slice(d.PerRecipient, func(i, j int) bool {
		a, b := d.PerRecipient[i], d.PerRecipient[j]
		if a.CampaignID != b.CampaignID {
			return a.CampaignID < b.CampaignID
		}
		return a.Recipient < b.Recipient
	})
	sort.SliceStable(d.NegativeDiffs, func(i, j int) bool {
		return Compare(d.NegativeDiffs[i], d.NegativeDiffs[j]) < 0
	})
	return d, nil
}

// percentOf returns part/whole*100, or 0 when whole is zero.
func percentOf(part, whole *big.Int) float64 {
	if whole.Sign() == 0 {
		return 0
	}
	q := new(big.Float).Quo(new(big.Float).SetInt(part), new(big.Float).SetInt(whole))
	f, _ := q.Mul(q, big.NewFloat(100)).Float64()
	return f
}

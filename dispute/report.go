package dispute

import (
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
	"github.com/AngleProtocol/merkl-dispute-sub000/provider"
	"github.com/AngleProtocol/merkl-dispute-sub000/reward"
)

// Report accumulates what one run learned. It belongs to that run only.
type Report struct {
	RunID      string
	ChainID    uint64
	StartedAt  time.Time
	FinishedAt time.Time

	BlockNumber uint64
	BlockTime   uint64
	Params      *provider.OnChainParams

	StartEpoch        uint32
	EndEpoch          uint32
	StartTree         *reward.Tree
	EndTree           *reward.Tree
	ComputedStartRoot string
	ComputedEndRoot   string

	Campaigns  map[string]reward.CampaignInfo
	Diff       *reward.Diff
	Holders    reward.HolderDetails
	OverClaims []reward.OverClaim
	// PoolNames maps campaign id to a display name for the reports.
	PoolNames map[string]string

	Outcome Outcome
	Dispute *DisputeRecord

	wallet *types.ETHWallet
}

// DisputeRecord is what the submission did, or would have done in a dry run.
type DisputeRecord struct {
	Reason        string
	DryRun        bool
	ApproveAmount *big.Int
	ApproveTx     string
	DisputeTx     string
	Outcome       Outcome
}

func NewReport(dc *Context) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		ChainID:   dc.ChainID,
		StartedAt: time.Now(),
		PoolNames: make(map[string]string),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Report) poolName(campaignID string) string {
	if name, ok := r.PoolNames[strings.ToLower(campaignID)]; ok {
		return name
	}
	return ""
}

func (r *Report) decimalsOf(campaignID string) uint8 {
	if c, ok := r.Campaigns[strings.ToLower(campaignID)]; ok {
		return c.TokenDecimals
	}
	return 18
}

// Summary is the printable form of a Report.
type Summary struct {
	RunID             string                    `json:"runId" yaml:"runId"`
	ChainID           uint64                    `json:"chainId" yaml:"chainId"`
	BlockNumber       uint64                    `json:"blockNumber" yaml:"blockNumber"`
	BlockTime         uint64                    `json:"blockTime" yaml:"blockTime"`
	DurationMs        int64                     `json:"durationMs" yaml:"durationMs"`
	StartRoot         string                    `json:"startRoot,omitempty" yaml:"startRoot,omitempty"`
	EndRoot           string                    `json:"endRoot,omitempty" yaml:"endRoot,omitempty"`
	ComputedStartRoot string                    `json:"computedStartRoot,omitempty" yaml:"computedStartRoot,omitempty"`
	ComputedEndRoot   string                    `json:"computedEndRoot,omitempty" yaml:"computedEndRoot,omitempty"`
	StartEpoch        uint32                    `json:"startEpoch,omitempty" yaml:"startEpoch,omitempty"`
	EndEpoch          uint32                    `json:"endEpoch,omitempty" yaml:"endEpoch,omitempty"`
	Outcome           string                    `json:"outcome" yaml:"outcome"`
	Code              string                    `json:"code,omitempty" yaml:"code,omitempty"`
	Reason            string                    `json:"reason" yaml:"reason"`
	NegativeDiffs     []NegativeDiffSummary     `json:"negativeDiffs,omitempty" yaml:"negativeDiffs,omitempty"`
	OverDistributed   []OverDistributionSummary `json:"overDistributed,omitempty" yaml:"overDistributed,omitempty"`
	OverClaims        []OverClaimSummary        `json:"overClaims,omitempty" yaml:"overClaims,omitempty"`
	Campaigns         []CampaignSummary         `json:"campaigns,omitempty" yaml:"campaigns,omitempty"`
	Dispute           *DisputeSummary           `json:"dispute,omitempty" yaml:"dispute,omitempty"`
}

type NegativeDiffSummary struct {
	CampaignID string `json:"campaignId" yaml:"campaignId"`
	Pool       string `json:"pool,omitempty" yaml:"pool,omitempty"`
	Recipient  string `json:"recipient" yaml:"recipient"`
	Reason     string `json:"reason" yaml:"reason"`
	Amount     string `json:"amount" yaml:"amount"`
}

type OverDistributionSummary struct {
	CampaignID  string `json:"campaignId" yaml:"campaignId"`
	Pool        string `json:"pool,omitempty" yaml:"pool,omitempty"`
	Distributed string `json:"distributed" yaml:"distributed"`
	Budget      string `json:"budget" yaml:"budget"`
}

type OverClaimSummary struct {
	Holder    string `json:"holder" yaml:"holder"`
	Token     string `json:"token" yaml:"token"`
	Symbol    string `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Claimed   string `json:"claimed" yaml:"claimed"`
	Unclaimed string `json:"unclaimed" yaml:"unclaimed"`
}

type CampaignSummary struct {
	CampaignID string `json:"campaignId" yaml:"campaignId"`
	Diff       string `json:"diff" yaml:"diff"`
	NewTotal   string `json:"newTotal" yaml:"newTotal"`
	Budget     string `json:"budget,omitempty" yaml:"budget,omitempty"`
	Recipients int    `json:"recipients" yaml:"recipients"`
}

type DisputeSummary struct {
	Reason        string `json:"reason" yaml:"reason"`
	DryRun        bool   `json:"dryRun" yaml:"dryRun"`
	ApproveAmount string `json:"approveAmount,omitempty" yaml:"approveAmount,omitempty"`
	ApproveTx     string `json:"approveTx,omitempty" yaml:"approveTx,omitempty"`
	DisputeTx     string `json:"disputeTx,omitempty" yaml:"disputeTx,omitempty"`
	Outcome       string `json:"outcome,omitempty" yaml:"outcome,omitempty"`
}

// Summary renders amounts with token decimals. It is only meant for humans
// and notification sinks.
func (r *Report) Summary() Summary {
	s := Summary{
		RunID:             r.RunID,
		ChainID:           r.ChainID,
		BlockNumber:       r.BlockNumber,
		BlockTime:         r.BlockTime,
		ComputedStartRoot: r.ComputedStartRoot,
		ComputedEndRoot:   r.ComputedEndRoot,
		StartEpoch:        r.StartEpoch,
		EndEpoch:          r.EndEpoch,
	}
	if !r.FinishedAt.IsZero() {
		s.DurationMs = r.FinishedAt.Sub(r.StartedAt).Milliseconds()
	}
	if r.Params != nil {
		s.StartRoot = r.Params.StartRoot
		s.EndRoot = r.Params.EndRoot
	}
	switch o := r.Outcome.(type) {
	case Clean:
		s.Outcome, s.Reason = o.Kind(), o.Reason
	case Violation:
		s.Outcome, s.Code, s.Reason = o.Kind(), string(o.Code), o.Reason
	default:
		s.Outcome = "pending"
	}

	if r.Diff != nil {
		for _, l := range r.Diff.NegativeDiffs {
			s.NegativeDiffs = append(s.NegativeDiffs, NegativeDiffSummary{
				CampaignID: l.CampaignID,
				Pool:       r.poolName(l.CampaignID),
				Recipient:  l.Recipient,
				Reason:     l.Reason,
				Amount:     reward.FormatAmount(l.Amount, l.Aux.TokenDecimals),
			})
		}
		for _, o := range r.Diff.OverDistributed {
			decimals := r.decimalsOf(o.CampaignID)
			s.OverDistributed = append(s.OverDistributed, OverDistributionSummary{
				CampaignID:  o.CampaignID,
				Pool:        r.poolName(o.CampaignID),
				Distributed: reward.FormatAmount(o.Distributed, decimals),
				Budget:      reward.FormatAmount(o.Budget, decimals),
			})
		}
		for _, id := range sortedKeys(r.Diff.PerCampaign) {
			c := r.Diff.PerCampaign[id]
			decimals := r.decimalsOf(id)
			cs := CampaignSummary{
				CampaignID: id,
				Diff:       reward.FormatAmount(c.Diff, decimals),
				NewTotal:   reward.FormatAmount(c.NewTotal, decimals),
				Recipients: c.Recipients,
			}
			if c.Budget != nil {
				cs.Budget = reward.FormatAmount(c.Budget, decimals)
			}
			s.Campaigns = append(s.Campaigns, cs)
		}
	}
	for _, o := range r.OverClaims {
		s.OverClaims = append(s.OverClaims, OverClaimSummary{
			Holder:    o.Holder,
			Token:     o.Token,
			Symbol:    o.Symbol,
			Claimed:   reward.FormatAmount(o.Claimed, o.Decimals),
			Unclaimed: reward.FormatAmount(o.Unclaimed, o.Decimals),
		})
	}
	if d := r.Dispute; d != nil {
		ds := &DisputeSummary{
			Reason:    d.Reason,
			DryRun:    d.DryRun,
			ApproveTx: d.ApproveTx,
			DisputeTx: d.DisputeTx,
		}
		if d.ApproveAmount != nil {
			ds.ApproveAmount = d.ApproveAmount.String()
		}
		if d.Outcome != nil {
			ds.Outcome = d.Outcome.Describe()
		}
		s.Dispute = ds
	}
	return s
}

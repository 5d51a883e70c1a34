package dispute

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/AngleProtocol/merkl-dispute-sub000/logger"
	disputeruns "github.com/AngleProtocol/merkl-dispute-sub000/metrics/indicators/dispute_runs"
	"github.com/AngleProtocol/merkl-dispute-sub000/reward"
)

const (
	StepBlockResolved  = "BlockResolved"
	StepParamsResolved = "ParamsResolved"
	StepWindowChecked  = "WindowChecked"
	StepTreesBuilt     = "TreesBuilt"
	StepRootsVerified  = "RootsVerified"
	StepDiffChecked    = "DiffChecked"
)

// NewCheckPipeline verifies the tree currently in its dispute window.
func NewCheckPipeline(indicators disputeruns.Indicators, log logger.Logger) *Pipeline {
	return NewPipeline("check", []Step{
		NewStep(StepBlockResolved, blockResolved),
		NewStep(StepParamsResolved, paramsResolved),
		NewStep(StepWindowChecked, windowChecked),
		NewStep(StepTreesBuilt, treesBuilt),
		NewStep(StepRootsVerified, rootsVerified),
		NewStep(StepDiffChecked, diffChecked),
	}, Clean{Reason: "tree verified"}, indicators, log)
}

func blockResolved(ctx context.Context, dc *Context, r *Report) Result {
	if dc.BlockNumber != nil {
		r.BlockNumber = *dc.BlockNumber
	} else {
		latest, err := dc.OnChain.FetchLatestBlockNumber(ctx)
		if err != nil {
			return stopViolation(CodeOnChainFetch, "latest block: %v", err)
		}
		r.BlockNumber = latest
	}

	ts, err := dc.OnChain.FetchTimestampAt(ctx, r.BlockNumber)
	if err != nil {
		return stopViolation(CodeBlocktimeFetch, "timestamp of block %d: %v", r.BlockNumber, err)
	}
	r.BlockTime = ts
	return Continue{}
}

func paramsResolved(ctx context.Context, dc *Context, r *Report) Result {
	params, err := dc.OnChain.FetchOnChainParams(ctx, new(big.Int).SetUint64(r.BlockNumber))
	if err != nil {
		return stopViolation(CodeOnChainFetch, "distributor params at block %d: %v", r.BlockNumber, err)
	}
	r.Params = &params
	dc.Reporter.OnChainParams(ctx, r)
	return Continue{}
}

// windowChecked stops on the idle states where there is nothing to verify.
func windowChecked(_ context.Context, _ *Context, r *Report) Result {
	p := r.Params
	switch {
	case p.EndOfDisputePeriod <= r.BlockTime:
		return stopClean("dispute period over")
	case p.DisputeToken == (common.Address{}):
		return stopClean("no dispute token")
	case p.Disputer != (common.Address{}):
		return stopClean(fmt.Sprintf("already disputed by %s", p.Disputer.Hex()))
	case strings.EqualFold(p.StartRoot, p.EndRoot):
		return stopClean("no root update")
	}
	return Continue{}
}

func treesBuilt(ctx context.Context, dc *Context, r *Report) Result {
	type fetched struct {
		epoch uint32
		tree  *reward.Tree
	}
	fetch := func(ctx context.Context, root string) (fetched, error) {
		epoch, err := dc.Roots.FetchEpochFor(ctx, root)
		if err != nil {
			return fetched{}, fmt.Errorf("epoch of root %s: %w", root, err)
		}
		data, err := dc.Roots.FetchTreeFor(ctx, epoch)
		if err != nil {
			return fetched{}, fmt.Errorf("snapshot of epoch %d: %w", epoch, err)
		}
		tree, err := reward.ParseTree(data)
		if err != nil {
			return fetched{}, fmt.Errorf("snapshot of epoch %d: %w", epoch, err)
		}
		tree.Epoch = epoch
		return fetched{epoch: epoch, tree: tree}, nil
	}

	var start, end fetched
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		start, err = fetch(gctx, r.Params.StartRoot)
		return err
	})
	g.Go(func() (err error) {
		end, err = fetch(gctx, r.Params.EndRoot)
		return err
	})
	if err := g.Wait(); err != nil {
		return stopViolation(CodeTreeFetch, "%v", err)
	}
	r.StartEpoch, r.StartTree = start.epoch, start.tree
	r.EndEpoch, r.EndTree = end.epoch, end.tree

	if err := r.EndTree.CheckUnique(); err != nil {
		return stopViolation(CodeDuplicateLeaf, "tree of epoch %d: %v", r.EndEpoch, err)
	}
	if err := r.StartTree.CheckUnique(); err != nil {
		return stopViolation(CodeTreeFetch, "tree of epoch %d: %v", r.StartEpoch, err)
	}
	return Continue{}
}

func rootsVerified(ctx context.Context, dc *Context, r *Report) Result {
	if err := r.StartTree.Build(); err != nil {
		return stopViolation(CodeTreeFetch, "tree of epoch %d: %v", r.StartEpoch, err)
	}
	if err := r.EndTree.Build(); err != nil {
		return stopViolation(CodeTreeFetch, "tree of epoch %d: %v", r.EndEpoch, err)
	}
	r.ComputedStartRoot = r.StartTree.RootHex()
	r.ComputedEndRoot = r.EndTree.RootHex()
	dc.Reporter.ComputedRoots(ctx, r)

	if !strings.EqualFold(r.ComputedStartRoot, r.Params.StartRoot) {
		return stopViolation(CodeTreeRoot, "start root mismatch: computed %s, on-chain %s", r.ComputedStartRoot, r.Params.StartRoot)
	}
	if !strings.EqualFold(r.ComputedEndRoot, r.Params.EndRoot) {
		return stopViolation(CodeTreeRoot, "end root mismatch: computed %s, on-chain %s", r.ComputedEndRoot, r.Params.EndRoot)
	}
	return Continue{}
}

func diffChecked(ctx context.Context, dc *Context, r *Report) Result {
	block := new(big.Int).SetUint64(r.BlockNumber)
	campaigns, err := dc.OnChain.FetchActiveDistributions(ctx, block)
	if err != nil {
		return stopViolation(CodeOnChainFetch, "active distributions: %v", err)
	}
	r.Campaigns = reward.CampaignsByID(campaigns)

	diff, err := reward.ComputeDiff(r.StartTree, r.EndTree, r.Campaigns)
	if err != nil {
		if errors.Is(err, reward.ErrDuplicateLeaf) {
			return stopViolation(CodeDuplicateLeaf, "%v", err)
		}
		return stopViolation(CodeTreeFetch, "%v", err)
	}
	r.Diff = diff

	if len(diff.NegativeDiffs) > 0 {
		resolvePoolNames(ctx, dc, r, negativeCampaigns(diff))
		l := diff.NegativeDiffs[0]
		return stopViolation(CodeNegativeDiff, "%d negative diffs, first: campaign %s%s recipient %s reason %s amount %s",
			len(diff.NegativeDiffs), l.CampaignID, poolSuffix(r, l.CampaignID), l.Recipient, l.Reason,
			reward.FormatAmount(l.Amount, l.Aux.TokenDecimals))
	}
	if len(diff.OverDistributed) > 0 {
		ids := make([]string, 0, len(diff.OverDistributed))
		for _, o := range diff.OverDistributed {
			ids = append(ids, o.CampaignID)
		}
		resolvePoolNames(ctx, dc, r, ids)
		o := diff.OverDistributed[0]
		decimals := r.decimalsOf(o.CampaignID)
		return stopViolation(CodeOverDistributed, "%d campaigns over budget, first: campaign %s%s distributed %s budget %s",
			len(diff.OverDistributed), o.CampaignID, poolSuffix(r, o.CampaignID),
			reward.FormatAmount(o.Distributed, decimals), reward.FormatAmount(o.Budget, decimals))
	}

	r.Holders = reward.NewHolderDetails(r.StartTree, r.EndTree)
	claimed, err := dc.OnChain.FetchClaimed(ctx, r.Holders)
	if err != nil {
		return stopViolation(CodeOnChainFetch, "claimed amounts: %v", err)
	}
	r.OverClaims = reward.ReconcileClaims(r.Holders, claimed)
	if len(r.OverClaims) > 0 {
		o := r.OverClaims[0]
		return stopViolation(CodeAlreadyClaimed, "%d holders claimed more than granted, first: %s claimed %s %s, tree grants %s",
			len(r.OverClaims), o.Holder, reward.FormatAmount(o.Claimed, o.Decimals), o.Symbol,
			reward.FormatAmount(o.Unclaimed, o.Decimals))
	}
	return Continue{}
}

func negativeCampaigns(d *reward.Diff) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, l := range d.NegativeDiffs {
		if _, ok := seen[l.CampaignID]; ok {
			continue
		}
		seen[l.CampaignID] = struct{}{}
		ids = append(ids, l.CampaignID)
	}
	return ids
}

// resolvePoolNames is cosmetic. Failures are absorbed by the provider.
func resolvePoolNames(ctx context.Context, dc *Context, r *Report, campaignIDs []string) {
	for _, id := range campaignIDs {
		pool, amm := poolOf(r, id)
		if pool == "" {
			continue
		}
		name, err := dc.OnChain.FetchPoolName(ctx, pool, amm)
		if err != nil || name == "" {
			continue
		}
		r.PoolNames[id] = name
	}
}

func poolOf(r *Report, campaignID string) (string, string) {
	if c, ok := r.Campaigns[campaignID]; ok && c.Pool != "" {
		return c.Pool, c.AMM
	}
	for _, t := range []*reward.Tree{r.EndTree, r.StartTree} {
		rng := t.CampaignInfo(campaignID)
		if rng.First >= 0 {
			aux := t.Leaf(rng.First).Aux
			return aux.Pool, aux.AMM
		}
	}
	return "", ""
}

func poolSuffix(r *Report, campaignID string) string {
	if name := r.poolName(campaignID); name != "" {
		return " (" + name + ")"
	}
	return ""
}

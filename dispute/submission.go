package dispute

import (
	"context"
	"math/big"

	"github.com/AngleProtocol/merkl-dispute-sub000/logger"
	disputeruns "github.com/AngleProtocol/merkl-dispute-sub000/metrics/indicators/dispute_runs"
)

const (
	StepCreateSigner  = "CreateSigner"
	StepApproveStake  = "ApproveStake"
	StepSubmitDispute = "SubmitDispute"
)

// NewSubmissionPipeline stakes and disputes the tree under check. Each step
// makes a single provider call, a failed step is not retried from an earlier
// one.
func NewSubmissionPipeline(indicators disputeruns.Indicators, log logger.Logger) *Pipeline {
	return NewPipeline("submission", []Step{
		NewStep(StepCreateSigner, createSigner),
		NewStep(StepApproveStake, approveStake),
		NewStep(StepSubmitDispute, submitDispute),
	}, Clean{Reason: "dispute submitted"}, indicators, log)
}

func createSigner(ctx context.Context, dc *Context, r *Report) Result {
	if dc.Signer == nil {
		if dc.DryRun {
			return Continue{}
		}
		return stopViolation(CodeKeeperCreate, "no signer configured")
	}
	wallet, err := dc.Signer.CreateSigner(ctx)
	if err != nil {
		return stopViolation(CodeKeeperCreate, "%v", err)
	}
	r.wallet = &wallet
	return Continue{}
}

func approveStake(ctx context.Context, dc *Context, r *Report) Result {
	amount := r.Params.DisputeAmount
	if amount == nil || amount.Sign() == 0 {
		return Continue{}
	}
	r.Dispute.ApproveAmount = new(big.Int).Set(amount)
	if dc.DryRun {
		return Continue{}
	}

	receipt, err := dc.OnChain.SendApproveTxn(ctx, *r.wallet, r.Params.DisputeToken, amount, dc.Overrides)
	if err != nil {
		return stopViolation(CodeKeeperApprove, "approve %s of %s: %v", amount, r.Params.DisputeToken.Hex(), err)
	}
	r.Dispute.ApproveTx = receipt.TxHash.Hex()
	return Continue{}
}

func submitDispute(ctx context.Context, dc *Context, r *Report) Result {
	if dc.DryRun {
		return stopClean("dry run, dispute not sent")
	}
	receipt, err := dc.OnChain.SendDisputeTxn(ctx, *r.wallet, r.Dispute.Reason, dc.Overrides)
	if err != nil {
		return stopViolation(CodeKeeperDispute, "%v", err)
	}
	r.Dispute.DisputeTx = receipt.TxHash.Hex()
	return Continue{}
}

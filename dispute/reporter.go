package dispute

import (
	"context"

	"github.com/AngleProtocol/merkl-dispute-sub000/logger"
)

// Reporter receives the milestones of a run. It is a pure sink: nothing it
// does feeds back into the decision.
type Reporter interface {
	Context(ctx context.Context, r *Report)
	OnChainParams(ctx context.Context, r *Report)
	ComputedRoots(ctx context.Context, r *Report)
	Error(ctx context.Context, r *Report, v Violation)
	Success(ctx context.Context, r *Report, c Clean)
	DisputeError(ctx context.Context, r *Report, v Violation)
	DisputeSuccess(ctx context.Context, r *Report)
}

type LogReporter struct {
	logger logger.Logger
}

var _ Reporter = (*LogReporter)(nil)

func NewLogReporter(log logger.Logger) *LogReporter {
	return &LogReporter{logger: log}
}

func (l *LogReporter) run(r *Report) []logger.Field {
	return []logger.Field{
		logger.WithField("run_id", r.RunID),
		logger.WithField("chain_id", r.ChainID),
	}
}

func (l *LogReporter) Context(_ context.Context, r *Report) {
	l.logger.Info("dispute check started", l.run(r)...)
}

func (l *LogReporter) OnChainParams(_ context.Context, r *Report) {
	p := r.Params
	if p == nil {
		return
	}
	l.logger.Info("on-chain params", append(l.run(r),
		logger.WithField("block", r.BlockNumber),
		logger.WithField("block_time", r.BlockTime),
		logger.WithField("dispute_token", p.DisputeToken.Hex()),
		logger.WithField("dispute_amount", p.DisputeAmount.String()),
		logger.WithField("dispute_period", p.DisputePeriod),
		logger.WithField("end_of_dispute_period", p.EndOfDisputePeriod),
		logger.WithField("disputer", p.Disputer.Hex()),
		logger.WithField("start_root", p.StartRoot),
		logger.WithField("end_root", p.EndRoot),
		logger.WithField("current_root", p.CurrentRoot),
	)...)
}

func (l *LogReporter) ComputedRoots(_ context.Context, r *Report) {
	l.logger.Info("computed roots", append(l.run(r),
		logger.WithField("start_epoch", r.StartEpoch),
		logger.WithField("end_epoch", r.EndEpoch),
		logger.WithField("start_root", r.ComputedStartRoot),
		logger.WithField("end_root", r.ComputedEndRoot),
	)...)
}

func (l *LogReporter) Error(_ context.Context, r *Report, v Violation) {
	l.logger.Error("dispute check failed", append(l.run(r),
		logger.WithField("code", string(v.Code)),
		logger.WithField("disputable", v.Code.Disputable()),
		logger.WithField("reason", v.Reason),
	)...)
}

func (l *LogReporter) Success(_ context.Context, r *Report, c Clean) {
	l.logger.Info("dispute check passed", append(l.run(r), logger.WithField("reason", c.Reason))...)
}

func (l *LogReporter) DisputeError(_ context.Context, r *Report, v Violation) {
	l.logger.Error("dispute submission failed", append(l.run(r),
		logger.WithField("code", string(v.Code)),
		logger.WithField("reason", v.Reason),
	)...)
}

func (l *LogReporter) DisputeSuccess(_ context.Context, r *Report) {
	fields := l.run(r)
	if d := r.Dispute; d != nil {
		fields = append(fields,
			logger.WithField("dry_run", d.DryRun),
			logger.WithField("reason", d.Reason),
			logger.WithField("approve_tx", d.ApproveTx),
			logger.WithField("dispute_tx", d.DisputeTx),
		)
	}
	l.logger.Warn("dispute submitted", fields...)
}

// MultiReporter fans every call out to each reporter in order.
type MultiReporter []Reporter

var _ Reporter = MultiReporter(nil)

func (m MultiReporter) Context(ctx context.Context, r *Report) {
	for _, rep := range m {
		rep.Context(ctx, r)
	}
}

func (m MultiReporter) OnChainParams(ctx context.Context, r *Report) {
	for _, rep := range m {
		rep.OnChainParams(ctx, r)
	}
}

func (m MultiReporter) ComputedRoots(ctx context.Context, r *Report) {
	for _, rep := range m {
		rep.ComputedRoots(ctx, r)
	}
}

func (m MultiReporter) Error(ctx context.Context, r *Report, v Violation) {
	for _, rep := range m {
		rep.Error(ctx, r, v)
	}
}

func (m MultiReporter) Success(ctx context.Context, r *Report, c Clean) {
	for _, rep := range m {
		rep.Success(ctx, r, c)
	}
}

func (m MultiReporter) DisputeError(ctx context.Context, r *Report, v Violation) {
	for _, rep := range m {
		rep.DisputeError(ctx, r, v)
	}
}

func (m MultiReporter) DisputeSuccess(ctx context.Context, r *Report) {
	for _, rep := range m {
		rep.DisputeSuccess(ctx, r)
	}
}

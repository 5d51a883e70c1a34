package dispute

import (
	"context"
	"time"

	"github.com/AngleProtocol/merkl-dispute-sub000/logger"
	disputeruns "github.com/AngleProtocol/merkl-dispute-sub000/metrics/indicators/dispute_runs"
)

// Step is one stage of a pipeline.
type Step interface {
	Name() string
	Run(ctx context.Context, dc *Context, r *Report) Result
}

type stepFunc struct {
	name string
	fn   func(ctx context.Context, dc *Context, r *Report) Result
}

func (s stepFunc) Name() string { return s.name }

func (s stepFunc) Run(ctx context.Context, dc *Context, r *Report) Result {
	return s.fn(ctx, dc, r)
}

// NewStep wraps fn as a Step.
func NewStep(name string, fn func(ctx context.Context, dc *Context, r *Report) Result) Step {
	return stepFunc{name: name, fn: fn}
}

// Pipeline evaluates its steps in order and halts at the first Stop.
type Pipeline struct {
	name       string
	steps      []Step
	end        Clean
	indicators disputeruns.Indicators
	logger     logger.Logger
}

func NewPipeline(name string, steps []Step, end Clean, indicators disputeruns.Indicators, log logger.Logger) *Pipeline {
	return &Pipeline{name: name, steps: steps, end: end, indicators: indicators, logger: log}
}

// Run returns the first Stop outcome, or the pipeline end state when every
// step continued. A result that is neither stops the run with CodeStepResult.
func (p *Pipeline) Run(ctx context.Context, dc *Context, r *Report) Outcome {
	for _, step := range p.steps {
		start := time.Now()
		res := step.Run(ctx, dc, r)
		p.indicators.ObserveStepDurationSeconds(step.Name(), time.Since(start).Seconds())

		switch res := res.(type) {
		case Continue:
			p.logger.Debug("step passed",
				logger.WithField("pipeline", p.name),
				logger.WithField("step", step.Name()),
				logger.WithField("run_id", r.RunID),
			)
		case Stop:
			if res.Outcome == nil {
				return p.unexpected(step, r, res)
			}
			p.logger.Debug("step stopped",
				logger.WithField("pipeline", p.name),
				logger.WithField("step", step.Name()),
				logger.WithField("run_id", r.RunID),
				logger.WithField("outcome", res.Outcome.Describe()),
			)
			return res.Outcome
		default:
			return p.unexpected(step, r, res)
		}
	}
	return p.end
}

func (p *Pipeline) unexpected(step Step, r *Report, res Result) Outcome {
	v := violationf(CodeStepResult, "step %s returned %#v", step.Name(), res)
	p.logger.Error("step returned an unexpected result",
		logger.WithField("pipeline", p.name),
		logger.WithField("step", step.Name()),
		logger.WithField("run_id", r.RunID),
		logger.WithField("outcome", v.Describe()),
	)
	return v
}

// Runner chains the check pipeline and, on a disputable violation, the
// submission pipeline.
type Runner struct {
	check      *Pipeline
	submission *Pipeline
	indicators disputeruns.Indicators
	logger     logger.Logger
}

func NewRunner(indicators disputeruns.Indicators, log logger.Logger) *Runner {
	return &Runner{
		check:      NewCheckPipeline(indicators, log),
		submission: NewSubmissionPipeline(indicators, log),
		indicators: indicators,
		logger:     log,
	}
}

// Run performs one full check against dc and returns its report.
func (rn *Runner) Run(ctx context.Context, dc *Context) *Report {
	r := NewReport(dc)
	dc.Reporter.Context(ctx, r)

	outcome := rn.check.Run(ctx, dc, r)
	r.Outcome = outcome
	r.FinishedAt = time.Now()
	rn.indicators.SetLastRunTimestamp(r.FinishedAt.Unix())

	switch o := outcome.(type) {
	case Clean:
		rn.indicators.IncrementOutcome(o.Kind(), "")
		dc.Reporter.Success(ctx, r, o)
	case Violation:
		rn.indicators.IncrementOutcome(o.Kind(), string(o.Code))
		dc.Reporter.Error(ctx, r, o)
		if o.Code.Disputable() {
			rn.submit(ctx, dc, r, o)
		}
	}
	return r
}

func (rn *Runner) submit(ctx context.Context, dc *Context, r *Report, v Violation) {
	r.Dispute = &DisputeRecord{Reason: v.Describe(), DryRun: dc.DryRun}
	outcome := rn.submission.Run(ctx, dc, r)
	r.Dispute.Outcome = outcome
	r.FinishedAt = time.Now()

	switch o := outcome.(type) {
	case Violation:
		rn.indicators.IncrementDisputes("failure")
		dc.Reporter.DisputeError(ctx, r, o)
	case Clean:
		if dc.DryRun {
			rn.indicators.IncrementDisputes("dry_run")
		} else {
			rn.indicators.IncrementDisputes("submitted")
		}
		dc.Reporter.DisputeSuccess(ctx, r)
	}
}

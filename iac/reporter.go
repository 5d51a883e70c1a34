package iac

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/AngleProtocol/merkl-dispute-sub000/dispute"
	"github.com/AngleProtocol/merkl-dispute-sub000/logger"
)

const publishTimeout = 5 * time.Second

const (
	EventCheckFailed    = "check_failed"
	EventCheckPassed    = "check_passed"
	EventDisputeFailed  = "dispute_failed"
	EventDisputeSuccess = "dispute_submitted"
)

// Notification is the kafka message value.
type Notification struct {
	Event   string          `json:"event"`
	Time    time.Time       `json:"time"`
	Summary dispute.Summary `json:"summary"`
}

// Reporter publishes the terminal events of a run, keyed by chain id so one
// chain's notifications stay ordered. Milestones are left to the logs.
type Reporter struct {
	publisher Publisher
	logger    logger.Logger
}

var _ dispute.Reporter = (*Reporter)(nil)

func NewReporter(publisher Publisher, log logger.Logger) *Reporter {
	return &Reporter{publisher: publisher, logger: log}
}

func (k *Reporter) Context(context.Context, *dispute.Report)       {}
func (k *Reporter) OnChainParams(context.Context, *dispute.Report) {}
func (k *Reporter) ComputedRoots(context.Context, *dispute.Report) {}

func (k *Reporter) Error(ctx context.Context, r *dispute.Report, _ dispute.Violation) {
	k.publish(ctx, EventCheckFailed, r)
}

func (k *Reporter) Success(ctx context.Context, r *dispute.Report, _ dispute.Clean) {
	k.publish(ctx, EventCheckPassed, r)
}

func (k *Reporter) DisputeError(ctx context.Context, r *dispute.Report, _ dispute.Violation) {
	k.publish(ctx, EventDisputeFailed, r)
}

func (k *Reporter) DisputeSuccess(ctx context.Context, r *dispute.Report) {
	k.publish(ctx, EventDisputeSuccess, r)
}

func (k *Reporter) publish(ctx context.Context, event string, r *dispute.Report) {
	body, err := json.Marshal(Notification{Event: event, Time: time.Now().UTC(), Summary: r.Summary()})
	if err != nil {
		k.logger.Error("failed to encode notification", logger.WithField("event", event), logger.WithError(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	msg := Msg{
		PartitionKey: strconv.FormatUint(r.ChainID, 10),
		Message:      string(body),
		Headers:      map[string]string{"event": event, "run_id": r.RunID},
	}
	if err := k.publisher.Publish(ctx, msg); err != nil {
		k.logger.Warn("failed to publish notification",
			logger.WithField("event", event),
			logger.WithField("run_id", r.RunID),
			logger.WithError(err),
		)
	}
}

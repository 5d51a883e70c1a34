package dispute

import "fmt"

// Code classifies a terminal finding of a run.
type Code string

const (
	CodeOnChainFetch    Code = "OnChainFetch"
	CodeBlocktimeFetch  Code = "BlocktimeFetch"
	CodeTreeFetch       Code = "TreeFetch"
	CodeTreeRoot        Code = "TreeRoot"
	CodeNegativeDiff    Code = "NegativeDiff"
	CodeOverDistributed Code = "OverDistributed"
	CodeAlreadyClaimed  Code = "AlreadyClaimed"
	CodeDuplicateLeaf   Code = "DuplicateLeaf"
	CodeKeeperCreate    Code = "KeeperCreate"
	CodeKeeperApprove   Code = "KeeperApprove"
	CodeKeeperDispute   Code = "KeeperDispute"
	// CodeStepResult marks a step that returned neither Continue nor a Stop
	// with an outcome.
	CodeStepResult      Code = "StepResult"
)

// Disputable reports whether the code is an integrity finding against the
// published tree. Acquisition and keeper failures never lead to a dispute.
func (c Code) Disputable() bool {
	switch c {
	case CodeTreeRoot, CodeNegativeDiff, CodeOverDistributed, CodeAlreadyClaimed, CodeDuplicateLeaf:
		return true
	}
	return false
}

// Outcome is either Clean or Violation.
type Outcome interface {
	isOutcome()
	Kind() string
	Describe() string
}

// Clean ends a run without anything to dispute.
type Clean struct {
	Reason string
}

func (Clean) isOutcome()         {}
func (Clean) Kind() string       { return "clean" }
func (c Clean) Describe() string { return c.Reason }

type Violation struct {
	Code   Code
	Reason string
}

func (Violation) isOutcome()   {}
func (Violation) Kind() string { return "violation" }

func (v Violation) Describe() string {
	return fmt.Sprintf("%s: %s", v.Code, v.Reason)
}

func violationf(code Code, format string, args ...interface{}) Violation {
	return Violation{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// Result is what a step hands back to the driver: Continue or Stop. Steps
// record their findings on the *Report they are given.
type Result interface {
	isResult()
}

type Continue struct{}

type Stop struct {
	Outcome Outcome
}

func (Continue) isResult() {}
func (Stop) isResult()     {}

func stopClean(reason string) Result {
	return Stop{Outcome: Clean{Reason: reason}}
}

func stopViolation(code Code, format string, args ...interface{}) Result {
	return Stop{Outcome: violationf(code, format, args...)}
}

// ABOUTME: Pipeline stage enumeration
// ABOUTME: The fixed, ordered set of sales stages a deal moves through
package models

import "fmt"

// Stage is the label of a pipeline column. The label itself is the persisted state.
type Stage string

const (
	StageLeadGenerated          Stage = "Lead Generated"
	StageContacted              Stage = "Contacted"
	StageApplicationSubmitted   Stage = "Application Submitted"
	StageApplicationUnderReview Stage = "Application Under Review"
	StageDealFinalized          Stage = "Deal Finalized"
	StagePaymentConfirmed       Stage = "Payment Confirmed"
	StageCompleted              Stage = "Completed"
	StageLost                   Stage = "Lost"
)

// DefaultStage is assigned to new deals that do not name one.
const DefaultStage = StageLeadGenerated

var stageOrder = []Stage{
	StageLeadGenerated,
	StageContacted,
	StageApplicationSubmitted,
	StageApplicationUnderReview,
	StageDealFinalized,
	StagePaymentConfirmed,
	StageCompleted,
	StageLost,
}

// Stages returns every stage in display order.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// Index returns the display position of the stage, or -1 if it is not a member.
func (s Stage) Index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Stage) Valid() bool {
	return s.Index() >= 0
}

func (s Stage) String() string {
	return string(s)
}

// ParseStage accepts exact stage labels only.
func ParseStage(label string) (Stage, error) {
	s := Stage(label)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStage, label)
	}
	return s, nil
}

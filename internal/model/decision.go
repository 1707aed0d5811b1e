package model

// ClaimDecision is the terminal claim status produced by the decision
// state machine. All states are terminal: once a decision exists it is
// immutable except by explicit manual override through the store.
type ClaimDecision string

const (
	DecisionNone             ClaimDecision = ""
	DecisionPendingDocuments ClaimDecision = "PENDING_DOCUMENTS"
	DecisionRejected         ClaimDecision = "REJECTED"
	DecisionEscalatedToSIU   ClaimDecision = "ESCALATED_TO_SIU"
	DecisionApproved         ClaimDecision = "APPROVED"
)

// Terminal reports whether d is a settled decision.
func (d ClaimDecision) Terminal() bool {
	switch d {
	case DecisionPendingDocuments, DecisionRejected, DecisionEscalatedToSIU, DecisionApproved:
		return true
	default:
		return false
	}
}

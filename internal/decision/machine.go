// Package decision maps merged findings and fraud risk to a claim decision.
package decision

import "github.com/claimpilot/claimpilot/internal/model"

// Machine applies the decision policy. Decisions are evaluated in strict
// precedence: document completeness, then rejection, then fraud escalation,
// then warning escalation, then approval.
type Machine struct {
	cfg model.DecisionConfig
}

// NewMachine builds a decision machine for the given policy.
func NewMachine(cfg model.DecisionConfig) *Machine {
	return &Machine{cfg: cfg}
}

// Decide returns the claim decision for the merged findings and fraud
// assessment. An existing terminal decision is immutable and returned
// unchanged. A nil fraud assessment (non-motor or unscored claim) skips
// the fraud escalation check.
func (m *Machine) Decide(findings model.Findings, fraud *model.FraudAssessment, existing model.ClaimDecision) model.ClaimDecision {
	if existing.Terminal() {
		return existing
	}

	if !findings.DocsOK || findings.Recommendation == model.RecommendMoreDocs {
		return model.DecisionPendingDocuments
	}
	if findings.Recommendation == model.RecommendReject {
		return model.DecisionRejected
	}
	if fraud != nil {
		if fraud.Score >= m.cfg.EscalationThreshold || fraud.Decision == model.FraudSuspect {
			return model.DecisionEscalatedToSIU
		}
	}
	if m.cfg.EscalateOnWarning && len(findings.Warnings) > 0 {
		return model.DecisionEscalatedToSIU
	}
	return model.DecisionApproved
}

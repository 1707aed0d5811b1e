package fraud

import (
	"context"
	"errors"
	"testing"

	"github.com/claimpilot/claimpilot/internal/model"
)

func newTestScorer(complete Completer) *Scorer {
	cfg := model.DefaultConfig()
	return NewScorer(cfg.Fraud, cfg.Rules, complete)
}

func cleanFindings() model.Findings {
	return model.Findings{
		RequiredMissing: []model.DocLabel{},
		Warnings:        []string{},
		Errors:          []string{},
		DocsOK:          true,
		Recommendation:  model.RecommendApprove,
	}
}

func motorFacts() model.ClaimFacts {
	return model.ClaimFacts{
		TransactionID: "TXN-1",
		ClaimID:       "CLM-1",
		CustomerName:  "Ravi Kumar",
		ClaimType:     model.ClaimTypeMotor,
		Narrative:     "Rear-ended at the signal.",
		DocumentText: "=== FIR ===\nComplainant: Ravi Kumar\nVehicle No: KA01AB1234\nRear-ended at the signal.\n" +
			"=== RC_BOOK ===\nOwner: Ravi Kumar\nRegistration: KA01AB1234\n" +
			"=== POLICY_COPY ===\nInsured: Ravi Kumar\nVehicle: KA01AB1234\n",
	}
}

func TestScoreNonMotorIsNil(t *testing.T) {
	s := newTestScorer(nil)
	for _, claimType := range []string{"", "home", "health", "MOTOR_X"} {
		facts := motorFacts()
		facts.ClaimType = claimType
		if got := s.Score(context.Background(), facts, cleanFindings()); got != nil {
			t.Errorf("Score(claim_type=%q) = %+v, want nil", claimType, got)
		}
	}
}

func TestScoreCleanClaimSafe(t *testing.T) {
	got := newTestScorer(nil).Score(context.Background(), motorFacts(), cleanFindings())
	if got == nil {
		t.Fatal("Score = nil for motor claim")
	}
	if got.Score != 0 || got.Decision != model.FraudSafe {
		t.Errorf("assessment = %+v, want score 0 SAFE", got)
	}
}

func TestScoreValidationFloors(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*model.Findings)
		wantScore    float64
		wantDecision model.FraudDecision
	}{
		{
			"missing documents",
			func(f *model.Findings) {
				f.RequiredMissing = []model.DocLabel{model.DocFIR}
				f.DocsOK = false
			},
			0.35, model.FraudModerate,
		},
		{
			"critical error",
			func(f *model.Findings) {
				f.Errors = []string{model.ErrLicenseExpired}
				f.Recommendation = model.RecommendReject
			},
			0.70, model.FraudSuspect,
		},
		{
			"narrative mismatch",
			func(f *model.Findings) {
				f.Errors = []string{model.ErrNarrativeMismatch}
			},
			0.60, model.FraudModerate,
		},
		{
			"narrative mismatch downgraded to warning",
			func(f *model.Findings) {
				f.Warnings = []string{model.ErrNarrativeMismatch}
			},
			0.60, model.FraudModerate,
		},
		{
			"docs not ok",
			func(f *model.Findings) { f.DocsOK = false },
			0.35, model.FraudModerate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := cleanFindings()
			tt.mutate(&findings)

			got := newTestScorer(nil).Score(context.Background(), motorFacts(), findings)
			if got == nil {
				t.Fatal("Score = nil")
			}
			if got.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", got.Score, tt.wantScore)
			}
			if got.Decision != tt.wantDecision {
				t.Errorf("decision = %s, want %s", got.Decision, tt.wantDecision)
			}
		})
	}
}

func TestScoreHeuristicNameMismatch(t *testing.T) {
	facts := motorFacts()
	facts.CustomerName = "Suresh Patel" // appears nowhere in the OCR

	got := newTestScorer(nil).Score(context.Background(), facts, cleanFindings())
	if got.Score != 0.45 {
		t.Errorf("score = %v, want name-mismatch floor 0.45", got.Score)
	}
	if got.Decision != model.FraudModerate {
		t.Errorf("decision = %s, want MODERATE", got.Decision)
	}
}

func TestScoreHeuristicVehicleMismatch(t *testing.T) {
	facts := motorFacts()
	facts.DocumentText = "=== FIR ===\nVehicle No: KA01AB1234\nComplainant: Ravi Kumar\n" +
		"=== RC_BOOK ===\nRegistration: MH12XY9999\nOwner: Ravi Kumar\n"

	got := newTestScorer(nil).Score(context.Background(), facts, cleanFindings())
	if got.Score != 0.60 {
		t.Errorf("score = %v, want vehicle-mismatch floor 0.60", got.Score)
	}
}

// The heuristic floors scan the raw OCR blob, so they fire even when the
// text carries no section markers at all.
func TestScoreHeuristicsOnUnmarkedOCR(t *testing.T) {
	facts := motorFacts()
	facts.DocumentText = "Complainant Ravi Kumar reported vehicle KA01AB1234.\n" +
		"Registration certificate shows MH12XY9999.\n"

	got := newTestScorer(nil).Score(context.Background(), facts, cleanFindings())
	if got.Score != 0.60 {
		t.Errorf("score = %v, want vehicle-mismatch floor 0.60 on unmarked OCR", got.Score)
	}

	facts = motorFacts()
	facts.Narrative = "Hit the divider while avoiding a dog."
	facts.DocumentText = "Police report: car was rear-ended at the junction. Complainant Ravi Kumar."

	got = newTestScorer(nil).Score(context.Background(), facts, cleanFindings())
	if got.Score != 0.55 {
		t.Errorf("score = %v, want contradiction floor 0.55 on unmarked OCR", got.Score)
	}
}

func TestScoreHeuristicContradiction(t *testing.T) {
	facts := motorFacts()
	facts.Narrative = "Hit the divider while avoiding a dog."

	got := newTestScorer(nil).Score(context.Background(), facts, cleanFindings())
	if got.Score != 0.55 {
		t.Errorf("score = %v, want contradiction floor 0.55", got.Score)
	}
}

func TestScoreLLMEstimateWins(t *testing.T) {
	complete := func(ctx context.Context, prompt string) (string, error) {
		return `{"fraud_score": 0.82, "fraud_decision": "SUSPECT"}`, nil
	}

	got := newTestScorer(complete).Score(context.Background(), motorFacts(), cleanFindings())
	if got.Score != 0.82 {
		t.Errorf("score = %v, want LLM estimate 0.82", got.Score)
	}
	if got.Decision != model.FraudSuspect {
		t.Errorf("decision = %s, want SUSPECT", got.Decision)
	}
}

func TestScoreFloorsBeatLowLLMEstimate(t *testing.T) {
	complete := func(ctx context.Context, prompt string) (string, error) {
		return `{"fraud_score": 0.05, "fraud_decision": "SAFE"}`, nil
	}

	findings := cleanFindings()
	findings.Errors = []string{model.ErrFakeEstimate}

	got := newTestScorer(complete).Score(context.Background(), motorFacts(), findings)
	if got.Score != 0.70 {
		t.Errorf("score = %v, want critical floor 0.70 over LLM 0.05", got.Score)
	}
}

func TestScoreLLMFailureFallsBackToFloors(t *testing.T) {
	complete := func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("provider down")
	}

	findings := cleanFindings()
	findings.RequiredMissing = []model.DocLabel{model.DocFIR}
	findings.DocsOK = false

	got := newTestScorer(complete).Score(context.Background(), motorFacts(), findings)
	if got.Score != 0.35 {
		t.Errorf("score = %v, want missing-docs floor 0.35", got.Score)
	}
}

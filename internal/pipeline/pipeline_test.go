package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/claimpilot/claimpilot/internal/fraud"
	"github.com/claimpilot/claimpilot/internal/model"
)

// fakeProvider answers each prompt kind with a canned completion.
type fakeProvider struct {
	calls      int64
	presence   string
	validation string
	fraud      string
	err        error
}

func (f *fakeProvider) Name() string                         { return "fake" }
func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.err != nil {
		return "", f.err
	}
	switch {
	case strings.Contains(prompt, "Determine presence"):
		return f.presence, nil
	case strings.Contains(prompt, "Fraud Risk Assessment"):
		return f.fraud, nil
	default:
		return f.validation, nil
	}
}

func newTestPipeline(provider *fakeProvider) *Pipeline {
	cfg := model.DefaultConfig()
	p := New(cfg)
	if provider != nil {
		p.provider = provider
		p.scorer = fraud.NewScorer(cfg.Fraud, cfg.Rules, p.complete)
	}
	return p
}

const testDoc = `=== FIR ===
Complainant: Ravi Kumar
Vehicle No: KA01AB1234
Date: 05-01-2026 10:30
Rear-ended at the signal, bumper damage.
=== DRIVING_LICENSE ===
Name: Ravi Kumar
Valid To: 31-12-2027
=== RC_BOOK ===
Owner: Ravi Kumar
Registration: KA01AB1234
=== POLICY_COPY ===
Insured: Ravi Kumar
Coverage: Comprehensive
Period: 01-04-2025 to 31-03-2026
Vehicle: KA01AB1234
=== REPAIR_ESTIMATE ===
Bumper repair: 12,000
Total: 18,500
=== ACCIDENT_PHOTOS ===
Photo 1: rear bumper dent
`

func testFacts() model.ClaimFacts {
	return model.ClaimFacts{
		TransactionID: "TXN-1",
		ClaimID:       "CLM-1",
		CustomerName:  "Ravi Kumar",
		ClaimType:     model.ClaimTypeMotor,
		Amount:        18500,
		Narrative:     "Rear-ended at the signal on 05-01-2026.",
		DocumentText:  testDoc,
	}
}

func TestEvaluateDocumentsNonMotor(t *testing.T) {
	p := newTestPipeline(nil)

	for _, claimType := range []string{"", "home", "travel"} {
		facts := testFacts()
		facts.ClaimType = claimType

		res := p.EvaluateDocuments(context.Background(), facts)
		if !res.Merged.HasError(model.ErrNonMotorClaim) {
			t.Errorf("claim_type=%q: errors = %v, want non-motor error", claimType, res.Merged.Errors)
		}
		if res.Merged.DocsOK {
			t.Errorf("claim_type=%q: DocsOK = true", claimType)
		}
		if res.Merged.Recommendation != model.RecommendMoreDocs {
			t.Errorf("claim_type=%q: recommendation = %s", claimType, res.Merged.Recommendation)
		}
		if res.Merged.Note != model.NoteNonMotor {
			t.Errorf("claim_type=%q: note = %q, want %q", claimType, res.Merged.Note, model.NoteNonMotor)
		}
		if res.TextOnly != nil || res.Full != nil {
			t.Errorf("claim_type=%q: LLM passes ran for non-motor claim", claimType)
		}
	}
}

func TestProcessCleanClaimDeterministicOnly(t *testing.T) {
	p := newTestPipeline(nil)

	res := p.Process(context.Background(), testFacts(), model.DecisionNone)

	if !res.Merged.DocsOK {
		t.Errorf("merged = %+v, want DocsOK", res.Merged)
	}
	if res.Fraud == nil || res.Fraud.Decision != model.FraudSafe {
		t.Errorf("fraud = %+v, want SAFE", res.Fraud)
	}
	if res.Decision != model.DecisionApproved {
		t.Errorf("decision = %s, want APPROVED", res.Decision)
	}
}

func TestProcessBothLLMPassesFail(t *testing.T) {
	provider := &fakeProvider{err: errors.New("provider down")}
	p := newTestPipeline(provider)

	res := p.Process(context.Background(), testFacts(), model.DecisionNone)

	// Soft-failure contract: the run completes, both markers surface, and a
	// claim the deterministic layer found clean still approves.
	if !res.Merged.HasError(model.ErrLLMTextOnlyFailed) {
		t.Errorf("errors = %v, want %s", res.Merged.Errors, model.ErrLLMTextOnlyFailed)
	}
	if !res.Merged.HasError(model.ErrLLMCallFailed) {
		t.Errorf("errors = %v, want %s", res.Merged.Errors, model.ErrLLMCallFailed)
	}
	if res.Merged.Recommendation != model.RecommendApprove {
		t.Errorf("recommendation = %s, want APPROVE", res.Merged.Recommendation)
	}
	if res.Decision != model.DecisionApproved {
		t.Errorf("decision = %s, want APPROVED", res.Decision)
	}
}

func TestProcessTextOnlyVouchesForUnmarkedFIR(t *testing.T) {
	provider := &fakeProvider{
		presence: `{
			"docs": {"FIR": {"present": true, "confidence": 0.92, "citations": ["FIR No: 0042"]}},
			"required_missing": [], "warnings": [], "errors": [],
			"docs_ok": true, "recommendation": "APPROVE", "note": "FIR evidenced in OCR."
		}`,
		validation: `{
			"required_missing": [], "warnings": [], "errors": [],
			"docs_ok": true, "note": "All checks passed.", "recommendation": "APPROVE"
		}`,
		fraud: `{"fraud_score": 0.1, "fraud_decision": "SAFE"}`,
	}
	p := newTestPipeline(provider)

	facts := testFacts()
	facts.DocumentText = strings.Replace(facts.DocumentText, "=== FIR ===", "FIR Copy:\nFIR No: 0042", 1)

	res := p.Process(context.Background(), facts, model.DecisionNone)

	if res.Deterministic.DocsOK {
		t.Error("deterministic pass accepted a missing FIR marker")
	}
	if len(res.Merged.RequiredMissing) != 0 {
		t.Errorf("merged missing = %v, want none", res.Merged.RequiredMissing)
	}
	if res.Merged.HasError(model.ErrFIRNotFound) {
		t.Errorf("merged errors = %v, stale FIR error survived", res.Merged.Errors)
	}
	if res.Decision != model.DecisionApproved {
		t.Errorf("decision = %s, want APPROVED", res.Decision)
	}
}

func TestCompletionCacheAvoidsRepeatCalls(t *testing.T) {
	provider := &fakeProvider{
		presence: `{"docs": {}, "docs_ok": true, "recommendation": "APPROVE"}`,
		validation: `{
			"required_missing": [], "warnings": [], "errors": [],
			"docs_ok": true, "note": "ok", "recommendation": "APPROVE"
		}`,
		fraud: `{"fraud_score": 0.0, "fraud_decision": "SAFE"}`,
	}
	p := newTestPipeline(provider)

	facts := testFacts()
	p.EvaluateDocuments(context.Background(), facts)
	first := atomic.LoadInt64(&provider.calls)
	if first != 2 {
		t.Fatalf("first run made %d calls, want 2", first)
	}

	p.EvaluateDocuments(context.Background(), facts)
	if got := atomic.LoadInt64(&provider.calls); got != first {
		t.Errorf("second run made %d extra calls, want cached", got-first)
	}
}

func TestFinalizeHonorsExistingDecision(t *testing.T) {
	p := newTestPipeline(nil)

	rejecting := model.Findings{DocsOK: true, Recommendation: model.RecommendReject}
	if got := p.Finalize(rejecting, nil, model.DecisionApproved); got != model.DecisionApproved {
		t.Errorf("Finalize = %s, want existing APPROVED kept", got)
	}
}

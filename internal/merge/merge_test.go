package merge

import (
	"reflect"
	"testing"

	"github.com/claimpilot/claimpilot/internal/llm"
	"github.com/claimpilot/claimpilot/internal/model"
)

func newTestMerger() *Merger {
	return NewMerger(model.DefaultConfig().Merge)
}

func cleanDet() model.Findings {
	return model.Findings{
		RequiredMissing: []model.DocLabel{},
		Warnings:        []string{},
		Errors:          []string{},
		DocsOK:          true,
		Recommendation:  model.RecommendApprove,
	}
}

func presenceFor(label model.DocLabel, conf float64, citations ...string) *llm.PresenceReport {
	r := llm.DecodePresence("{}") // all-absent baseline
	r.Docs[label] = llm.DocEvidence{Present: true, Confidence: conf, Citations: citations}
	return &r
}

func TestMergeDeterministicOnlyClean(t *testing.T) {
	merged := newTestMerger().Merge(Sources{Deterministic: cleanDet()})

	if !merged.DocsOK {
		t.Error("DocsOK = false")
	}
	if merged.Recommendation != model.RecommendApprove {
		t.Errorf("recommendation = %s", merged.Recommendation)
	}
	if merged.Note != MergedNoteFallback {
		t.Errorf("note = %q", merged.Note)
	}
}

func TestMergeTextOnlyVouchesForMissingFIR(t *testing.T) {
	det := cleanDet()
	det.RequiredMissing = []model.DocLabel{model.DocFIR}
	det.Errors = []string{model.ErrFIRNotFound}
	det.DocsOK = false
	det.Recommendation = model.RecommendMoreDocs

	text := presenceFor(model.DocFIR, 0.9, "FIR No: 0042")

	merged := newTestMerger().Merge(Sources{Deterministic: det, TextOnly: text})

	if len(merged.RequiredMissing) != 0 {
		t.Errorf("missing = %v, want none (text-only vouched)", merged.RequiredMissing)
	}
	// Confirmed presence drops the stale FIR error.
	if merged.HasError(model.ErrFIRNotFound) {
		t.Errorf("errors = %v, stale FIR error survived", merged.Errors)
	}
	if !merged.DocsOK {
		t.Error("DocsOK = false after presence reconciliation")
	}
	if merged.Recommendation != model.RecommendApprove {
		t.Errorf("recommendation = %s, want APPROVE on clean merge", merged.Recommendation)
	}
}

func TestMergeTauRisesWithPriorFraud(t *testing.T) {
	det := cleanDet()
	det.RequiredMissing = []model.DocLabel{model.DocFIR}
	det.DocsOK = false
	det.Recommendation = model.RecommendMoreDocs

	text := presenceFor(model.DocFIR, 0.8, "FIR No: 0042")
	m := newTestMerger()

	// Prior below the pivot: tau 0.75, confidence 0.8 is enough.
	merged := m.Merge(Sources{Deterministic: det, TextOnly: text, PriorFraudScore: 0.2})
	if len(merged.RequiredMissing) != 0 {
		t.Errorf("low prior: missing = %v, want none", merged.RequiredMissing)
	}

	// Prior at the pivot: tau 0.85, 0.8 no longer clears it.
	merged = m.Merge(Sources{Deterministic: det, TextOnly: text, PriorFraudScore: 0.6})
	if !reflect.DeepEqual(merged.RequiredMissing, []model.DocLabel{model.DocFIR}) {
		t.Errorf("high prior: missing = %v, want [FIR]", merged.RequiredMissing)
	}
}

func TestMergePresenceNeedsCitations(t *testing.T) {
	det := cleanDet()
	det.RequiredMissing = []model.DocLabel{model.DocFIR}
	det.DocsOK = false

	text := presenceFor(model.DocFIR, 0.95) // no citations

	merged := newTestMerger().Merge(Sources{Deterministic: det, TextOnly: text})
	if len(merged.RequiredMissing) != 1 {
		t.Errorf("missing = %v, want FIR still missing without citations", merged.RequiredMissing)
	}
}

func TestMergeFailedTextOnlyCannotVouch(t *testing.T) {
	det := cleanDet()
	det.RequiredMissing = []model.DocLabel{model.DocFIR}
	det.DocsOK = false
	det.Recommendation = model.RecommendMoreDocs

	failed := llm.FailedPresence()
	merged := newTestMerger().Merge(Sources{Deterministic: det, TextOnly: &failed})

	if len(merged.RequiredMissing) != 1 {
		t.Errorf("missing = %v, want [FIR]", merged.RequiredMissing)
	}
	// The soft-failure marker joins the merged errors.
	if !merged.HasError(model.ErrLLMTextOnlyFailed) {
		t.Errorf("errors = %v, want %s", merged.Errors, model.ErrLLMTextOnlyFailed)
	}
	if merged.Recommendation != model.RecommendMoreDocs {
		t.Errorf("recommendation = %s", merged.Recommendation)
	}
}

func TestMergeFullLLMVouchesForPresence(t *testing.T) {
	det := cleanDet()
	det.RequiredMissing = []model.DocLabel{model.DocAccidentPhotos}
	det.DocsOK = false
	det.Recommendation = model.RecommendMoreDocs

	full := cleanDet() // full pass saw everything

	merged := newTestMerger().Merge(Sources{Deterministic: det, Full: &full})
	if len(merged.RequiredMissing) != 0 {
		t.Errorf("missing = %v, want none", merged.RequiredMissing)
	}
}

func TestMergeFailedFullCannotVouch(t *testing.T) {
	det := cleanDet()
	det.RequiredMissing = []model.DocLabel{model.DocAccidentPhotos}
	det.DocsOK = false
	det.Recommendation = model.RecommendMoreDocs

	failed := llm.FailedValidation() // empty required_missing, but failed

	merged := newTestMerger().Merge(Sources{Deterministic: det, Full: &failed})
	if len(merged.RequiredMissing) != 1 {
		t.Errorf("missing = %v, want [ACCIDENT_PHOTOS]", merged.RequiredMissing)
	}
	if merged.Recommendation != model.RecommendMoreDocs {
		t.Errorf("recommendation = %s", merged.Recommendation)
	}
}

// Soft-failed LLM passes surface their error markers but cannot block an
// otherwise clean claim: docs_ok forces APPROVE.
func TestMergeSoftFailedPassesStillApprove(t *testing.T) {
	failedText := llm.FailedPresence()
	failedFull := llm.FailedValidation()

	merged := newTestMerger().Merge(Sources{
		Deterministic: cleanDet(),
		TextOnly:      &failedText,
		Full:          &failedFull,
	})

	if !merged.HasError(model.ErrLLMTextOnlyFailed) || !merged.HasError(model.ErrLLMCallFailed) {
		t.Errorf("errors = %v, want both failure markers", merged.Errors)
	}
	if !merged.DocsOK {
		t.Error("DocsOK = false with no missing documents and no blocker")
	}
	if merged.Recommendation != model.RecommendApprove {
		t.Errorf("recommendation = %s, want APPROVE", merged.Recommendation)
	}
}

// The presence pass contributes evidence, never a verdict: its
// recommendation must not escalate the merged one.
func TestMergeTextOnlyRecommendationNeverEscalates(t *testing.T) {
	det := cleanDet()
	det.RequiredMissing = []model.DocLabel{model.DocFIR}
	det.DocsOK = false
	det.Recommendation = model.RecommendMoreDocs

	text := llm.DecodePresence("{}")
	text.Recommendation = model.RecommendReject

	merged := newTestMerger().Merge(Sources{Deterministic: det, TextOnly: &text})
	if merged.Recommendation != model.RecommendMoreDocs {
		t.Errorf("recommendation = %s, want NEED_MORE_DOCUMENTS", merged.Recommendation)
	}
}

func TestMergeCriticalBlockerRejects(t *testing.T) {
	det := cleanDet()
	det.Errors = []string{model.ErrLicenseExpired}
	det.DocsOK = false
	det.Recommendation = model.RecommendReject

	merged := newTestMerger().Merge(Sources{Deterministic: det})

	if merged.DocsOK {
		t.Error("DocsOK = true with a critical blocker")
	}
	if merged.Recommendation != model.RecommendReject {
		t.Errorf("recommendation = %s, want REJECT", merged.Recommendation)
	}
}

func TestMergeUnionsAndDeduplicates(t *testing.T) {
	det := cleanDet()
	det.Warnings = []string{model.WarnPolicyUnclear}

	full := cleanDet()
	full.Warnings = []string{model.WarnPolicyUnclear, model.WarnNameMismatch}

	merged := newTestMerger().Merge(Sources{Deterministic: det, Full: &full})

	want := []string{model.WarnNameMismatch, model.WarnPolicyUnclear} // sorted
	if !reflect.DeepEqual(merged.Warnings, want) {
		t.Errorf("warnings = %v, want %v", merged.Warnings, want)
	}
}

func TestMergeNoteJoinsSegments(t *testing.T) {
	det := cleanDet()
	det.Errors = []string{model.ErrVehicleMismatch}
	det.Warnings = []string{model.WarnNameMismatch}
	det.DocsOK = false
	det.Recommendation = model.RecommendReject

	merged := newTestMerger().Merge(Sources{Deterministic: det})
	want := "Errors: " + model.ErrVehicleMismatch + " | Warnings: " + model.WarnNameMismatch
	if merged.Note != want {
		t.Errorf("note = %q, want %q", merged.Note, want)
	}
}

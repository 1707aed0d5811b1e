// Package fraud scores motor claims for fraud risk. The score is the
// maximum of an LLM estimate, floors derived from the merged validation
// findings, and floors from cheap heuristics over the raw OCR text, so a
// failed or absent LLM never lowers the risk below what the evidence shows.
package fraud

import (
	"context"
	"math"
	"strings"

	"github.com/claimpilot/claimpilot/internal/extract"
	"github.com/claimpilot/claimpilot/internal/llm"
	"github.com/claimpilot/claimpilot/internal/model"
)

// Completer issues one completion call. A nil Completer means no LLM is
// configured and the estimate contributes zero.
type Completer func(ctx context.Context, prompt string) (string, error)

// Scorer assesses fraud risk for motor claims.
type Scorer struct {
	cfg       model.FraudConfig
	critical  map[string]bool
	extractor *extract.FieldExtractor
	pairs     []model.ContradictionPair
	complete  Completer
}

// NewScorer builds a scorer over the fraud policy and extraction rules.
func NewScorer(cfg model.FraudConfig, rules model.RulesConfig, complete Completer) *Scorer {
	critical := make(map[string]bool, len(cfg.CriticalErrors))
	for _, e := range cfg.CriticalErrors {
		critical[e] = true
	}
	return &Scorer{
		cfg:       cfg,
		critical:  critical,
		extractor: extract.NewFieldExtractor(rules),
		pairs:     rules.ContradictionPairs,
		complete:  complete,
	}
}

// Score assesses one claim against its merged findings. Non-motor claims
// are out of scope and return nil.
func (s *Scorer) Score(ctx context.Context, facts model.ClaimFacts, findings model.Findings) *model.FraudAssessment {
	if extract.Lower(facts.ClaimType) != model.ClaimTypeMotor {
		return nil
	}

	score := s.llmEstimate(ctx, facts, findings).Score
	score = math.Max(score, s.validationFloor(findings))
	score = math.Max(score, s.heuristicFloor(facts))
	score = clamp01(round2(score))

	return &model.FraudAssessment{
		Score:    score,
		Decision: s.decide(score),
	}
}

// llmEstimate runs the fraud prompt. Any failure decodes to a zero score,
// leaving the deterministic floors in charge.
func (s *Scorer) llmEstimate(ctx context.Context, facts model.ClaimFacts, findings model.Findings) llm.FraudEstimate {
	if s.complete == nil {
		return llm.FraudEstimate{Score: 0, Decision: model.FraudSafe}
	}
	raw, err := s.complete(ctx, llm.BuildFraudPrompt(facts, findings))
	if err != nil {
		return llm.FraudEstimate{Score: 0, Decision: model.FraudSafe}
	}
	return llm.DecodeFraud(raw)
}

// validationFloor derives a minimum risk from the merged findings.
func (s *Scorer) validationFloor(f model.Findings) float64 {
	floor := 0.0
	if len(f.RequiredMissing) > 0 {
		floor = math.Max(floor, s.cfg.MissingDocsFloor)
	}
	for _, e := range f.Errors {
		if s.critical[e] {
			floor = math.Max(floor, s.cfg.CriticalErrorFloor)
		}
	}
	if f.Recommendation == model.RecommendReject {
		floor = math.Max(floor, s.cfg.CriticalErrorFloor)
	}
	if f.HasError(model.ErrNarrativeMismatch) || f.HasWarning(model.ErrNarrativeMismatch) {
		floor = math.Max(floor, s.cfg.NarrativeFloor)
	}
	if !f.DocsOK {
		floor = math.Max(floor, s.cfg.NotOKFloor)
	}
	return floor
}

// heuristicFloor derives a minimum risk from the raw claim text, independent
// of any earlier validation. It scans the whole OCR blob rather than split
// sections: this net must still catch unmarked documents where section
// splitting found nothing.
func (s *Scorer) heuristicFloor(facts model.ClaimFacts) float64 {
	floor := 0.0
	docLower := strings.ToLower(facts.DocumentText)

	name := strings.ToLower(strings.TrimSpace(facts.CustomerName))
	if name != "" && !strings.Contains(docLower, name) {
		floor = math.Max(floor, s.cfg.NameMismatchFloor)
	}

	if regs := s.extractor.VehicleRegs(facts.DocumentText); len(regs) >= 2 {
		floor = math.Max(floor, s.cfg.VehicleMismatchFloor)
	}

	narrLower := strings.ToLower(facts.Narrative)
	for _, pair := range s.pairs {
		if containsAny(narrLower, pair.Narrative) && containsAny(docLower, pair.FIR) {
			floor = math.Max(floor, s.cfg.ContradictionFloor)
			break
		}
	}
	return floor
}

func (s *Scorer) decide(score float64) model.FraudDecision {
	switch {
	case score > s.cfg.SuspectAbove:
		return model.FraudSuspect
	case score >= s.cfg.SafeBelow:
		return model.FraudModerate
	default:
		return model.FraudSafe
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Package rules applies the fixed deterministic checks that turn extracted
// fields into validation findings. The evaluator never deduplicates and
// never calls out; given identical fields it produces identical findings.
package rules

import (
	"regexp"
	"strings"

	"github.com/claimpilot/claimpilot/internal/extract"
	"github.com/claimpilot/claimpilot/internal/model"
)

// Evaluator holds the compiled deterministic rule set.
type Evaluator struct {
	cfg          model.RulesConfig
	critical     map[string]bool
	majorReplace *regexp.Regexp
	photosMinor  []string
}

// NewEvaluator builds an evaluator for the given rule configuration.
func NewEvaluator(cfg model.RulesConfig) *Evaluator {
	critical := make(map[string]bool, len(cfg.CriticalErrors))
	for _, e := range cfg.CriticalErrors {
		critical[e] = true
	}
	return &Evaluator{
		cfg:          cfg,
		critical:     critical,
		majorReplace: regexp.MustCompile(`(?is)(bumper|headlamp|door|fender).*(replace|assembly|assy)`),
		photosMinor:  []string{"minor", "hairline", "scratch"},
	}
}

// Evaluate applies the fixed rule order to one claim's facts and fields.
// markerPresent records which section markers were literally found; alias-
// derived section bodies still feed the content checks, but only a literal
// marker counts toward document presence at this stage.
func (e *Evaluator) Evaluate(facts model.ClaimFacts, fields extract.Fields, markerPresent map[model.DocLabel]bool) model.Findings {
	var f model.Findings

	narrative := extract.Normalize(facts.Narrative)
	fir := fields.Sections[model.DocFIR]
	dl := fields.Sections[model.DocDrivingLicense]
	policy := fields.Sections[model.DocPolicyCopy]
	estimate := fields.Sections[model.DocRepairEstimate]
	photos := fields.Sections[model.DocAccidentPhotos]

	// 1. Mandatory document markers.
	for _, label := range model.AllDocLabels() {
		if !markerPresent[label] {
			f.RequiredMissing = append(f.RequiredMissing, label)
		}
	}
	missing := f.MissingSet()

	// 2. License validity. A present but unparseable block is a warning,
	// never an error.
	if dl != "" {
		if fields.IncidentDate != nil && fields.LicenseValidTo != nil &&
			fields.LicenseValidTo.Before(*fields.IncidentDate) {
			f.Errors = append(f.Errors, model.ErrLicenseExpired)
		}
	} else if !missing[model.DocDrivingLicense] {
		f.Warnings = append(f.Warnings, model.WarnLicenseUnclear)
	}

	// 3. Policy period and coverage. UNKNOWN coverage is a warning only.
	if policy != "" {
		if fields.IncidentDate != nil && (fields.PolicyStart == nil || fields.PolicyEnd == nil) {
			f.Warnings = append(f.Warnings, model.WarnPolicyPeriodUnclear)
		}
		if fields.IncidentDate != nil && fields.PolicyEnd != nil &&
			fields.PolicyEnd.Before(*fields.IncidentDate) {
			f.Errors = append(f.Errors, model.ErrPolicyNotCovering)
		}
		switch fields.Coverage {
		case model.CoverageTPOnly:
			f.Errors = append(f.Errors, model.ErrPolicyNotCovering)
		case model.CoverageUnknown:
			f.Warnings = append(f.Warnings, model.WarnCoverageUnclear)
		}
	} else if !missing[model.DocPolicyCopy] {
		f.Warnings = append(f.Warnings, model.WarnPolicyUnclear)
	}

	// 4. Vehicle consistency across FIR, RC and policy.
	if len(fields.Registrations) >= 2 {
		f.Errors = append(f.Errors, model.ErrVehicleMismatch)
	}

	// 5. Registered customer name against document named parties.
	name := extract.Normalize(facts.CustomerName)
	if name != "" && fields.NamedParty != "" &&
		!strings.Contains(strings.ToLower(fields.NamedParty), strings.ToLower(name)) {
		f.Warnings = append(f.Warnings, model.WarnNameMismatch)
	}

	// 6. Narrative vs FIR contradictions.
	if narrative != "" && fir != "" && e.contradicts(narrative, fir) {
		f.Errors = append(f.Errors, model.ErrNarrativeMismatch)
	}

	// 7. Estimate plausibility against inferred severity and photos.
	if estimate != "" {
		var total float64
		if fields.EstimateTotal != nil {
			total = *fields.EstimateTotal
		}
		if fields.Severity == model.SeverityMinor && total > e.cfg.MinorEstimateCeiling {
			f.Warnings = append(f.Warnings, model.WarnEstimateHighMinor)
		}
		if fields.Severity == model.SeverityModerate && total > e.cfg.ModerateEstimateCeiling {
			f.Warnings = append(f.Warnings, model.WarnEstimateInflated)
		}
		if photos != "" && containsAny(strings.ToLower(photos), e.photosMinor) &&
			e.majorReplace.MatchString(estimate) {
			f.Warnings = append(f.Warnings, model.WarnPhotosVsEstimate)
		}
	} else {
		// 8. Missing estimate section.
		f.Warnings = append(f.Warnings, model.WarnEstimateMissing)
	}

	// 9. FIR absence is critical beyond the generic missing entry.
	if missing[model.DocFIR] {
		f.Errors = append(f.Errors, model.ErrFIRNotFound)
	}

	// 10. Unverifiable estimate language.
	if estimate != "" && containsAny(strings.ToLower(estimate), e.cfg.FakeEstimatePhrases) {
		f.Errors = append(f.Errors, model.ErrFakeEstimate)
	}

	f.Recommendation = e.recommend(f)
	f.DocsOK = len(f.Errors) == 0 && len(f.RequiredMissing) == 0
	f.Note = model.ComposeNote(f, "; ", "Deterministic pre-validation found no critical issues.")
	return f
}

// recommend derives the deterministic recommendation: missing documents
// dominate, then any critical error, otherwise approve.
func (e *Evaluator) recommend(f model.Findings) model.Recommendation {
	if len(f.RequiredMissing) > 0 {
		return model.RecommendMoreDocs
	}
	for _, err := range f.Errors {
		if e.critical[err] {
			return model.RecommendReject
		}
	}
	return model.RecommendApprove
}

func (e *Evaluator) contradicts(narrative, fir string) bool {
	n := strings.ToLower(narrative)
	fl := strings.ToLower(fir)
	for _, pair := range e.cfg.ContradictionPairs {
		if containsAny(n, pair.Narrative) && containsAny(fl, pair.FIR) {
			return true
		}
	}
	return false
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

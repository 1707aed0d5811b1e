package model

import "time"

// Config is the full configuration tree for an evaluation pipeline.
// Every threshold, keyword list, and marker the components use lives here
// so rule sets are testable and versionable instead of ambient constants.
type Config struct {
	Rules    RulesConfig    `yaml:"rules"`
	Merge    MergeConfig    `yaml:"merge"`
	Fraud    FraudConfig    `yaml:"fraud"`
	Decision DecisionConfig `yaml:"decision"`
	LLM      LLMConfig      `yaml:"llm"`
	Cache    CacheConfig    `yaml:"cache"`
	Store    StoreConfig    `yaml:"store"`
	Worker   WorkerConfig   `yaml:"worker"`
}

// RulesConfig drives section splitting, field extraction, and the
// deterministic rule evaluator.
type RulesConfig struct {
	// Markers maps each mandatory document to its literal section marker.
	Markers map[DocLabel]string `yaml:"markers"`

	// HeadingAliases are per-label line-start patterns used when no
	// markers are present in the OCR blob.
	HeadingAliases map[DocLabel][]string `yaml:"heading_aliases"`

	// DateLayouts are tried in order; the first successful parse wins.
	DateLayouts []string `yaml:"date_layouts"`

	// VehicleRegPattern matches registration tokens after the text is
	// uppercased and stripped of non-alphanumerics.
	VehicleRegPattern string `yaml:"vehicle_reg_pattern"`

	// Severity keyword lists scored over narrative + FIR text.
	MinorKeywords    []string `yaml:"minor_keywords"`
	ModerateKeywords []string `yaml:"moderate_keywords"`
	MajorKeywords    []string `yaml:"major_keywords"`

	// ContradictionPairs flag narrative/FIR inconsistency: a pair fires
	// when any Narrative term and any FIR term co-occur.
	ContradictionPairs []ContradictionPair `yaml:"contradiction_pairs"`

	// Estimate plausibility ceilings per inferred severity.
	MinorEstimateCeiling    float64 `yaml:"minor_estimate_ceiling"`
	ModerateEstimateCeiling float64 `yaml:"moderate_estimate_ceiling"`

	// FakeEstimatePhrases mark an estimate as unverifiable.
	FakeEstimatePhrases []string `yaml:"fake_estimate_phrases"`

	// CriticalErrors force a REJECT recommendation when present.
	CriticalErrors []string `yaml:"critical_errors"`
}

// ContradictionPair pairs narrative terms against FIR terms.
type ContradictionPair struct {
	Narrative []string `yaml:"narrative"`
	FIR       []string `yaml:"fir"`
}

// MergeConfig drives the multi-source merge engine.
type MergeConfig struct {
	// TauLow is the presence-confidence threshold when the prior fraud
	// score is below FraudPivot; TauHigh applies at or above it.
	TauLow     float64 `yaml:"tau_low"`
	TauHigh    float64 `yaml:"tau_high"`
	FraudPivot float64 `yaml:"fraud_pivot"`

	// CriticalBlockers are the two error strings that force docs_ok=false
	// and a REJECT recommendation regardless of other findings.
	CriticalBlockers []string `yaml:"critical_blockers"`

	// StaleErrors and StaleWarnings map a document label to findings that
	// must be dropped once that document is confirmed present.
	StaleErrors   map[DocLabel][]string `yaml:"stale_errors"`
	StaleWarnings map[DocLabel][]string `yaml:"stale_warnings"`
}

// Tau picks the presence-acceptance threshold for a prior fraud score.
func (m MergeConfig) Tau(priorFraudScore float64) float64 {
	if priorFraudScore < m.FraudPivot {
		return m.TauLow
	}
	return m.TauHigh
}

// FraudConfig drives the fraud scorer floors and decision thresholds.
type FraudConfig struct {
	MissingDocsFloor   float64 `yaml:"missing_docs_floor"`
	CriticalErrorFloor float64 `yaml:"critical_error_floor"`
	NarrativeFloor     float64 `yaml:"narrative_floor"`
	NotOKFloor         float64 `yaml:"not_ok_floor"`

	NameMismatchFloor    float64 `yaml:"name_mismatch_floor"`
	VehicleMismatchFloor float64 `yaml:"vehicle_mismatch_floor"`
	ContradictionFloor   float64 `yaml:"contradiction_floor"`

	// CriticalErrors raise the validation-derived floor to CriticalErrorFloor.
	CriticalErrors []string `yaml:"critical_errors"`

	// SuspectAbove and SafeBelow map the final score to a decision:
	// score > SuspectAbove -> SUSPECT, score < SafeBelow -> SAFE,
	// else MODERATE.
	SuspectAbove float64 `yaml:"suspect_above"`
	SafeBelow    float64 `yaml:"safe_below"`
}

// DecisionConfig drives the decision state machine.
type DecisionConfig struct {
	// EscalationThreshold is the fraud score at which a claim goes to SIU.
	EscalationThreshold float64 `yaml:"escalation_threshold"`

	// EscalateOnWarning blocks auto-approval for any unresolved warning.
	EscalateOnWarning bool `yaml:"escalate_on_warning"`
}

// LLMConfig configures the text-completion collaborator.
type LLMConfig struct {
	Provider  string        `yaml:"provider"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`

	// RatePerSecond and Burst pace completion calls.
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// CacheConfig configures the completion cache.
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// StoreConfig configures the persistence collaborator.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// WorkerConfig configures batch evaluation.
type WorkerConfig struct {
	Workers int `yaml:"workers"`
}

// Error strings shared between the rule evaluator, merge engine, and fraud
// scorer. The exact text is load-bearing: merges deduplicate by string and
// the fraud floors key off these values.
const (
	ErrFIRNotFound          = "FIR not found"
	ErrLicenseExpired       = "Driving License invalid/expired"
	ErrPolicyNotCovering    = "Policy expired or not covering OD"
	ErrVehicleMismatch      = "RC/Policy/FIR vehicle mismatch"
	ErrNarrativeMismatch    = "Claim narrative inconsistent with FIR"
	ErrFakeEstimate         = "Fake or unverifiable repair estimate"
	ErrNonMotorClaim        = "Non-motor claim type or missing claim_type"
	ErrLLMCallFailed        = "LLM_CALL_FAILED"
	ErrLLMTextOnlyFailed    = "LLM_TEXT_ONLY_CALL_FAILED"
	ErrLLMValidationFailed  = "AI_VALIDATION_FAILED"
	WarnEstimateMissing     = "Repair estimate not provided or unclear"
	WarnLicenseUnclear      = "Driving License details unclear"
	WarnPolicyUnclear       = "Policy details unclear"
	WarnPolicyPeriodUnclear = "Policy validity period not clearly parsed"
	WarnCoverageUnclear     = "Policy coverage type not clearly identified (OD/Comprehensive)"
	WarnNameMismatch        = "Customer name mismatch between registration and documents"
	WarnEstimateHighMinor   = "Unusually high repair estimate for minor damage"
	WarnEstimateInflated    = "Repair estimate appears inflated for moderate impact"
	WarnPhotosVsEstimate    = "Photos suggest minor damage but estimate lists major replacements"
)

// NoteNonMotor is the fixed note attached when validation is skipped for a
// non-motor claim.
const NoteNonMotor = "Validation skipped: claim_type is not 'motor'."

// DefaultConfig returns the standard adjudication configuration.
func DefaultConfig() *Config {
	return &Config{
		Rules: RulesConfig{
			Markers: map[DocLabel]string{
				DocFIR:            "=== FIR ===",
				DocDrivingLicense: "=== DRIVING_LICENSE ===",
				DocRCBook:         "=== RC_BOOK ===",
				DocPolicyCopy:     "=== POLICY_COPY ===",
				DocRepairEstimate: "=== REPAIR_ESTIMATE ===",
				DocAccidentPhotos: "=== ACCIDENT_PHOTOS ===",
			},
			HeadingAliases: map[DocLabel][]string{
				DocFIR:            {`^FIR(?:\s*Copy)?\s*:`, `^First\s+Information\s+Report\s*:`},
				DocDrivingLicense: {`^Driving\s*License\s*:`, `^DL\s*:`},
				DocRCBook:         {`^RC\s*Book\s*:`, `^Registration\s*Certificate\s*:`},
				DocPolicyCopy:     {`^Insurance\s*Policy\s*:`, `^Policy\s*(?:Copy|Number)?\s*:`},
				DocRepairEstimate: {`^Repair\s*Estimate\s*:`, `^Estimate\s*:`},
				DocAccidentPhotos: {`^Accident\s*Photo\s*:`, `^Photos?\s*:`},
			},
			// Unpadded day/month layouts accept both "05-01-2026" and "5-1-2026".
			DateLayouts: []string{
				"2-1-2006 15:04:05",
				"2/1/2006 15:04:05",
				"2-1-2006 15:04",
				"2/1/2006 15:04",
				"2-Jan-2006 15:04",
				"2/Jan/2006 15:04",
				"2-1-2006",
				"2/1/2006",
				"2.1.2006",
				"2006-1-2",
				"2006/1/2",
				"2006.1.2",
				"2-Jan-2006",
				"2/Jan/2006",
				"2-January-2006",
				"2/January/2006",
			},
			VehicleRegPattern: `[A-Z]{2}\d{1,2}[A-Z]{1,2}\d{3,4}`,
			MinorKeywords:     []string{"minor", "scratch", "scratches", "grazed", "light", "superficial"},
			ModerateKeywords:  []string{"rear-ended", "rear ended", "hit from rear", "bumper", "tail lamp", "fender", "dent"},
			MajorKeywords:     []string{"head-on", "hit divider", "rollover", "totaled", "airbag deployed", "radiator", "chassis"},
			ContradictionPairs: []ContradictionPair{
				{Narrative: []string{"divider"}, FIR: []string{"rear", "rear-ended", "hit from rear"}},
				{Narrative: []string{"rear", "rear-ended", "hit from rear"}, FIR: []string{"divider"}},
				{Narrative: []string{"minor", "scratch", "scratches", "grazed"}, FIR: []string{"bumper", "headlamp", "radiator", "chassis", "bonnet", "fender"}},
			},
			MinorEstimateCeiling:    50000,
			ModerateEstimateCeiling: 150000,
			FakeEstimatePhrases:     []string{"handwritten", "non-network", "non network", "no gst", "no gstin", "no part", "no part number"},
			CriticalErrors: []string{
				ErrFIRNotFound,
				ErrLicenseExpired,
				ErrPolicyNotCovering,
				ErrVehicleMismatch,
				ErrNarrativeMismatch,
				ErrFakeEstimate,
			},
		},
		Merge: MergeConfig{
			TauLow:     0.75,
			TauHigh:    0.85,
			FraudPivot: 0.6,
			CriticalBlockers: []string{
				ErrLicenseExpired,
				ErrPolicyNotCovering,
			},
			StaleErrors: map[DocLabel][]string{
				DocFIR: {ErrFIRNotFound},
			},
			StaleWarnings: map[DocLabel][]string{
				DocRepairEstimate: {WarnEstimateMissing},
			},
		},
		Fraud: FraudConfig{
			MissingDocsFloor:     0.35,
			CriticalErrorFloor:   0.70,
			NarrativeFloor:       0.60,
			NotOKFloor:           0.35,
			NameMismatchFloor:    0.45,
			VehicleMismatchFloor: 0.60,
			ContradictionFloor:   0.55,
			CriticalErrors: []string{
				ErrPolicyNotCovering,
				ErrLicenseExpired,
				ErrVehicleMismatch,
				ErrFakeEstimate,
				ErrFIRNotFound,
			},
			SuspectAbove: 0.6,
			SafeBelow:    0.3,
		},
		Decision: DecisionConfig{
			EscalationThreshold: 0.70,
			EscalateOnWarning:   true,
		},
		LLM: LLMConfig{
			Provider:      "",
			Model:         "",
			Timeout:       30 * time.Second,
			MaxTokens:     1200,
			RatePerSecond: 2,
			Burst:         4,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             15 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Store: StoreConfig{
			Path: "claimpilot.db",
		},
		Worker: WorkerConfig{
			Workers: 4,
		},
	}
}

package model

// ClaimFacts is the immutable input snapshot for one evaluation.
// It is owned by the caller; the core reads it and never mutates it.
type ClaimFacts struct {
	TransactionID string  `json:"transaction_id" yaml:"transaction_id"`
	ClaimID       string  `json:"claim_id" yaml:"claim_id"`
	CustomerName  string  `json:"customer_name" yaml:"customer_name"`
	PolicyNumber  string  `json:"policy_number" yaml:"policy_number"`
	ClaimType     string  `json:"claim_type" yaml:"claim_type"`
	Amount        float64 `json:"amount" yaml:"amount"`

	// Narrative is the customer's free-text accident description.
	Narrative string `json:"narrative" yaml:"narrative"`

	// DocumentText is the aggregated OCR text of all uploaded documents,
	// optionally delimited by section markers.
	DocumentText string `json:"document_text" yaml:"document_text"`

	// PriorFraudScore is the persisted fraud score from an earlier pass,
	// used only to pick the presence-acceptance threshold.
	PriorFraudScore float64 `json:"prior_fraud_score,omitempty" yaml:"prior_fraud_score,omitempty"`
}

// ClaimTypeMotor is the only claim type the adjudication rules apply to.
const ClaimTypeMotor = "motor"

// DocLabel identifies one of the mandatory document kinds.
type DocLabel string

const (
	DocFIR            DocLabel = "FIR"
	DocDrivingLicense DocLabel = "DRIVING_LICENSE"
	DocRCBook         DocLabel = "RC_BOOK"
	DocPolicyCopy     DocLabel = "POLICY_COPY"
	DocRepairEstimate DocLabel = "REPAIR_ESTIMATE"
	DocAccidentPhotos DocLabel = "ACCIDENT_PHOTOS"
)

// AllDocLabels lists the mandatory documents in canonical order.
// Iterating this slice, never a map, keeps findings deterministic.
func AllDocLabels() []DocLabel {
	return []DocLabel{
		DocFIR,
		DocDrivingLicense,
		DocRCBook,
		DocPolicyCopy,
		DocRepairEstimate,
		DocAccidentPhotos,
	}
}

// Coverage classifies the policy type derived from policy text.
type Coverage string

const (
	CoverageComprehensive Coverage = "COMPREHENSIVE"
	CoverageOD            Coverage = "OD"
	CoverageTPOnly        Coverage = "TP_ONLY"
	CoverageUnknown       Coverage = "UNKNOWN"
)

// Severity is the inferred damage severity from narrative and FIR text.
type Severity string

const (
	SeverityMinor    Severity = "MINOR"
	SeverityModerate Severity = "MODERATE"
	SeverityMajor    Severity = "MAJOR"
)

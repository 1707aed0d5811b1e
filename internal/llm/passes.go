package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/claimpilot/claimpilot/internal/model"
)

// The core issues three prompts per claim: a text-only presence pass, a
// full validation pass seeded with the deterministic findings, and a fraud
// assessment pass. Each has a decoder that always yields a complete payload,
// plus a Failed* constructor used when the completion call itself fails.

// DocEvidence is the text-only pass's verdict on one document.
type DocEvidence struct {
	Present    bool     `json:"present"`
	Confidence float64  `json:"confidence"`
	Citations  []string `json:"citations"`
}

// PresenceReport is the decoded output of the text-only presence pass.
type PresenceReport struct {
	Docs            map[model.DocLabel]DocEvidence `json:"docs"`
	RequiredMissing []model.DocLabel               `json:"required_missing"`
	Warnings        []string                       `json:"warnings"`
	Errors          []string                       `json:"errors"`
	DocsOK          bool                           `json:"docs_ok"`
	Recommendation  model.Recommendation           `json:"recommendation"`
	Note            string                         `json:"note"`
}

// FraudEstimate is the decoded output of the fraud assessment pass.
// The decision label is informational only; thresholds on the final
// score decide the real outcome.
type FraudEstimate struct {
	Score    float64             `json:"fraud_score"`
	Decision model.FraudDecision `json:"fraud_decision"`
}

// BuildPresencePrompt asks for per-document presence inferred from OCR text
// alone, with confidence and citations. No pre-computed findings are shared
// so this pass stays independent of the deterministic layer.
func BuildPresencePrompt(facts model.ClaimFacts) string {
	narrative := orDefault(facts.Narrative, "No accident description provided.")
	docs := orDefault(facts.DocumentText, "No OCR available.")

	var b strings.Builder
	b.WriteString("You are a Senior Motor Insurance Claim Validation Officer.\n")
	b.WriteString("Work strictly from the OCR text. Do not assume any files exist beyond the OCR content below.\n\n")
	b.WriteString("OCR TEXT (verbatim)\n-------------------\n")
	b.WriteString(docs)
	b.WriteString("\n\nACCIDENT DESCRIPTION\n--------------------\n")
	b.WriteString(narrative)
	b.WriteString("\n\nTASKS\n-----\n")
	b.WriteString("1) Determine presence of these documents from OCR text only (true/false):\n")
	for _, label := range model.AllDocLabels() {
		fmt.Fprintf(&b, "   - %s\n", label)
	}
	b.WriteString("2) Validate policy period, DL validity on the incident date, and vehicle registration consistency across FIR/RC/Policy.\n")
	b.WriteString("3) Provide confidence [0..1] per document presence and citations: short substrings from the OCR that justify your decision.\n")
	b.WriteString("4) Produce strict JSON with this schema ONLY (no extra keys, no extra text):\n")
	b.WriteString(`{
  "docs": {
    "FIR": {"present": false, "confidence": 0.0, "citations": ["..."]},
    "DRIVING_LICENSE": {"present": false, "confidence": 0.0, "citations": ["..."]},
    "RC_BOOK": {"present": false, "confidence": 0.0, "citations": ["..."]},
    "POLICY_COPY": {"present": false, "confidence": 0.0, "citations": ["..."]},
    "REPAIR_ESTIMATE": {"present": false, "confidence": 0.0, "citations": ["..."]},
    "ACCIDENT_PHOTOS": {"present": false, "confidence": 0.0, "citations": ["..."]}
  },
  "required_missing": ["..."],
  "warnings": ["..."],
  "errors": ["..."],
  "docs_ok": false,
  "recommendation": "APPROVE|NEED_MORE_DOCUMENTS|REJECT",
  "note": "Short, <=5 lines, cite which checks passed/failed."
}`)
	b.WriteString("\n\nRULES\n-----\n")
	b.WriteString("- If any mandatory document is absent in the OCR, include it in required_missing and set docs_ok=false.\n")
	b.WriteString("- If presence is asserted, include at least one citation snippet that appears in the OCR text.\n")
	b.WriteString("- Be conservative if evidence is weak; lower confidence instead of guessing.\n")
	return b.String()
}

// BuildValidationPrompt asks for a complete findings object, seeded with
// the deterministic pre-validation so the model audits rather than starts
// from scratch.
func BuildValidationPrompt(facts model.ClaimFacts, pre model.Findings) string {
	narrative := orDefault(facts.Narrative, "No accident description provided.")
	docs := orDefault(facts.DocumentText, "No supporting documents uploaded.")

	preMissing, _ := json.Marshal(pre.RequiredMissing)
	preWarnings, _ := json.Marshal(pre.Warnings)
	preErrors, _ := json.Marshal(pre.Errors)

	var b strings.Builder
	b.WriteString("You are a Senior Motor Insurance Claim Validation Officer.\n")
	b.WriteString("You must act as a strict auditor.\n\n")
	b.WriteString("INPUTS\n------\n")
	b.WriteString("Claim Metadata:\n")
	fmt.Fprintf(&b, "- Transaction ID: %s\n", facts.TransactionID)
	fmt.Fprintf(&b, "- Claim ID: %s\n", facts.ClaimID)
	fmt.Fprintf(&b, "- Customer Name: %s\n", facts.CustomerName)
	fmt.Fprintf(&b, "- Policy Number: %s\n", facts.PolicyNumber)
	fmt.Fprintf(&b, "- Claim Type: %s\n", facts.ClaimType)
	fmt.Fprintf(&b, "- Claimed Amount: %.2f\n\n", facts.Amount)
	b.WriteString("Accident Description (from customer):\n")
	b.WriteString(narrative)
	b.WriteString("\n\nUploaded Document OCR (verbatim):\n")
	b.WriteString(docs)
	b.WriteString("\n\nMANDATORY DOCUMENTS (Must be present)\n")
	for _, label := range model.AllDocLabels() {
		fmt.Fprintf(&b, "- %s\n", label)
	}
	b.WriteString("\nLOCAL DETERMINISTIC FINDINGS (from pre-validation)\n")
	fmt.Fprintf(&b, "- required_missing: %s\n", preMissing)
	fmt.Fprintf(&b, "- warnings: %s\n", preWarnings)
	fmt.Fprintf(&b, "- errors: %s\n", preErrors)
	fmt.Fprintf(&b, "- docs_ok: %t\n", pre.DocsOK)
	fmt.Fprintf(&b, "- local_recommendation: %s\n\n", pre.Recommendation)
	b.WriteString("YOUR TASK\n---------\n")
	b.WriteString("1) Verify presence of all mandatory documents (do not rely only on headings; check content).\n")
	b.WriteString("2) Check narrative consistency between Description and FIR.\n")
	b.WriteString("3) Check DL validity on incident date.\n")
	b.WriteString("4) Check Policy validity and whether OD/Comprehensive coverage applies.\n")
	b.WriteString("5) Verify vehicle consistency (RC/Policy/FIR registration numbers).\n")
	b.WriteString("6) Evaluate repair estimate plausibility (inflation vs severity & photos).\n")
	b.WriteString("7) Identify fake/unverifiable estimates (non-network, no GSTIN, no part numbers).\n")
	b.WriteString("8) Provide actionable notes for a human manager.\n\n")
	b.WriteString("STRICT OUTPUT (Return ONLY valid JSON, no extra text):\n")
	b.WriteString(`{
  "required_missing": ["FIR","DRIVING_LICENSE","RC_BOOK","POLICY_COPY","REPAIR_ESTIMATE","ACCIDENT_PHOTOS"],
  "warnings": ["..."],
  "errors": ["..."],
  "docs_ok": true,
  "note": "Short, specific reasoning referencing which checks passed/failed.",
  "recommendation": "APPROVE | NEED_MORE_DOCUMENTS | REJECT"
}`)
	b.WriteString("\n\nRULES\n-----\n")
	b.WriteString("- If any mandatory document is missing -> recommendation = \"NEED_MORE_DOCUMENTS\".\n")
	b.WriteString("- If policy expired or DL invalid -> recommendation = \"REJECT\".\n")
	b.WriteString("- If all documents present and no critical errors -> \"APPROVE\".\n")
	b.WriteString("- Keep note concise (<= 5 lines) but specific.\n")
	return b.String()
}

// BuildFraudPrompt asks for a fraud score and decision in light of the
// merged validation findings.
func BuildFraudPrompt(facts model.ClaimFacts, findings model.Findings) string {
	var b strings.Builder
	b.WriteString("You are a Motor Insurance Fraud Risk Assessment Officer.\n\n")
	b.WriteString("Assess fraud risk for the claim below and respond ONLY in JSON.\n\n")
	b.WriteString("Claim Details from customer:\n")
	fmt.Fprintf(&b, "- Customer: %s\n", facts.CustomerName)
	fmt.Fprintf(&b, "- Claimed Amount: %.2f\n", facts.Amount)
	fmt.Fprintf(&b, "- Description: %s\n\n", facts.Narrative)
	b.WriteString("OCR Documents (verbatim):\n")
	b.WriteString(strings.TrimSpace(facts.DocumentText))
	b.WriteString("\n\nValidation Findings:\n")
	missing, _ := json.Marshal(findings.RequiredMissing)
	warnings, _ := json.Marshal(findings.Warnings)
	errs, _ := json.Marshal(findings.Errors)
	fmt.Fprintf(&b, "- Missing Documents: %s\n", missing)
	fmt.Fprintf(&b, "- Warnings: %s\n", warnings)
	fmt.Fprintf(&b, "- Errors: %s\n", errs)
	fmt.Fprintf(&b, "- Officer Note: %s\n", findings.Note)
	fmt.Fprintf(&b, "- Validation Recommendation: %s\n\n", findings.Recommendation)
	b.WriteString("Guidelines:\n")
	b.WriteString("- Increase fraud risk if: FIR missing, DL missing/expired, RC/Policy mismatch,\n")
	b.WriteString("  policy expired/no OD cover, narrative inconsistency, unusually high/inflated estimate,\n")
	b.WriteString("  or validation recommendation is REJECT.\n")
	b.WriteString("- Medium risk if: NEED_MORE_DOCUMENTS or minor inconsistencies.\n")
	b.WriteString("- Low risk if: APPROVE and no warnings/errors.\n\n")
	b.WriteString("Return ONLY this JSON (no extra text):\n")
	b.WriteString(`{
  "fraud_score": 0.0,
  "fraud_decision": "SAFE"
}`)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- fraud_score in [0..1]\n")
	b.WriteString("- fraud_decision must be one of: SAFE, MODERATE, SUSPECT\n")
	return b.String()
}

// DecodePresence parses text-only pass output. Any label the model omitted
// decodes as absent with zero confidence; unparseable output decodes to the
// all-absent fallback.
func DecodePresence(raw string) PresenceReport {
	report := fallbackPresence()

	obj, ok := ExtractObject(raw)
	if !ok {
		return report
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return report
	}

	if docsRaw, ok := fields["docs"]; ok {
		var docs map[string]json.RawMessage
		if err := json.Unmarshal(docsRaw, &docs); err == nil {
			for _, label := range model.AllDocLabels() {
				entry, ok := docs[string(label)]
				if !ok {
					continue
				}
				var ev map[string]json.RawMessage
				if err := json.Unmarshal(entry, &ev); err != nil {
					continue
				}
				report.Docs[label] = DocEvidence{
					Present:    asBool(ev["present"]),
					Confidence: clamp01(asFloat(ev["confidence"])),
					Citations:  asStrings(ev["citations"]),
				}
			}
		}
	}

	report.RequiredMissing = asLabels(fields["required_missing"])
	report.Warnings = asStrings(fields["warnings"])
	report.Errors = asStrings(fields["errors"])
	report.DocsOK = asBool(fields["docs_ok"])
	report.Recommendation = sanitizeRecommendation(asString(fields["recommendation"]), model.RecommendMoreDocs)
	report.Note = strings.TrimSpace(asString(fields["note"]))
	return report
}

// FailedPresence is the safe default when the text-only call itself fails.
func FailedPresence() PresenceReport {
	report := fallbackPresence()
	report.Errors = []string{model.ErrLLMTextOnlyFailed}
	report.Note = "Text-only LLM call failed."
	return report
}

func fallbackPresence() PresenceReport {
	docs := make(map[model.DocLabel]DocEvidence, len(model.AllDocLabels()))
	for _, label := range model.AllDocLabels() {
		docs[label] = DocEvidence{}
	}
	return PresenceReport{
		Docs:            docs,
		RequiredMissing: []model.DocLabel{},
		Warnings:        []string{},
		Errors:          []string{},
		DocsOK:          false,
		Recommendation:  model.RecommendMoreDocs,
		Note:            "",
	}
}

// DecodeValidation parses full-validation pass output into the normalized
// findings shape. Unparseable output decodes to a fixed failure payload.
func DecodeValidation(raw string) model.Findings {
	obj, ok := ExtractObject(raw)
	if !ok {
		return model.Findings{
			RequiredMissing: []model.DocLabel{},
			Warnings:        []string{},
			Errors:          []string{model.ErrLLMValidationFailed},
			DocsOK:          false,
			Note:            "AI validation could not process uploaded claim documents.",
			Recommendation:  model.RecommendMoreDocs,
		}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return FailedValidation()
	}
	return model.Findings{
		RequiredMissing: asLabels(fields["required_missing"]),
		Warnings:        asStrings(fields["warnings"]),
		Errors:          asStrings(fields["errors"]),
		DocsOK:          asBool(fields["docs_ok"]),
		Note:            strings.TrimSpace(asString(fields["note"])),
		Recommendation:  sanitizeRecommendation(asString(fields["recommendation"]), ""),
	}
}

// FailedValidation is the safe default when the full-validation call fails.
func FailedValidation() model.Findings {
	return model.Findings{
		RequiredMissing: []model.DocLabel{},
		Warnings:        []string{},
		Errors:          []string{model.ErrLLMCallFailed},
		DocsOK:          false,
		Note:            "LLM call failed",
		Recommendation:  model.RecommendMoreDocs,
	}
}

// DecodeFraud parses fraud pass output; failure decodes to a zero score,
// which leaves the deterministic floors in charge.
func DecodeFraud(raw string) FraudEstimate {
	est := FraudEstimate{Score: 0.0, Decision: model.FraudSafe}

	obj, ok := ExtractObject(raw)
	if !ok {
		return est
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return est
	}

	est.Score = clamp01(asFloat(fields["fraud_score"]))
	switch model.FraudDecision(strings.ToUpper(strings.TrimSpace(asString(fields["fraud_decision"])))) {
	case model.FraudModerate:
		est.Decision = model.FraudModerate
	case model.FraudSuspect:
		est.Decision = model.FraudSuspect
	default:
		est.Decision = model.FraudSafe
	}
	return est
}

// Lenient field readers: a wrong type decodes as the zero value instead of
// poisoning the whole payload.

func asString(raw json.RawMessage) string {
	var s string
	if raw != nil && json.Unmarshal(raw, &s) == nil {
		return s
	}
	return ""
}

func asBool(raw json.RawMessage) bool {
	var b bool
	if raw != nil && json.Unmarshal(raw, &b) == nil {
		return b
	}
	return false
}

func asFloat(raw json.RawMessage) float64 {
	var f float64
	if raw != nil && json.Unmarshal(raw, &f) == nil {
		return f
	}
	// Some models quote numbers.
	var s string
	if raw != nil && json.Unmarshal(raw, &s) == nil {
		var quoted float64
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%g", &quoted); err == nil {
			return quoted
		}
	}
	return 0
}

func asStrings(raw json.RawMessage) []string {
	var out []string
	if raw != nil && json.Unmarshal(raw, &out) == nil && out != nil {
		return out
	}
	return []string{}
}

func asLabels(raw json.RawMessage) []model.DocLabel {
	labels := []model.DocLabel{}
	for _, s := range asStrings(raw) {
		labels = append(labels, model.DocLabel(strings.ToUpper(strings.TrimSpace(s))))
	}
	return labels
}

func sanitizeRecommendation(s string, fallback model.Recommendation) model.Recommendation {
	switch model.Recommendation(strings.ToUpper(strings.TrimSpace(s))) {
	case model.RecommendApprove:
		return model.RecommendApprove
	case model.RecommendMoreDocs:
		return model.RecommendMoreDocs
	case model.RecommendReject:
		return model.RecommendReject
	default:
		return fallback
	}
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

func orDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/claimpilot/claimpilot/internal/model"
)

// Fields holds the structured values extracted from one claim's sections.
// Absence of a section yields nil/zero fields, never a parse error.
type Fields struct {
	Sections map[model.DocLabel]string

	IncidentDate   *time.Time
	LicenseValidTo *time.Time
	PolicyStart    *time.Time
	PolicyEnd      *time.Time
	Coverage       model.Coverage

	// Registrations are distinct vehicle-registration tokens found across
	// the FIR, RC and policy sections, in sorted order.
	Registrations []string

	// NamedParty is the first named party found across DL, policy and FIR.
	NamedParty string

	EstimateTotal *float64
	Severity      model.Severity
}

// FieldExtractor applies the per-section heuristics. All patterns are
// compiled once at construction.
type FieldExtractor struct {
	cfg         model.RulesConfig
	numericDate *regexp.Regexp
	monthDate   *regexp.Regexp
	validTo     *regexp.Regexp
	regToken    *regexp.Regexp
	nonAlnum    *regexp.Regexp
	nameField   *regexp.Regexp
	totalField  *regexp.Regexp
	numToken    *regexp.Regexp
}

// NewFieldExtractor compiles the extraction patterns for the given rules.
func NewFieldExtractor(cfg model.RulesConfig) *FieldExtractor {
	return &FieldExtractor{
		cfg:         cfg,
		numericDate: regexp.MustCompile(`\d{1,4}[-/.]\d{1,2}[-/.]\d{2,4}(?: \d{1,2}:\d{2}(?::\d{2})?)?`),
		monthDate:   regexp.MustCompile(`\d{1,2}[-/][A-Za-z]{3,9}[-/]\d{2,4}(?: \d{1,2}:\d{2})?`),
		validTo: regexp.MustCompile(`(?i)Valid\s*(?:To|Until)\s*:?\s*(` +
			`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}(?: \d{1,2}:\d{2}(?::\d{2})?)?|` +
			`\d{1,2}[-/][A-Za-z]{3,9}[-/]\d{2,4})`),
		regToken:   regexp.MustCompile(cfg.VehicleRegPattern),
		nonAlnum:   regexp.MustCompile(`[^A-Za-z0-9]`),
		// The name capture stays on one line: \s would run into the next field.
		nameField:  regexp.MustCompile(`(?i)(?:Name|Insured|Owner|Complainant)[ \t]*:[ \t]*([A-Za-z][A-Za-z \t.\-']+)`),
		totalField: regexp.MustCompile(`(?i)Total[^0-9]*([\d,]+(?:\.\d+)?)`),
		numToken:   regexp.MustCompile(`[\d,]+(?:\.\d+)?`),
	}
}

// Parse extracts all fields for one claim from its split sections.
func (x *FieldExtractor) Parse(narrative string, sections map[model.DocLabel]string) Fields {
	fir := sections[model.DocFIR]
	dl := sections[model.DocDrivingLicense]
	rc := sections[model.DocRCBook]
	policy := sections[model.DocPolicyCopy]
	estimate := sections[model.DocRepairEstimate]

	f := Fields{
		Sections: sections,
		Coverage: model.CoverageUnknown,
		Severity: x.InferSeverity(narrative, fir),
	}

	f.IncidentDate = x.FirstDate(narrative)
	if f.IncidentDate == nil {
		f.IncidentDate = x.FirstDate(fir)
	}

	if dl != "" {
		f.LicenseValidTo = x.LicenseValidTo(dl)
	}
	if policy != "" {
		f.PolicyStart, f.PolicyEnd, f.Coverage = x.PolicyPeriod(policy)
	}

	f.Registrations = x.VehicleRegs(fir + "\n" + rc + "\n" + policy)
	f.NamedParty = x.NamedParty(strings.Join([]string{dl, policy, fir}, "\n"))

	if estimate != "" {
		f.EstimateTotal = x.EstimateTotal(estimate)
	}

	return f
}

// ParseDate tries the configured layouts in order; the first match wins.
// A token matching no layout yields nil.
func (x *FieldExtractor) ParseDate(token string) *time.Time {
	token = strings.TrimSpace(token)
	for _, layout := range x.cfg.DateLayouts {
		if t, err := time.Parse(layout, token); err == nil {
			return &t
		}
	}
	return nil
}

// FirstDate returns the first parseable date-like token in the text.
func (x *FieldExtractor) FirstDate(text string) *time.Time {
	for _, token := range x.dateTokens(text) {
		if t := x.ParseDate(token); t != nil {
			return t
		}
	}
	return nil
}

// dateTokens finds date-like tokens in document order, numeric and
// month-name forms interleaved by position.
func (x *FieldExtractor) dateTokens(text string) []string {
	type hit struct {
		pos   int
		token string
	}
	var hits []hit
	for _, loc := range x.numericDate.FindAllStringIndex(text, -1) {
		hits = append(hits, hit{pos: loc[0], token: text[loc[0]:loc[1]]})
	}
	for _, loc := range x.monthDate.FindAllStringIndex(text, -1) {
		hits = append(hits, hit{pos: loc[0], token: text[loc[0]:loc[1]]})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	tokens := make([]string, len(hits))
	for i, h := range hits {
		tokens[i] = h.token
	}
	return tokens
}

// LicenseValidTo picks the "Valid To"/"Valid Until" date from a license
// block, falling back to the first date in the block.
func (x *FieldExtractor) LicenseValidTo(dlText string) *time.Time {
	if m := x.validTo.FindStringSubmatch(dlText); m != nil {
		if t := x.ParseDate(m[1]); t != nil {
			return t
		}
	}
	return x.FirstDate(dlText)
}

// VehicleRegs strips non-alphanumerics, uppercases, and returns the sorted
// set of distinct registration tokens.
func (x *FieldExtractor) VehicleRegs(text string) []string {
	flat := x.nonAlnum.ReplaceAllString(strings.ToUpper(text), "")
	seen := make(map[string]bool)
	var regs []string
	for _, m := range x.regToken.FindAllString(flat, -1) {
		if !seen[m] {
			seen[m] = true
			regs = append(regs, m)
		}
	}
	sort.Strings(regs)
	return regs
}

// NamedParty pulls the first Name/Insured/Owner/Complainant field value.
func (x *FieldExtractor) NamedParty(text string) string {
	if m := x.nameField.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// PolicyPeriod parses the policy validity window and coverage class.
// Period dates come from the line mentioning period/valid/validity; when
// that line yields fewer than two dates the whole block is scanned and the
// first two date tokens in document order become start and end.
func (x *FieldExtractor) PolicyPeriod(text string) (start, end *time.Time, coverage model.Coverage) {
	coverage = model.CoverageUnknown
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "comprehensive"), strings.Contains(lower, "od + tp"), strings.Contains(lower, "od+tp"):
		coverage = model.CoverageComprehensive
	case strings.Contains(lower, "tp only"), strings.Contains(lower, "third party only"), strings.Contains(lower, "third-party only"):
		coverage = model.CoverageTPOnly
	case strings.Contains(lower, "own damage"), strings.Contains(lower, "od cover"):
		coverage = model.CoverageOD
	}

	var periodLine string
	for _, line := range strings.Split(text, "\n") {
		l := strings.ToLower(line)
		if strings.Contains(l, "period") || strings.Contains(l, "valid") || strings.Contains(l, "validity") {
			periodLine = line
			break
		}
	}

	if periodLine != "" {
		if dates := x.allDates(periodLine); len(dates) >= 2 {
			return dates[0], dates[1], coverage
		}
	}
	if dates := x.allDates(text); len(dates) >= 2 {
		return dates[0], dates[1], coverage
	}
	return nil, nil, coverage
}

func (x *FieldExtractor) allDates(text string) []*time.Time {
	var dates []*time.Time
	for _, token := range x.dateTokens(text) {
		if t := x.ParseDate(token); t != nil {
			dates = append(dates, t)
		}
	}
	return dates
}

// EstimateTotal prefers an explicit "Total: <number>" token, otherwise sums
// every numeric token in the block. No positive numeric content yields nil.
func (x *FieldExtractor) EstimateTotal(text string) *float64 {
	if m := x.totalField.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			return &v
		}
	}

	var sum float64
	for _, token := range x.numToken.FindAllString(text, -1) {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64); err == nil {
			sum += v
		}
	}
	if sum > 0 {
		return &sum
	}
	return nil
}

// InferSeverity scores severity keywords over the narrative concatenated
// with the FIR body: -1 for any minor hit, +1 moderate, +2 major.
// score <= 0 -> MINOR, == 1 -> MODERATE, else MAJOR.
func (x *FieldExtractor) InferSeverity(narrative, firText string) model.Severity {
	t := strings.ToLower(narrative + "\n" + firText)

	score := 0
	if containsAny(t, x.cfg.MinorKeywords) {
		score--
	}
	if containsAny(t, x.cfg.ModerateKeywords) {
		score++
	}
	if containsAny(t, x.cfg.MajorKeywords) {
		score += 2
	}

	switch {
	case score <= 0:
		return model.SeverityMinor
	case score == 1:
		return model.SeverityModerate
	default:
		return model.SeverityMajor
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

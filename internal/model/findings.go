package model

import (
	"fmt"
	"strings"
)

// Recommendation is the validation outcome for a claim.
type Recommendation string

const (
	RecommendApprove  Recommendation = "APPROVE"
	RecommendMoreDocs Recommendation = "NEED_MORE_DOCUMENTS"
	RecommendReject   Recommendation = "REJECT"
)

// Rank orders recommendations by severity: REJECT(3) > NEED_MORE_DOCUMENTS(2)
// > APPROVE(1). Unknown values rank as APPROVE.
func (r Recommendation) Rank() int {
	switch Recommendation(strings.ToUpper(string(r))) {
	case RecommendReject:
		return 3
	case RecommendMoreDocs:
		return 2
	default:
		return 1
	}
}

// MaxRecommendation returns the more severe of two recommendations.
// On a tie the first argument wins, so deterministic findings take
// precedence over LLM findings of equal severity.
func MaxRecommendation(a, b Recommendation) Recommendation {
	if a.Rank() >= b.Rank() {
		return a
	}
	return b
}

// Findings is the normalized validation result shape shared by all three
// sources (deterministic, text-only LLM, full LLM) and by the final merge.
type Findings struct {
	RequiredMissing []DocLabel     `json:"required_missing"`
	Warnings        []string       `json:"warnings"`
	Errors          []string       `json:"errors"`
	DocsOK          bool           `json:"docs_ok"`
	Note            string         `json:"note"`
	Recommendation  Recommendation `json:"recommendation"`
}

// HasError reports whether the exact error string is present.
func (f Findings) HasError(msg string) bool {
	for _, e := range f.Errors {
		if e == msg {
			return true
		}
	}
	return false
}

// HasWarning reports whether the exact warning string is present.
func (f Findings) HasWarning(msg string) bool {
	for _, w := range f.Warnings {
		if w == msg {
			return true
		}
	}
	return false
}

// MissingSet returns the required-missing labels as a lookup set.
func (f Findings) MissingSet() map[DocLabel]bool {
	set := make(map[DocLabel]bool, len(f.RequiredMissing))
	for _, l := range f.RequiredMissing {
		set[l] = true
	}
	return set
}

// ComposeNote builds the canonical note from findings segments.
// The note is never blank: when nothing was found, empty is the
// given fallback sentence.
func ComposeNote(f Findings, sep, fallback string) string {
	var parts []string
	if len(f.RequiredMissing) > 0 {
		labels := make([]string, len(f.RequiredMissing))
		for i, l := range f.RequiredMissing {
			labels[i] = string(l)
		}
		parts = append(parts, fmt.Sprintf("Missing: %s", strings.Join(labels, ", ")))
	}
	if len(f.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("Errors: %s", strings.Join(f.Errors, ", ")))
	}
	if len(f.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("Warnings: %s", strings.Join(f.Warnings, ", ")))
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, sep)
}

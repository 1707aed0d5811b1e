// Package merge reconciles the three validation sources (deterministic
// rules, text-only LLM pass, full LLM pass) into one findings object.
package merge

import (
	"sort"

	"github.com/claimpilot/claimpilot/internal/llm"
	"github.com/claimpilot/claimpilot/internal/model"
)

// MergedNoteFallback is the note used when the merged findings are clean.
const MergedNoteFallback = "All mandatory checks passed; no critical findings."

// Sources carries one claim's findings from each validation source.
// TextOnly and Full are nil when the corresponding pass did not run,
// for example when no LLM provider is configured.
type Sources struct {
	Deterministic model.Findings
	TextOnly      *llm.PresenceReport
	Full          *model.Findings

	// PriorFraudScore selects the presence-confidence threshold: claims
	// with a suspicious history need stronger text evidence.
	PriorFraudScore float64
}

// Merger applies the reconciliation policy from MergeConfig.
type Merger struct {
	cfg model.MergeConfig
}

// NewMerger builds a merger for the given policy.
func NewMerger(cfg model.MergeConfig) *Merger {
	return &Merger{cfg: cfg}
}

// Merge reconciles the sources into final findings.
//
// Presence is optimistic across sources: a document counts as present when
// the deterministic pass saw its marker, the full LLM pass did not list it
// missing, or the text-only pass asserted it with confidence at or above
// tau and at least one citation. Warnings and errors are the sorted union
// of all sources, minus findings made stale by confirmed presence.
func (m *Merger) Merge(src Sources) model.Findings {
	tau := m.cfg.Tau(src.PriorFraudScore)

	detMissing := src.Deterministic.MissingSet()
	fullHealthy := src.Full != nil && !sourceFailed(*src.Full)
	var fullMissing map[model.DocLabel]bool
	if fullHealthy {
		fullMissing = src.Full.MissingSet()
	}
	textHealthy := src.TextOnly != nil && !textOnlyFailed(*src.TextOnly)

	present := make(map[model.DocLabel]bool, len(model.AllDocLabels()))
	missing := []model.DocLabel{}
	for _, label := range model.AllDocLabels() {
		ok := !detMissing[label]
		if !ok && fullHealthy {
			ok = !fullMissing[label]
		}
		if !ok && textHealthy {
			ev := src.TextOnly.Docs[label]
			ok = ev.Present && ev.Confidence >= tau && len(ev.Citations) > 0
		}
		present[label] = ok
		if !ok {
			missing = append(missing, label)
		}
	}

	warnings := unionSorted(
		src.Deterministic.Warnings,
		textOnlyWarnings(src.TextOnly),
		fullWarnings(src.Full),
	)
	errors := unionSorted(
		src.Deterministic.Errors,
		textOnlyErrors(src.TextOnly),
		fullErrors(src.Full),
	)

	// Confirmed presence invalidates absence-driven findings, whichever
	// source raised them.
	for label, stale := range m.cfg.StaleErrors {
		if present[label] {
			errors = drop(errors, stale)
		}
	}
	for label, stale := range m.cfg.StaleWarnings {
		if present[label] {
			warnings = drop(warnings, stale)
		}
	}

	blocked := m.hasBlocker(errors)
	merged := model.Findings{
		RequiredMissing: missing,
		Warnings:        warnings,
		Errors:          errors,
		DocsOK:          len(missing) == 0 && !blocked,
	}
	merged.Recommendation = m.recommend(merged, src, blocked)
	merged.Note = model.ComposeNote(merged, " | ", MergedNoteFallback)
	return merged
}

// recommend takes the more severe of the deterministic and full-validation
// recommendations (the presence pass never escalates the verdict), then
// applies the merged-state overrides: confirmed missing documents demand
// more documents, a critical blocker forces rejection, and docs_ok forces
// approval even when a soft-failed LLM pass recommended caution.
func (m *Merger) recommend(merged model.Findings, src Sources, blocked bool) model.Recommendation {
	rec := src.Deterministic.Recommendation
	if src.Full != nil {
		rec = model.MaxRecommendation(rec, src.Full.Recommendation)
	}

	if len(merged.RequiredMissing) > 0 {
		rec = model.MaxRecommendation(rec, model.RecommendMoreDocs)
	}
	if blocked {
		return model.RecommendReject
	}
	if merged.DocsOK {
		return model.RecommendApprove
	}
	return rec
}

func (m *Merger) hasBlocker(errors []string) bool {
	for _, e := range errors {
		for _, b := range m.cfg.CriticalBlockers {
			if e == b {
				return true
			}
		}
	}
	return false
}

func sourceFailed(f model.Findings) bool {
	return f.HasError(model.ErrLLMCallFailed) || f.HasError(model.ErrLLMValidationFailed)
}

func textOnlyFailed(r llm.PresenceReport) bool {
	for _, e := range r.Errors {
		if e == model.ErrLLMTextOnlyFailed {
			return true
		}
	}
	return false
}

func textOnlyWarnings(r *llm.PresenceReport) []string {
	if r == nil {
		return nil
	}
	return r.Warnings
}

func textOnlyErrors(r *llm.PresenceReport) []string {
	if r == nil {
		return nil
	}
	return r.Errors
}

func fullWarnings(f *model.Findings) []string {
	if f == nil {
		return nil
	}
	return f.Warnings
}

func fullErrors(f *model.Findings) []string {
	if f == nil {
		return nil
	}
	return f.Errors
}

func unionSorted(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, list := range lists {
		for _, s := range list {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func drop(list, remove []string) []string {
	if len(remove) == 0 {
		return list
	}
	gone := make(map[string]bool, len(remove))
	for _, s := range remove {
		gone[s] = true
	}
	out := list[:0]
	for _, s := range list {
		if !gone[s] {
			out = append(out, s)
		}
	}
	return out
}

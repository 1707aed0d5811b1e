// Package pipeline orchestrates one claim's adjudication: extraction,
// deterministic rules, the two LLM evidence passes, merge, fraud scoring,
// and the final decision.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/claimpilot/claimpilot/internal/cache"
	"github.com/claimpilot/claimpilot/internal/decision"
	"github.com/claimpilot/claimpilot/internal/extract"
	"github.com/claimpilot/claimpilot/internal/fraud"
	"github.com/claimpilot/claimpilot/internal/llm"
	"github.com/claimpilot/claimpilot/internal/merge"
	"github.com/claimpilot/claimpilot/internal/model"
	"github.com/claimpilot/claimpilot/internal/rules"
	"github.com/claimpilot/claimpilot/internal/util"
	"github.com/claimpilot/claimpilot/internal/worker"
)

// Pipeline wires the adjudication components for one configuration.
type Pipeline struct {
	cfg       *model.Config
	splitter  *extract.Splitter
	extractor *extract.FieldExtractor
	evaluator *rules.Evaluator
	merger    *merge.Merger
	scorer    *fraud.Scorer
	machine   *decision.Machine

	provider llm.Provider // nil when no LLM is configured
	limiter  *worker.Limiter
	cache    *cache.CompletionCache

	verbose bool
}

// New builds a pipeline from the configuration. An unconfigured or failing
// LLM provider degrades to deterministic-only evaluation rather than
// erroring out.
func New(cfg *model.Config) *Pipeline {
	var provider llm.Provider
	if cfg.LLM.Provider != "" {
		p, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize LLM provider: %v\n", err)
		} else {
			provider = p
		}
	}

	pl := &Pipeline{
		cfg:       cfg,
		splitter:  extract.NewSplitter(cfg.Rules),
		extractor: extract.NewFieldExtractor(cfg.Rules),
		evaluator: rules.NewEvaluator(cfg.Rules),
		merger:    merge.NewMerger(cfg.Merge),
		machine:   decision.NewMachine(cfg.Decision),
		provider:  provider,
		limiter:   worker.NewLimiter(cfg.LLM.RatePerSecond, cfg.LLM.Burst),
	}
	if cfg.Cache.Enabled {
		pl.cache = cache.NewCompletionCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	}

	var completer fraud.Completer
	if provider != nil {
		completer = pl.complete
	}
	pl.scorer = fraud.NewScorer(cfg.Fraud, cfg.Rules, completer)

	return pl
}

// SetVerbose enables progress logging on stderr.
func (p *Pipeline) SetVerbose(v bool) { p.verbose = v }

// LLMEnabled reports whether an LLM provider is wired in.
func (p *Pipeline) LLMEnabled() bool { return p.provider != nil }

// Result is one claim's complete adjudication output. TextOnly and Full are
// nil when the LLM passes did not run.
type Result struct {
	Facts model.ClaimFacts

	Deterministic model.Findings
	TextOnly      *llm.PresenceReport
	Full          *model.Findings
	Merged        model.Findings

	Fraud    *model.FraudAssessment
	Decision model.ClaimDecision
}

// EvaluateDocuments runs extraction, the deterministic rules, both LLM
// passes, and the merge. The returned result has no fraud assessment or
// decision yet.
func (p *Pipeline) EvaluateDocuments(ctx context.Context, facts model.ClaimFacts) Result {
	facts.Narrative = strings.TrimSpace(facts.Narrative)
	facts.DocumentText = util.StripHTML(facts.DocumentText)

	res := Result{Facts: facts}

	if extract.Lower(facts.ClaimType) != model.ClaimTypeMotor {
		f := model.Findings{
			RequiredMissing: []model.DocLabel{},
			Warnings:        []string{},
			Errors:          []string{model.ErrNonMotorClaim},
			DocsOK:          false,
			Note:            model.NoteNonMotor,
			Recommendation:  model.RecommendMoreDocs,
		}
		res.Deterministic = f
		res.Merged = f
		return res
	}

	sections := p.splitter.Split(facts.DocumentText)
	markerPresent := p.splitter.MarkerPresence(facts.DocumentText)
	fields := p.extractor.Parse(facts.Narrative, sections)

	res.Deterministic = p.evaluator.Evaluate(facts, fields, markerPresent)
	p.logf("deterministic: docs_ok=%t missing=%d errors=%d warnings=%d",
		res.Deterministic.DocsOK, len(res.Deterministic.RequiredMissing),
		len(res.Deterministic.Errors), len(res.Deterministic.Warnings))

	if p.provider != nil {
		textOnly, full := p.runLLMPasses(ctx, facts, res.Deterministic)
		res.TextOnly = &textOnly
		res.Full = &full
	}

	res.Merged = p.merger.Merge(merge.Sources{
		Deterministic:   res.Deterministic,
		TextOnly:        res.TextOnly,
		Full:            res.Full,
		PriorFraudScore: facts.PriorFraudScore,
	})
	p.logf("merged: docs_ok=%t recommendation=%s", res.Merged.DocsOK, res.Merged.Recommendation)
	return res
}

// runLLMPasses issues the text-only presence pass and the full validation
// pass concurrently. Each pass degrades to its fixed failure payload rather
// than propagating an error.
func (p *Pipeline) runLLMPasses(ctx context.Context, facts model.ClaimFacts, pre model.Findings) (llm.PresenceReport, model.Findings) {
	var (
		wg       sync.WaitGroup
		textOnly llm.PresenceReport
		full     model.Findings
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		raw, err := p.complete(ctx, llm.BuildPresencePrompt(facts))
		if err != nil {
			p.logf("text-only pass failed: %v", err)
			textOnly = llm.FailedPresence()
			return
		}
		textOnly = llm.DecodePresence(raw)
	}()
	go func() {
		defer wg.Done()
		raw, err := p.complete(ctx, llm.BuildValidationPrompt(facts, pre))
		if err != nil {
			p.logf("full validation pass failed: %v", err)
			full = llm.FailedValidation()
			return
		}
		full = llm.DecodeValidation(raw)
	}()
	wg.Wait()

	return textOnly, full
}

// ScoreFraud assesses fraud risk against the merged findings. Non-motor
// claims return nil.
func (p *Pipeline) ScoreFraud(ctx context.Context, facts model.ClaimFacts, merged model.Findings) *model.FraudAssessment {
	return p.scorer.Score(ctx, facts, merged)
}

// Finalize maps findings and fraud risk to a claim decision, honoring any
// existing terminal decision.
func (p *Pipeline) Finalize(merged model.Findings, fraudRes *model.FraudAssessment, existing model.ClaimDecision) model.ClaimDecision {
	return p.machine.Decide(merged, fraudRes, existing)
}

// Process runs the full adjudication for one claim.
func (p *Pipeline) Process(ctx context.Context, facts model.ClaimFacts, existing model.ClaimDecision) Result {
	res := p.EvaluateDocuments(ctx, facts)
	res.Fraud = p.ScoreFraud(ctx, res.Facts, res.Merged)
	res.Decision = p.Finalize(res.Merged, res.Fraud, existing)
	return res
}

// complete issues one rate-limited, cached completion call.
func (p *Pipeline) complete(ctx context.Context, prompt string) (string, error) {
	if p.provider == nil {
		return "", fmt.Errorf("no LLM provider configured")
	}

	if p.cache != nil {
		if cached, ok := p.cache.Get(prompt); ok {
			p.logf("completion cache hit")
			return cached, nil
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	out, err := p.provider.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	if p.cache != nil {
		p.cache.Set(prompt, out)
	}
	return out, nil
}

func (p *Pipeline) logf(format string, args ...interface{}) {
	if p.verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

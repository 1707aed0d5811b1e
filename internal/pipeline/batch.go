package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/claimpilot/claimpilot/internal/model"
	"github.com/claimpilot/claimpilot/internal/worker"
)

// claimJob adjudicates one claim on the worker pool.
type claimJob struct {
	facts    model.ClaimFacts
	pipeline *Pipeline
}

// BatchResult is one claim's outcome in a batch run.
type BatchResult struct {
	Result Result
	Error  error
}

// GetError returns the job error, if any.
func (r *BatchResult) GetError() error {
	return r.Error
}

func (j *claimJob) Execute(ctx context.Context) worker.Result {
	if j.facts.TransactionID == "" {
		return &BatchResult{
			Result: Result{Facts: j.facts},
			Error:  fmt.Errorf("claim %q: transaction_id is required", j.facts.ClaimID),
		}
	}
	return &BatchResult{Result: j.pipeline.Process(ctx, j.facts, model.DecisionNone)}
}

// BatchProcessor adjudicates multiple claims concurrently.
type BatchProcessor struct {
	pipeline    *Pipeline
	concurrency int
}

// NewBatchProcessor creates a batch processor over the pipeline.
func NewBatchProcessor(p *Pipeline, concurrency int) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchProcessor{pipeline: p, concurrency: concurrency}
}

// ProcessClaims adjudicates the claims on a worker pool and returns results
// ordered by transaction id.
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []model.ClaimFacts) []*BatchResult {
	if len(claims) == 0 {
		return []*BatchResult{}
	}

	pool := worker.NewPool(b.concurrency)
	pool.Start()

	// Submission and result draining must overlap: the pool's channels are
	// bounded, so submitting every job up front deadlocks on large batches.
	go func() {
		for _, facts := range claims {
			pool.Submit(&claimJob{facts: facts, pipeline: b.pipeline})
		}
		pool.Close()
	}()

	raw := pool.Wait()
	results := make([]*BatchResult, len(raw))
	for i, r := range raw {
		results[i] = r.(*BatchResult)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Result.Facts.TransactionID < results[j].Result.Facts.TransactionID
	})
	return results
}

// ProcessFile loads claims from a YAML file and adjudicates them.
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*BatchResult, error) {
	claims, err := LoadClaims(path)
	if err != nil {
		return nil, fmt.Errorf("load claims: %w", err)
	}
	return b.ProcessClaims(ctx, claims), nil
}

// claimsFile is the batch input shape: either a top-level claims list or a
// single claim document.
type claimsFile struct {
	Claims []model.ClaimFacts `yaml:"claims"`
}

// LoadClaims reads claims from a YAML file. Both a single claim document
// and a file with a top-level "claims" list are accepted.
func LoadClaims(path string) ([]model.ClaimFacts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file claimsFile
	if err := yaml.Unmarshal(data, &file); err == nil && len(file.Claims) > 0 {
		return file.Claims, nil
	}

	var single model.ClaimFacts
	if err := yaml.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if single.TransactionID == "" && single.ClaimID == "" {
		return nil, fmt.Errorf("parse %s: no claims found", path)
	}
	return []model.ClaimFacts{single}, nil
}

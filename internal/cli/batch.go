package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimpilot/claimpilot/internal/pipeline"
	"github.com/claimpilot/claimpilot/internal/store"
)

var (
	batchOutJSON string
	batchTimeout time.Duration
	batchWorkers int
	batchNoStore bool
	batchDBPath  string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <claims.yaml>",
	Short: "Adjudicate a batch of claims concurrently",
	Long: `Batch adjudicates every claim in a YAML file on a worker pool.
The file holds a top-level "claims" list; each entry has the same shape
as a single claim file.

Example:
  claimpilot batch claims.yaml --workers 8 --json results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchOutJSON, "json", "-", "output JSON path (- for stdout)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "overall batch timeout")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "concurrent workers (default from config)")
	batchCmd.Flags().BoolVar(&batchNoStore, "no-store", false, "do not persist evaluations")
	batchCmd.Flags().StringVar(&batchDBPath, "db", "", "database path (default from config)")

	batchCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable the LLM evidence passes")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default when empty)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLLMFlags(cfg)
	if batchDBPath != "" {
		cfg.Store.Path = batchDBPath
	}
	workers := cfg.Worker.Workers
	if batchWorkers > 0 {
		workers = batchWorkers
	}

	p := pipeline.New(cfg)
	p.SetVerbose(verbose)

	results, err := pipeline.NewBatchProcessor(p, workers).ProcessFile(ctx, args[0])
	if err != nil {
		return err
	}

	var db *store.Store
	if !batchNoStore {
		db, err = store.Open(cfg.Store)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close()
	}

	reports := make([]report, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "Error: %v\n", r.Error)
			continue
		}
		reports = append(reports, reportFromResult(r.Result))
		if db != nil {
			err := db.SaveEvaluation(ctx, store.Evaluation{
				TransactionID: r.Result.Facts.TransactionID,
				ClaimID:       r.Result.Facts.ClaimID,
				CustomerName:  r.Result.Facts.CustomerName,
				ClaimType:     r.Result.Facts.ClaimType,
				Findings:      r.Result.Merged,
				Fraud:         r.Result.Fraud,
				Decision:      r.Result.Decision,
			})
			if err != nil {
				return fmt.Errorf("save evaluation %s: %w", r.Result.Facts.TransactionID, err)
			}
		}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Adjudicated %d claims, %d failed\n", len(reports), failed)
	}
	if err := writeJSON(batchOutJSON, reports); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d claims failed", failed, len(results))
	}
	return nil
}

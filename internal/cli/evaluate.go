package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimpilot/claimpilot/internal/model"
	"github.com/claimpilot/claimpilot/internal/pipeline"
	"github.com/claimpilot/claimpilot/internal/store"
)

var (
	evalOutJSON  string
	evalTimeout  time.Duration
	evalNoCache  bool
	evalNoStore  bool
	evalDBPath   string
	llmEnabled   bool
	llmProvider  string
	llmModel     string
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <claim.yaml>",
	Short: "Adjudicate a single claim file",
	Long: `Evaluate runs the full adjudication for one claim:
- Split the OCR bundle into document sections
- Run deterministic document, policy, and consistency checks
- Run the text-only and full LLM evidence passes (when enabled)
- Merge all sources into final findings
- Score fraud risk and derive the claim decision

Example:
  claimpilot evaluate claim.yaml
  claimpilot evaluate claim.yaml --llm --llm-provider openai
  claimpilot evaluate claim.yaml --json report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evalOutJSON, "json", "-", "output JSON path (- for stdout)")
	evaluateCmd.Flags().DurationVar(&evalTimeout, "timeout", 2*time.Minute, "overall evaluation timeout")
	evaluateCmd.Flags().BoolVar(&evalNoCache, "no-cache", false, "disable the completion cache")
	evaluateCmd.Flags().BoolVar(&evalNoStore, "no-store", false, "do not persist the evaluation")
	evaluateCmd.Flags().StringVar(&evalDBPath, "db", "", "database path (default from config)")

	evaluateCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable the LLM evidence passes")
	evaluateCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	evaluateCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default when empty)")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLLMFlags(cfg)
	if evalNoCache {
		cfg.Cache.Enabled = false
	}
	if evalDBPath != "" {
		cfg.Store.Path = evalDBPath
	}

	claims, err := pipeline.LoadClaims(args[0])
	if err != nil {
		return fmt.Errorf("load claim: %w", err)
	}
	facts := claims[0]
	if facts.TransactionID == "" {
		return fmt.Errorf("claim file %s: transaction_id is required", args[0])
	}

	var db *store.Store
	if !evalNoStore {
		db, err = store.Open(cfg.Store)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close()
	}

	existing := model.DecisionNone
	if db != nil {
		if existing, err = db.CurrentDecision(ctx, facts.TransactionID); err != nil {
			return fmt.Errorf("read decision: %w", err)
		}
		if facts.PriorFraudScore == 0 {
			prior, err := db.PriorFraudScore(ctx, facts.ClaimID, facts.TransactionID)
			if err != nil {
				return fmt.Errorf("read prior fraud score: %w", err)
			}
			facts.PriorFraudScore = prior
		}
	}

	p := pipeline.New(cfg)
	p.SetVerbose(verbose)

	if verbose {
		fmt.Fprintf(os.Stderr, "Evaluating claim %s (transaction %s)\n", facts.ClaimID, facts.TransactionID)
		fmt.Fprintf(os.Stderr, "LLM passes: %t\n\n", p.LLMEnabled())
	}

	res := p.Process(ctx, facts, existing)

	if db != nil {
		err := db.SaveEvaluation(ctx, store.Evaluation{
			TransactionID: res.Facts.TransactionID,
			ClaimID:       res.Facts.ClaimID,
			CustomerName:  res.Facts.CustomerName,
			ClaimType:     res.Facts.ClaimType,
			Findings:      res.Merged,
			Fraud:         res.Fraud,
			Decision:      res.Decision,
		})
		if err != nil {
			return fmt.Errorf("save evaluation: %w", err)
		}
	}

	return writeJSON(evalOutJSON, reportFromResult(res))
}

// applyLLMFlags overlays the LLM flags onto the loaded config.
func applyLLMFlags(cfg *model.Config) {
	if !llmEnabled {
		return
	}
	cfg.LLM.Provider = llmProvider
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	applyEnvAPIKey(cfg)
}

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/claimpilot/claimpilot/internal/model"
	"github.com/claimpilot/claimpilot/internal/store"
)

var (
	overrideReason string
	overrideDBPath string
	listLimit      int
	listDBPath     string
)

// overrideCmd represents the override command
var overrideCmd = &cobra.Command{
	Use:   "override <transaction-id> <decision>",
	Short: "Manually override a claim decision",
	Long: `Override records a manual decision for a transaction. Automated
decisions are immutable once made; an override is the only way to change
one, it bypasses the state machine entirely, and it is returned in place
of the stored decision on every read.

Valid decisions: PENDING_DOCUMENTS, REJECTED, ESCALATED_TO_SIU, APPROVED.

Example:
  claimpilot override TXN-1042 APPROVED --reason "SIU cleared the claim"`,
	Args: cobra.ExactArgs(2),
	RunE: runOverride,
}

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent evaluations",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(overrideCmd)
	rootCmd.AddCommand(listCmd)

	overrideCmd.Flags().StringVar(&overrideReason, "reason", "", "reason recorded with the override")
	overrideCmd.Flags().StringVar(&overrideDBPath, "db", "", "database path (default from config)")

	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum rows to show")
	listCmd.Flags().StringVar(&listDBPath, "db", "", "database path (default from config)")
}

func runOverride(cmd *cobra.Command, args []string) error {
	transactionID := args[0]
	decision := model.ClaimDecision(strings.ToUpper(strings.TrimSpace(args[1])))
	if !decision.Terminal() {
		return fmt.Errorf("invalid decision %q: must be one of PENDING_DOCUMENTS, REJECTED, ESCALATED_TO_SIU, APPROVED", args[1])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if overrideDBPath != "" {
		cfg.Store.Path = overrideDBPath
	}

	db, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.GetEvaluation(ctx, transactionID); err != nil {
		return fmt.Errorf("transaction %s: %w", transactionID, err)
	}
	if err := db.OverrideDecision(ctx, transactionID, decision, overrideReason); err != nil {
		return fmt.Errorf("record override: %w", err)
	}

	fmt.Printf("Transaction %s decision overridden to %s\n", transactionID, decision)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listDBPath != "" {
		cfg.Store.Path = listDBPath
	}

	db, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	evals, err := db.ListEvaluations(context.Background(), listLimit)
	if err != nil {
		return fmt.Errorf("list evaluations: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRANSACTION\tCLAIM\tDECISION\tFRAUD\tRECOMMENDATION\tUPDATED")
	for _, ev := range evals {
		fraudCol := "-"
		if ev.Fraud != nil {
			fraudCol = fmt.Sprintf("%.2f %s", ev.Fraud.Score, ev.Fraud.Decision)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			ev.TransactionID, ev.ClaimID, ev.Decision, fraudCol,
			ev.Findings.Recommendation, ev.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

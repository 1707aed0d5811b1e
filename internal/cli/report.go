package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/claimpilot/claimpilot/internal/model"
	"github.com/claimpilot/claimpilot/internal/pipeline"
)

// report is the JSON output shape for one adjudicated claim. Raw OCR text
// is omitted; the findings carry everything a reviewer needs.
type report struct {
	TransactionID string        `json:"transaction_id"`
	ClaimID       string        `json:"claim_id"`
	CustomerName  string        `json:"customer_name"`
	ClaimType     string        `json:"claim_type"`
	Amount        float64       `json:"amount"`
	Findings      model.Findings `json:"findings"`

	Deterministic model.Findings  `json:"deterministic_findings"`
	Full          *model.Findings `json:"llm_findings,omitempty"`

	FraudScore    *float64             `json:"fraud_score,omitempty"`
	FraudDecision *model.FraudDecision `json:"fraud_decision,omitempty"`

	Decision model.ClaimDecision `json:"decision"`
}

func reportFromResult(res pipeline.Result) report {
	r := report{
		TransactionID: res.Facts.TransactionID,
		ClaimID:       res.Facts.ClaimID,
		CustomerName:  res.Facts.CustomerName,
		ClaimType:     res.Facts.ClaimType,
		Amount:        res.Facts.Amount,
		Findings:      res.Merged,
		Deterministic: res.Deterministic,
		Full:          res.Full,
		Decision:      res.Decision,
	}
	if res.Fraud != nil {
		r.FraudScore = &res.Fraud.Score
		r.FraudDecision = &res.Fraud.Decision
	}
	return r
}

// writeJSON writes v to path, or to stdout when path is "-" or empty.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	}
	return nil
}

// Package store persists claim evaluations in SQLite. The pure Go driver
// keeps the binary CGO-free.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claimpilot/claimpilot/internal/model"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no evaluation exists for a key.
var ErrNotFound = errors.New("record not found")

// Evaluation is one persisted adjudication result.
type Evaluation struct {
	TransactionID string
	ClaimID       string
	CustomerName  string
	ClaimType     string
	Findings      model.Findings
	Fraud         *model.FraudAssessment
	Decision      model.ClaimDecision
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Store is a SQLite-backed evaluation repository.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at cfg.Path and applies the
// schema.
func Open(cfg model.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = "claimpilot.db"
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveEvaluation upserts an evaluation keyed by transaction id.
func (s *Store) SaveEvaluation(ctx context.Context, ev Evaluation) error {
	if ev.TransactionID == "" {
		return fmt.Errorf("transaction id is required")
	}

	findings, err := json.Marshal(ev.Findings)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}

	var fraudScore sql.NullFloat64
	var fraudDecision sql.NullString
	if ev.Fraud != nil {
		fraudScore = sql.NullFloat64{Float64: ev.Fraud.Score, Valid: true}
		fraudDecision = sql.NullString{String: string(ev.Fraud.Decision), Valid: true}
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO evaluations (
			transaction_id, claim_id, customer_name, claim_type,
			findings, fraud_score, fraud_decision, decision,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(transaction_id) DO UPDATE SET
			claim_id = excluded.claim_id,
			customer_name = excluded.customer_name,
			claim_type = excluded.claim_type,
			findings = excluded.findings,
			fraud_score = excluded.fraud_score,
			fraud_decision = excluded.fraud_decision,
			decision = excluded.decision,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		ev.TransactionID, ev.ClaimID, ev.CustomerName, ev.ClaimType,
		string(findings), fraudScore, fraudDecision, string(ev.Decision),
		now, now,
	)
	return err
}

// GetEvaluation retrieves an evaluation by transaction id. A manual override,
// when present, replaces the stored decision.
func (s *Store) GetEvaluation(ctx context.Context, transactionID string) (*Evaluation, error) {
	query := `
		SELECT e.transaction_id, e.claim_id, e.customer_name, e.claim_type,
			   e.findings, e.fraud_score, e.fraud_decision,
			   COALESCE(o.decision, e.decision),
			   e.created_at, e.updated_at
		FROM evaluations e
		LEFT JOIN decision_overrides o ON o.transaction_id = e.transaction_id
		WHERE e.transaction_id = ?
	`

	var ev Evaluation
	var findings string
	var fraudScore sql.NullFloat64
	var fraudDecision sql.NullString
	var decision string

	err := s.db.QueryRowContext(ctx, query, transactionID).Scan(
		&ev.TransactionID, &ev.ClaimID, &ev.CustomerName, &ev.ClaimType,
		&findings, &fraudScore, &fraudDecision, &decision,
		&ev.CreatedAt, &ev.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(findings), &ev.Findings); err != nil {
		return nil, fmt.Errorf("unmarshal findings: %w", err)
	}
	if fraudScore.Valid {
		ev.Fraud = &model.FraudAssessment{
			Score:    fraudScore.Float64,
			Decision: model.FraudDecision(fraudDecision.String),
		}
	}
	ev.Decision = model.ClaimDecision(decision)
	return &ev, nil
}

// CurrentDecision returns the effective decision for a transaction, override
// included. Missing transactions return DecisionNone.
func (s *Store) CurrentDecision(ctx context.Context, transactionID string) (model.ClaimDecision, error) {
	ev, err := s.GetEvaluation(ctx, transactionID)
	if errors.Is(err, ErrNotFound) {
		return model.DecisionNone, nil
	}
	if err != nil {
		return model.DecisionNone, err
	}
	return ev.Decision, nil
}

// PriorFraudScore returns the most recent fraud score recorded for a claim,
// excluding the given transaction. No history yields zero.
func (s *Store) PriorFraudScore(ctx context.Context, claimID, excludeTransactionID string) (float64, error) {
	query := `
		SELECT fraud_score
		FROM evaluations
		WHERE claim_id = ? AND transaction_id != ? AND fraud_score IS NOT NULL
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var score float64
	err := s.db.QueryRowContext(ctx, query, claimID, excludeTransactionID).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return score, nil
}

// OverrideDecision records a manual decision for a transaction. Overrides
// bypass the state machine entirely; reading the evaluation back returns the
// override.
func (s *Store) OverrideDecision(ctx context.Context, transactionID string, decision model.ClaimDecision, reason string) error {
	if transactionID == "" {
		return fmt.Errorf("transaction id is required")
	}
	query := `
		INSERT INTO decision_overrides (transaction_id, decision, reason, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(transaction_id) DO UPDATE SET
			decision = excluded.decision,
			reason = excluded.reason,
			created_at = excluded.created_at
	`
	_, err := s.db.ExecContext(ctx, query, transactionID, string(decision), reason, time.Now().UTC())
	return err
}

// ListEvaluations returns the most recently updated evaluations.
func (s *Store) ListEvaluations(ctx context.Context, limit int) ([]Evaluation, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT e.transaction_id, e.claim_id, e.customer_name, e.claim_type,
			   e.findings, e.fraud_score, e.fraud_decision,
			   COALESCE(o.decision, e.decision),
			   e.created_at, e.updated_at
		FROM evaluations e
		LEFT JOIN decision_overrides o ON o.transaction_id = e.transaction_id
		ORDER BY e.updated_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		var ev Evaluation
		var findings string
		var fraudScore sql.NullFloat64
		var fraudDecision sql.NullString
		var decision string
		if err := rows.Scan(
			&ev.TransactionID, &ev.ClaimID, &ev.CustomerName, &ev.ClaimType,
			&findings, &fraudScore, &fraudDecision, &decision,
			&ev.CreatedAt, &ev.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(findings), &ev.Findings); err != nil {
			return nil, fmt.Errorf("unmarshal findings: %w", err)
		}
		if fraudScore.Valid {
			ev.Fraud = &model.FraudAssessment{
				Score:    fraudScore.Float64,
				Decision: model.FraudDecision(fraudDecision.String),
			}
		}
		ev.Decision = model.ClaimDecision(decision)
		out = append(out, ev)
	}
	return out, rows.Err()
}

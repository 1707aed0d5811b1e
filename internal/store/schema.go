package store

// Schema is applied on open. Evaluations are keyed by transaction so a
// resubmitted claim produces a new row while PriorFraudScore can still look
// back across the claim's history.
const schema = `
CREATE TABLE IF NOT EXISTS evaluations (
    transaction_id TEXT PRIMARY KEY,
    claim_id       TEXT NOT NULL,
    customer_name  TEXT NOT NULL DEFAULT '',
    claim_type     TEXT NOT NULL DEFAULT '',
    findings       TEXT NOT NULL,
    fraud_score    REAL,
    fraud_decision TEXT,
    decision       TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMP NOT NULL,
    updated_at     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluations_claim_id
    ON evaluations(claim_id, updated_at);

CREATE TABLE IF NOT EXISTS decision_overrides (
    transaction_id TEXT PRIMARY KEY,
    decision       TEXT NOT NULL,
    reason         TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMP NOT NULL
);
`

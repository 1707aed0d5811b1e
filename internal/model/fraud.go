package model

// FraudDecision buckets a fraud score into an action label.
type FraudDecision string

const (
	FraudSafe     FraudDecision = "SAFE"
	FraudModerate FraudDecision = "MODERATE"
	FraudSuspect  FraudDecision = "SUSPECT"
)

// FraudAssessment is the outcome of the fraud scorer for one claim snapshot.
// Score is monotonic: the maximum of the LLM estimate and every deterministic
// floor, rounded to two decimals and clamped to [0,1].
type FraudAssessment struct {
	Score    float64       `json:"score"`
	Decision FraudDecision `json:"decision"`
}

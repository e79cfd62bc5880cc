// internal/workers/infrastructure/validate-subscription/models.go
package validatesubscription

type Input struct {
	UserID string `json:"userId"`
}

// Output reports whether the account may request recommendations at all and
// whether its tier unlocks AI narrative generation.
type Output struct {
	IsValid             bool   `json:"isValid"`
	TierLevel           string `json:"tierLevel"`
	AIGenerationEnabled bool   `json:"aiGenerationEnabled"`
}

// Subscription is the billing record as stored, with expiry kept as an
// RFC3339 string so the cached form round-trips unchanged.
type Subscription struct {
	UserID    string `json:"userId"`
	Tier      string `json:"tier"`
	ExpiresAt string `json:"expiresAt"`
	IsValid   bool   `json:"isValid"`
}

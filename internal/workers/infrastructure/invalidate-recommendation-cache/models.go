// internal/workers/infrastructure/invalidate-recommendation-cache/models.go
package invalidaterecommendationcache

// Input identifies the profile whose cached bundles must be dropped. Reason
// is informational only and lands in the worker log.
type Input struct {
	ProfileID string `json:"profileId"`
	Reason    string `json:"reason,omitempty"`
}

type Output struct {
	Invalidated bool  `json:"invalidated"`
	KeysRemoved int64 `json:"keysRemoved"`
}

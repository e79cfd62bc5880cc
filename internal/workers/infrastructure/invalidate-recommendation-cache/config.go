// internal/workers/infrastructure/invalidate-recommendation-cache/config.go
package invalidaterecommendationcache

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}

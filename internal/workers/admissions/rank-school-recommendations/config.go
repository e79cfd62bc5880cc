// internal/workers/admissions/rank-school-recommendations/config.go
package rankschoolrecommendations

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
	PerTier      int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      15 * time.Second,
		DefaultLimit: 6,
		PerTier:      2,
	}
}

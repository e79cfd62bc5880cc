// internal/workers/admissions/rank-program-recommendations/config.go
package rankprogramrecommendations

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      15 * time.Second,
		DefaultLimit: 6,
	}
}

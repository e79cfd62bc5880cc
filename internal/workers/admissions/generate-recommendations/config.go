// internal/workers/admissions/generate-recommendations/config.go
package generaterecommendations

import "time"

type Config struct {
	Timeout      time.Duration
	GenAIBaseURL string
	GenAIAPIKey  string
	MaxRetries   int
	DefaultLimit int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      60 * time.Second,
		MaxRetries:   2,
		DefaultLimit: 6,
	}
}

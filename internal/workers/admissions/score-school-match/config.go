// internal/workers/admissions/score-school-match/config.go
package scoreschoolmatch

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}

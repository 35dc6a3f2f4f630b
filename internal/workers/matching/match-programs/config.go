// internal/workers/matching/match-programs/config.go
package matchprograms

import (
	"fmt"
	"time"

	"program-matcher/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	// TopN caps the matches written back to the process. Zero keeps the
	// matcher's own limit.
	TopN int
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 10,
		Timeout:       10 * time.Second,
	}
}

// FromWorkerConfig overlays the settings from the workers section.
func FromWorkerConfig(wc config.WorkerConfig) *Config {
	c := DefaultConfig()
	c.Enabled = wc.Enabled
	if wc.MaxJobsActive > 0 {
		c.MaxJobsActive = wc.MaxJobsActive
	}
	if wc.Timeout > 0 {
		c.Timeout = config.GetDuration(wc.Timeout)
	}
	c.TopN = wc.TopN
	return c
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.TopN < 0 {
		return fmt.Errorf("top_n must not be negative")
	}
	return nil
}

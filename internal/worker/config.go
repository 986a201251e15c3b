// Package worker runs LevelUp background jobs from Pub/Sub or a ticker.
package worker

import (
	"time"
)

// Job types accepted in messages.
const (
	// JobRecalculateTargets recomputes the stored profile targets.
	JobRecalculateTargets = "recalculate_targets"

	// JobProviderHealth probes every image classifier provider.
	JobProviderHealth = "provider_health"
)

// JobTypes returns every known job type in the order the ticker runs them.
func JobTypes() []string {
	return []string{JobRecalculateTargets, JobProviderHealth}
}

// Config holds configuration for the job runner.
type Config struct {
	// Timeout bounds a single job.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultConfig returns the default runner configuration.
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
	}
}

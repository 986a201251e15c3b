package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/levelup/levelup/internal/profile"
)

// ErrUnknownJob is returned for a job type the runner does not handle.
var ErrUnknownJob = errors.New("unknown job type")

// TargetRecalculator recomputes the stored profile targets.
type TargetRecalculator interface {
	RecalculateTargets(ctx context.Context) (*profile.Profile, error)
}

// ProviderChecker probes the classifier providers and returns the number of
// failed probes.
type ProviderChecker interface {
	CheckProviders(ctx context.Context) int
}

// RunnerConfig holds the dependencies of a Runner. Both services are
// optional; a job whose service is missing succeeds without doing anything.
type RunnerConfig struct {
	Config     Config
	Logger     zerolog.Logger
	Profiles   TargetRecalculator
	Classifier ProviderChecker
}

// Runner executes background jobs.
type Runner struct {
	config     Config
	logger     zerolog.Logger
	profiles   TargetRecalculator
	classifier ProviderChecker

	metrics *JobMetrics
}

// JobMetrics tracks job statistics.
type JobMetrics struct {
	mu sync.RWMutex

	TotalJobs      int64
	SuccessfulJobs int64
	FailedJobs     int64
	Recalculations int64
	HealthChecks   int64

	LastJobAt       time.Time
	LastJobType     string
	LastJobDuration time.Duration
	LastError       string
}

// NewRunner creates a job runner.
func NewRunner(cfg RunnerConfig) *Runner {
	config := cfg.Config
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	return &Runner{
		config:     config,
		logger:     cfg.Logger,
		profiles:   cfg.Profiles,
		classifier: cfg.Classifier,
		metrics:    &JobMetrics{},
	}
}

// Run executes one job of the given type.
func (r *Runner) Run(ctx context.Context, jobType string) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	start := time.Now()
	var err error
	switch jobType {
	case JobRecalculateTargets:
		err = r.recalculateTargets(ctx)
	case JobProviderHealth:
		err = r.checkProviders(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJob, jobType)
	}

	r.record(jobType, time.Since(start), err)
	return err
}

// RunTicker runs every job each interval until ctx is cancelled. Failures
// are logged and the ticker keeps going.
func (r *Runner) RunTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", interval).Msg("job ticker started")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("job ticker stopped")
			return
		case <-ticker.C:
			r.RunAll(ctx)
		}
	}
}

// RunAll runs every job once and returns the number that failed.
func (r *Runner) RunAll(ctx context.Context) int {
	failed := 0
	for _, jobType := range JobTypes() {
		if err := r.Run(ctx, jobType); err != nil {
			failed++
			r.logger.Error().Err(err).Str("job_type", jobType).Msg("job failed")
		}
	}
	return failed
}

func (r *Runner) recalculateTargets(ctx context.Context) error {
	if r.profiles == nil {
		return nil
	}

	p, err := r.profiles.RecalculateTargets(ctx)
	if errors.Is(err, profile.ErrProfileNotFound) {
		r.logger.Debug().Msg("no profile to recalculate")
		return nil
	}
	if err != nil {
		return fmt.Errorf("recalculating targets: %w", err)
	}

	r.metrics.mu.Lock()
	r.metrics.Recalculations++
	r.metrics.mu.Unlock()

	r.logger.Debug().Int("target_calories", p.TargetCalories).Msg("targets recalculated")
	return nil
}

func (r *Runner) checkProviders(ctx context.Context) error {
	if r.classifier == nil {
		return nil
	}

	failed := r.classifier.CheckProviders(ctx)

	r.metrics.mu.Lock()
	r.metrics.HealthChecks++
	r.metrics.mu.Unlock()

	if failed > 0 {
		return fmt.Errorf("provider health check failed: %d errors", failed)
	}
	return nil
}

func (r *Runner) record(jobType string, d time.Duration, err error) {
	r.metrics.mu.Lock()
	defer r.metrics.mu.Unlock()

	r.metrics.TotalJobs++
	r.metrics.LastJobAt = time.Now()
	r.metrics.LastJobType = jobType
	r.metrics.LastJobDuration = d
	if err != nil {
		r.metrics.FailedJobs++
		r.metrics.LastError = err.Error()
		return
	}
	r.metrics.SuccessfulJobs++
	r.metrics.LastError = ""
}

// GetMetrics returns a copy of the current metrics.
func (r *Runner) GetMetrics() JobMetrics {
	r.metrics.mu.RLock()
	defer r.metrics.mu.RUnlock()

	return JobMetrics{
		TotalJobs:       r.metrics.TotalJobs,
		SuccessfulJobs:  r.metrics.SuccessfulJobs,
		FailedJobs:      r.metrics.FailedJobs,
		Recalculations:  r.metrics.Recalculations,
		HealthChecks:    r.metrics.HealthChecks,
		LastJobAt:       r.metrics.LastJobAt,
		LastJobType:     r.metrics.LastJobType,
		LastJobDuration: r.metrics.LastJobDuration,
		LastError:       r.metrics.LastError,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (r *Runner) MetricsSnapshot() map[string]interface{} {
	m := r.GetMetrics()
	return map[string]interface{}{
		"total_jobs":        m.TotalJobs,
		"successful_jobs":   m.SuccessfulJobs,
		"failed_jobs":       m.FailedJobs,
		"recalculations":    m.Recalculations,
		"health_checks":     m.HealthChecks,
		"last_job_at":       m.LastJobAt,
		"last_job_type":     m.LastJobType,
		"last_job_duration": m.LastJobDuration.String(),
		"last_error":        m.LastError,
	}
}

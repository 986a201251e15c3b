// Package handler provides HTTP handlers for the LevelUp API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/levelup/levelup/internal/api/models"
	"github.com/levelup/levelup/internal/api/response"
	"github.com/levelup/levelup/internal/featureflags"
	"github.com/levelup/levelup/internal/provider/resilience"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsConfig holds the dependencies of OpsHandler. Everything except the
// version strings is optional.
type OpsConfig struct {
	Version      string
	BuildTime    string
	Storage      Pinger
	StorageName  string
	Registry     *resilience.Registry
	FeatureFlags *featureflags.Service
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	if cfg.StorageName == "" {
		cfg.StorageName = "storage"
	}
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. It fails while the store is
// unreachable.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if err := h.pingStorage(r.Context()); err != nil {
		health.Status = models.HealthStatusFail
		health.Details = map[string]interface{}{h.cfg.StorageName: err.Error()}
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - storage and classifier provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: []models.SubsystemStatus{},
		Providers:  []models.ProviderStatus{},
	}

	storage := models.SubsystemStatus{Name: h.cfg.StorageName, Status: models.HealthStatusOK}
	if err := h.pingStorage(ctx); err != nil {
		detail := err.Error()
		storage.Status = models.HealthStatusFail
		storage.Detail = &detail
		status.Status = models.HealthStatusFail
	}
	status.Subsystems = append(status.Subsystems, storage)

	if h.cfg.Registry != nil {
		for _, ph := range h.cfg.Registry.GetAllHealth() {
			status.Providers = append(status.Providers, providerStatus(ph))
		}
		if h.cfg.Registry.Overall() != resilience.StatusHealthy && status.Status == models.HealthStatusOK {
			status.Status = models.HealthStatusDegraded
		}
	}

	if h.cfg.FeatureFlags.IsImageAnalysisDisabled(ctx) {
		status.DisabledFeatures = append(status.DisabledFeatures, featureflags.FlagDisableImageAnalysis)
	}
	if !h.cfg.FeatureFlags.IsWaitlistOpen(ctx) {
		status.DisabledFeatures = append(status.DisabledFeatures, featureflags.FlagWaitlistOpen)
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) pingStorage(ctx context.Context) error {
	if h.cfg.Storage == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.cfg.Storage.Ping(ctx)
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:            ph.Name,
		Status:              models.HealthStatusOK,
		CircuitState:        ph.CircuitState.String(),
		ConsecutiveFailures: int(ph.ConsecutiveFailures),
	}
	switch ph.Status() {
	case resilience.StatusUnhealthy:
		ps.Status = models.HealthStatusFail
	case resilience.StatusDegraded:
		ps.Status = models.HealthStatusDegraded
	}
	if ph.CircuitState == gobreaker.StateOpen {
		msg := "circuit open"
		ps.Message = &msg
	} else if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	if ph.LastSuccessAt != nil {
		ts := models.Timestamp(*ph.LastSuccessAt)
		ps.LastSuccessAt = &ts
	}
	if ph.LastFailureAt != nil {
		ts := models.Timestamp(*ph.LastFailureAt)
		ps.LastFailureAt = &ts
	}
	return ps
}

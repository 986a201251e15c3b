package handler

import (
	"net/http"

	"github.com/levelup/levelup/internal/api/models"
	"github.com/levelup/levelup/internal/api/response"
	"github.com/levelup/levelup/internal/featureflags"
)

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service *featureflags.Service
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service}
}

type flagList struct {
	Flags []models.FeatureFlag `json:"flags"`
}

// ListFeatureFlags handles GET /v1/admin/feature-flags - list all feature flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, toFlagList(h.service.ListFlags(r.Context())))
}

// UpsertFeatureFlags handles PUT /v1/admin/feature-flags - update feature flags.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	var req models.FeatureFlagsUpdateRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if len(req.Flags) == 0 {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "flags", Message: "at least one flag is required", Code: "REQUIRED"},
		})
		return
	}

	flags, err := h.service.SetFlags(r.Context(), req.Flags)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toFlagList(flags))
}

// InvalidateCache handles POST /v1/admin/feature-flags/invalidate - invalidate flag cache.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	response.NoContent(w, r)
}

func toFlagList(flags []*featureflags.Flag) flagList {
	out := flagList{Flags: make([]models.FeatureFlag, 0, len(flags))}
	for _, f := range flags {
		ff := models.FeatureFlag{Key: f.Key, Value: f.Value}
		if !f.UpdatedAt.IsZero() {
			ts := models.Timestamp(f.UpdatedAt)
			ff.UpdatedAt = &ts
		}
		out.Flags = append(out.Flags, ff)
	}
	return out
}

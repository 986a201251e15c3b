package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/levelup/levelup/internal/api/models"
	"github.com/levelup/levelup/internal/api/response"
	"github.com/levelup/levelup/internal/dailylog"
	"github.com/levelup/levelup/internal/profile"
)

// DailyLogHandler handles the food and habit diary.
type DailyLogHandler struct {
	logs     *dailylog.Service
	profiles *profile.Service
}

// NewDailyLogHandler creates a new DailyLogHandler. The profile service
// supplies the targets for summaries.
func NewDailyLogHandler(logs *dailylog.Service, profiles *profile.Service) *DailyLogHandler {
	return &DailyLogHandler{logs: logs, profiles: profiles}
}

type logList struct {
	Items []*dailylog.Log `json:"items"`
}

// ListLogs handles GET /v1/logs.
func (h *DailyLogHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.logs.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, logList{Items: logs})
}

// GetLog handles GET /v1/logs/{date}. Days without entries return an
// empty log.
func (h *DailyLogHandler) GetLog(w http.ResponseWriter, r *http.Request) {
	l, err := h.logs.Get(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, l)
}

// UpdateLog handles PUT /v1/logs/{date}.
func (h *DailyLogHandler) UpdateLog(w http.ResponseWriter, r *http.Request) {
	var req models.DailyLogUpdateRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	l, err := h.logs.Update(r.Context(), chi.URLParam(r, "date"), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, l)
}

// AddMeal handles POST /v1/logs/{date}/meals/{mealType}.
func (h *DailyLogHandler) AddMeal(w http.ResponseWriter, r *http.Request) {
	var req models.MealItemRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	date := chi.URLParam(r, "date")
	mealType := dailylog.MealType(chi.URLParam(r, "mealType"))
	item, err := h.logs.AddMeal(r.Context(), date, mealType, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	location := "/v1/logs/" + date + "/meals/" + string(mealType) + "/" + item.ID
	response.Created(w, r, location, item)
}

// RemoveMeal handles DELETE /v1/logs/{date}/meals/{mealType}/{mealId}.
func (h *DailyLogHandler) RemoveMeal(w http.ResponseWriter, r *http.Request) {
	err := h.logs.RemoveMeal(r.Context(),
		chi.URLParam(r, "date"),
		dailylog.MealType(chi.URLParam(r, "mealType")),
		chi.URLParam(r, "mealId"),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// GetSummary handles GET /v1/logs/{date}/summary. Without a profile the
// totals are reported against zero targets.
func (h *DailyLogHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	l, err := h.logs.Get(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var targets dailylog.Targets
	p, err := h.profiles.Get(r.Context())
	switch {
	case err == nil:
		targets = dailylog.Targets{Calories: p.TargetCalories, Macros: p.MacroTargets}
	case !errors.Is(err, profile.ErrProfileNotFound):
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, dailylog.Summarize(l, targets))
}

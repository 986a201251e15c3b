package handler

import (
	"net/http"

	"github.com/levelup/levelup/internal/api/models"
	"github.com/levelup/levelup/internal/api/response"
	"github.com/levelup/levelup/internal/metabolic"
)

// CalculatorHandler exposes the calorie calculator without storing anything.
type CalculatorHandler struct{}

// NewCalculatorHandler creates a new CalculatorHandler.
func NewCalculatorHandler() *CalculatorHandler {
	return &CalculatorHandler{}
}

// Estimate handles POST /v1/calculator/estimate.
func (h *CalculatorHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req models.EstimateRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	result, err := metabolic.Estimate(metabolic.Profile{
		Sex:           metabolic.Sex(req.Sex),
		Age:           req.Age,
		HeightCm:      req.HeightCm,
		WeightKg:      req.WeightKg,
		ActivityLevel: metabolic.ActivityLevel(req.ActivityLevel),
		Goal:          metabolic.Goal(req.Goal),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

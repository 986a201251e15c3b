package handler

import (
	"net/http"

	"github.com/levelup/levelup/internal/api/models"
	"github.com/levelup/levelup/internal/api/response"
	"github.com/levelup/levelup/internal/dailylog"
	"github.com/levelup/levelup/internal/metabolic"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct {
	enums models.Enums
}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler() *MetadataHandler {
	return &MetadataHandler{enums: buildEnums()}
}

// GetEnums handles GET /v1/metadata/enums - get enum values used by the API.
func (h *MetadataHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.enums)
}

func buildEnums() models.Enums {
	enums := models.Enums{
		Sexes: []models.EnumValue{
			{Value: string(metabolic.SexMale), Label: "Male"},
			{Value: string(metabolic.SexFemale), Label: "Female"},
			{Value: string(metabolic.SexOther), Label: "Other", Description: "Calorie targets need male or female"},
		},
		MealTypes: []models.EnumValue{
			{Value: string(dailylog.MealBreakfast), Label: "Breakfast"},
			{Value: string(dailylog.MealLunch), Label: "Lunch"},
			{Value: string(dailylog.MealDinner), Label: "Dinner"},
			{Value: string(dailylog.MealSnacks), Label: "Snacks"},
		},
		Moods: []models.EnumValue{
			{Value: string(dailylog.MoodGreat), Label: "Great"},
			{Value: string(dailylog.MoodFine), Label: "Fine"},
			{Value: string(dailylog.MoodLow), Label: "Low"},
			{Value: string(dailylog.MoodCravings), Label: "Cravings"},
		},
	}

	for _, a := range metabolic.ActivityLevels() {
		enums.ActivityLevels = append(enums.ActivityLevels, models.EnumValue{
			Value:       string(a),
			Label:       a.Label(),
			Description: a.Description(),
		})
	}
	for _, g := range metabolic.Goals() {
		enums.Goals = append(enums.Goals, models.EnumValue{Value: string(g), Label: g.Label()})
	}
	return enums
}

package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/levelup/levelup/internal/api/models"
	"github.com/levelup/levelup/internal/api/response"
	"github.com/levelup/levelup/internal/classifier"
	"github.com/levelup/levelup/internal/nutrition"
	"github.com/levelup/levelup/internal/provider/resilience"
)

// MaxImageBytes caps uploaded food photos.
const MaxImageBytes = 10 << 20

// ImageAnalyzer classifies a food photo.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, image []byte) (*classifier.Analysis, error)
}

// FoodHandler handles the nutrition lookup endpoints.
type FoodHandler struct {
	analyzer ImageAnalyzer
}

// NewFoodHandler creates a new FoodHandler. analyzer may be nil, in which
// case analysis answers 503.
func NewFoodHandler(analyzer ImageAnalyzer) *FoodHandler {
	return &FoodHandler{analyzer: analyzer}
}

type foodTable struct {
	Items   []nutrition.Entry `json:"items"`
	Default nutrition.Facts   `json:"default"`
}

// ListFoods handles GET /v1/foods.
func (h *FoodHandler) ListFoods(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, foodTable{
		Items:   nutrition.Table(),
		Default: nutrition.Default,
	})
}

// ResolveFood handles POST /v1/foods/resolve.
func (h *FoodHandler) ResolveFood(w http.ResponseWriter, r *http.Request) {
	var req models.ResolveFoodRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	if req.Confidence == nil {
		response.JSON(w, r, http.StatusOK, nutrition.Resolve(req.Label))
		return
	}

	if c := *req.Confidence; c < 0 || c > 1 {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "confidence", Message: "must be between 0 and 1", Code: "OUT_OF_RANGE"},
		})
		return
	}

	response.JSON(w, r, http.StatusOK, nutrition.ResolveDetection(nutrition.Detection{
		Label:      req.Label,
		Confidence: *req.Confidence,
		Source:     strings.TrimSpace(req.Source),
	}))
}

// AnalyzeImage handles POST /v1/foods/analyze. The photo is sent as the
// multipart field "image".
func (h *FoodHandler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	if h.analyzer == nil {
		writeError(w, r, classifier.ErrProviderNotConfigured)
		return
	}

	image, err := readImage(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, r, models.NewProblem(
				models.ProblemTypeValidation,
				"Image too large",
				http.StatusRequestEntityTooLarge,
				traceID(r),
			).WithDetail("images are limited to 10 MiB"))
			return
		}
		response.BadRequest(w, r, "no image uploaded", []models.FieldError{
			{Field: "image", Message: "a multipart file field named image is required", Code: "REQUIRED"},
		})
		return
	}

	analysis, err := h.analyzer.Analyze(r.Context(), image)
	if err != nil {
		if isClassifierError(err) {
			writeError(w, r, err)
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("image analysis failed")
		response.BadGateway(w, r, "image classifier request failed")
		return
	}

	response.JSON(w, r, http.StatusOK, analysis)
}

func readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	// Leave room for the multipart framing around the file.
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes+64<<10)
	if err := r.ParseMultipartForm(MaxImageBytes); err != nil {
		return nil, err
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	image, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, classifier.ErrEmptyImage
	}
	return image, nil
}

func isClassifierError(err error) bool {
	return errors.Is(err, classifier.ErrAnalysisDisabled) ||
		errors.Is(err, classifier.ErrProviderNotConfigured) ||
		errors.Is(err, classifier.ErrNoFoodDetected) ||
		errors.Is(err, classifier.ErrEmptyImage) ||
		errors.Is(err, resilience.ErrCircuitOpen)
}

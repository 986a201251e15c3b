package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/levelup/levelup/internal/api/middleware"
	"github.com/levelup/levelup/internal/api/response"
	"github.com/levelup/levelup/internal/auth"
	"github.com/levelup/levelup/internal/classifier"
	"github.com/levelup/levelup/internal/dailylog"
	"github.com/levelup/levelup/internal/featureflags"
	"github.com/levelup/levelup/internal/metabolic"
	"github.com/levelup/levelup/internal/profile"
	"github.com/levelup/levelup/internal/provider/resilience"
	"github.com/levelup/levelup/internal/waitlist"
)

// writeError maps a service error onto a problem response. Errors it does
// not know are logged and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *metabolic.InvalidProfileError
	switch {
	case errors.As(err, &invalid):
		response.Unprocessable(w, r, "profile cannot be used for an estimate", invalid.Errors)

	case errors.Is(err, profile.ErrProfileNotFound):
		response.NotFound(w, r, "no profile yet, complete onboarding first")
	case errors.Is(err, dailylog.ErrMealNotFound):
		response.NotFound(w, r, "meal item not found")

	case errors.Is(err, dailylog.ErrInvalidDate),
		errors.Is(err, dailylog.ErrInvalidMealType),
		errors.Is(err, dailylog.ErrInvalidMood),
		errors.Is(err, dailylog.ErrInvalidMealItem),
		errors.Is(err, dailylog.ErrInvalidCounters),
		errors.Is(err, waitlist.ErrInvalidSignup),
		errors.Is(err, featureflags.ErrInvalidFlagValue),
		errors.Is(err, classifier.ErrEmptyImage):
		response.BadRequest(w, r, err.Error(), nil)

	case errors.Is(err, waitlist.ErrWaitlistClosed):
		response.Forbidden(w, r, "the waitlist is closed")
	case errors.Is(err, waitlist.ErrAlreadySignedUp):
		response.Conflict(w, r, "this email is already on the waitlist")

	case errors.Is(err, auth.ErrInvalidCredentials):
		response.Unauthorized(w, r, "invalid username or password")
	case errors.Is(err, auth.ErrAdminDisabled):
		response.ServiceUnavailable(w, r, "admin login is not configured")

	case errors.Is(err, classifier.ErrAnalysisDisabled):
		response.ServiceUnavailable(w, r, "image analysis is currently disabled")
	case errors.Is(err, classifier.ErrProviderNotConfigured):
		response.ServiceUnavailable(w, r, "no image classifier is configured")
	case errors.Is(err, resilience.ErrCircuitOpen):
		response.ServiceUnavailable(w, r, "image classifier is temporarily unavailable")
	case errors.Is(err, classifier.ErrNoFoodDetected):
		response.Unprocessable(w, r, "no food was detected in the image", nil)

	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		response.InternalError(w, r, "internal server error")
	}
}

// writeDecodeError reports a body that could not be decoded.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, response.ErrEmptyBody) {
		response.BadRequest(w, r, "request body is required", nil)
		return
	}
	response.BadRequest(w, r, "invalid JSON body", nil)
}

func traceID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}

package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/levelup/levelup/internal/api/models"
	"github.com/levelup/levelup/internal/api/response"
	"github.com/levelup/levelup/internal/auth"
	"github.com/levelup/levelup/internal/waitlist"
)

// AdminConfig holds the dependencies of AdminHandler.
type AdminConfig struct {
	Auth     *auth.Service
	Waitlist *waitlist.Service
	// Clearers are called in order by ClearData.
	Clearers []DataClearer
}

// DataClearer removes one kind of stored user data.
type DataClearer struct {
	Name  string
	Clear func(ctx context.Context) error
}

// AdminHandler handles the admin dashboard endpoints.
type AdminHandler struct {
	cfg AdminConfig
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cfg AdminConfig) *AdminHandler {
	return &AdminHandler{cfg: cfg}
}

// Login handles POST /v1/admin/login.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	token, err := h.cfg.Auth.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(token.ExpiresIn.Seconds()),
	})
}

type waitlistView struct {
	Count int              `json:"count"`
	Items []waitlist.Entry `json:"items"`
}

// ListWaitlist handles GET /v1/admin/waitlist.
func (h *AdminHandler) ListWaitlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.cfg.Waitlist.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, waitlistView{Count: len(entries), Items: entries})
}

// ExportWaitlist handles GET /v1/admin/waitlist.csv.
func (h *AdminHandler) ExportWaitlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.cfg.Waitlist.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Name, e.Email, e.Phone, e.Goal, e.CreatedAt.Format("2006-01-02")})
	}
	response.CSV(w, r, "levelup_waitlist.csv", []string{"Name", "Email", "Phone", "Goal", "Date"}, rows)
}

// ClearWaitlist handles DELETE /v1/admin/waitlist.
func (h *AdminHandler) ClearWaitlist(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.Waitlist.Clear(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Msg("waitlist cleared by admin")
	response.NoContent(w, r)
}

// ClearData handles DELETE /v1/admin/data. It removes the profile, every
// daily log and the waitlist. Feature flags are kept.
func (h *AdminHandler) ClearData(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	for _, c := range h.cfg.Clearers {
		if err := c.Clear(r.Context()); err != nil {
			log.Error().Err(err).Str("data", c.Name).Msg("clearing data failed")
			response.InternalError(w, r, "clearing "+c.Name+" failed")
			return
		}
	}
	log.Info().Msg("all user data cleared by admin")
	response.NoContent(w, r)
}

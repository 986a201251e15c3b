package handler

import (
	"net/http"

	"github.com/levelup/levelup/internal/api/models"
	"github.com/levelup/levelup/internal/api/response"
	"github.com/levelup/levelup/internal/waitlist"
)

// WaitlistHandler handles public waitlist signups.
type WaitlistHandler struct {
	waitlist *waitlist.Service
}

// NewWaitlistHandler creates a new WaitlistHandler.
func NewWaitlistHandler(svc *waitlist.Service) *WaitlistHandler {
	return &WaitlistHandler{waitlist: svc}
}

// Signup handles POST /v1/waitlist.
func (h *WaitlistHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.WaitlistSignupRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	entry, err := h.waitlist.Add(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, r, "", entry)
}

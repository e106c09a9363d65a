package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aryavratstudios/edgeguard/internal/access"
	"github.com/aryavratstudios/edgeguard/internal/actions"
	"github.com/aryavratstudios/edgeguard/internal/identity"
	"github.com/aryavratstudios/edgeguard/internal/store"
)

// Server registers the HTTP surface over the action layer. Handlers only
// decode, invoke and translate errors; every security decision lives in the
// actions and the middleware chain.
type Server struct {
	actions *actions.Actions
	gate    *access.Gate
	log     zerolog.Logger
}

func NewServer(a *actions.Actions, gate *access.Gate, log zerolog.Logger) *Server {
	return &Server{actions: a, gate: gate, log: log}
}

func (s *Server) RegisterRoutes(r chi.Router, adminPrefix string) {
	r.Get("/api/me", s.handleMe)
	r.Post("/api/coupons/validate", s.handleValidateCoupon)
	r.Post("/api/payments/{orderID}/complete", s.handleCompletePayment)

	r.Route(adminPrefix, func(ar chi.Router) {
		ar.Get("/", s.handleAdminIndex)
		ar.Post("/coupons", s.handleCreateCoupon)
		ar.Put("/pricing", s.handleUpdatePricing)
		ar.Put("/users/{userID}/role", s.handleChangeRole)
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    id.ID,
		"email": id.Email,
		"admin": s.gate.IsAdmin(r.Context(), ""),
	})
}

func (s *Server) handleValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &req) {
		return
	}

	c, err := s.actions.ValidateCoupon(r.Context(), req.Code)
	if err != nil {
		s.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"code":        c.Code,
		"percent_off": c.PercentOff,
	})
}

func (s *Server) handleCompletePayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if err := s.actions.CompletePayment(r.Context(), orderID); err != nil {
		s.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": orderID, "status": "completed"})
}

func (s *Server) handleAdminIndex(w http.ResponseWriter, r *http.Request) {
	// the admin gate middleware has already vetted this request
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleCreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code       string `json:"code"`
		PercentOff int    `json:"percent_off"`
		Active     bool   `json:"active"`
	}
	if !decode(w, r, &req) {
		return
	}

	err := s.actions.CreateCoupon(r.Context(), actions.CouponInput{
		Code:       req.Code,
		PercentOff: req.PercentOff,
		Active:     req.Active,
	})
	if err != nil {
		s.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"code": req.Code})
}

func (s *Server) handleUpdatePricing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Service     string `json:"service"`
		AmountCents int64  `json:"amount_cents"`
	}
	if !decode(w, r, &req) {
		return
	}

	err := s.actions.UpdatePricing(r.Context(), actions.PricingInput{
		Service:     req.Service,
		AmountCents: req.AmountCents,
	})
	if err != nil {
		s.writeActionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if !decode(w, r, &req) {
		return
	}

	err := s.actions.ChangeRole(r.Context(), actions.RoleInput{
		UserID: chi.URLParam(r, "userID"),
		Role:   req.Role,
	})
	if err != nil {
		s.writeActionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeActionError maps the error taxonomy onto HTTP. User-visible messages
// stay short and non-technical; the detail inside access errors is for
// server-side logs only.
func (s *Server) writeActionError(w http.ResponseWriter, err error) {
	var rle *actions.RateLimitError
	if errors.As(err, &rle) {
		writeError(w, http.StatusTooManyRequests, "rate_limited", rle.Message)
		return
	}

	var ve *actions.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusUnprocessableEntity, "invalid_input", ve.Error())
		return
	}

	switch {
	case access.IsUnauthorized(err):
		s.log.Warn().Str("deny", err.Error()).Msg("action unauthorized")
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case access.IsForbidden(err):
		s.log.Warn().Str("deny", err.Error()).Msg("action forbidden")
		writeError(w, http.StatusForbidden, "forbidden", "not permitted")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "no such record")
	default:
		s.log.Error().Err(err).Msg("action failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, errCode, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":{"code":"` + errCode + `","message":"` + msg + `"}}`))
}

package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolhub/internal/identity"
	"schoolhub/internal/platform/middleware"
	"schoolhub/internal/transport/http/shared"
	"schoolhub/internal/users"
	dErrors "schoolhub/pkg/domain-errors"
)

// AuthHandler serves login and the identity echo endpoint.
type AuthHandler struct {
	users  *users.Service
	gate   *identity.Gate
	logger *slog.Logger
}

func NewAuthHandler(users *users.Service, gate *identity.Gate, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, gate: gate, logger: logger}
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.With(h.gate.RequireResolved()).Get("/auth/me", h.handleMe)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeUnauthorized) && !dErrors.HasCode(err, dErrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "login failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	ic, ok := identity.FromContext(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal server error"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":        ic.UserID,
		"role":           ic.Role,
		"name":           ic.Name,
		"token_provided": ic.TokenProvided,
	})
}

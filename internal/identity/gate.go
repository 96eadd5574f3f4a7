package identity

import (
	"log/slog"
	"net/http"

	"schoolhub/internal/identity/roles"
	"schoolhub/internal/platform/metrics"
	"schoolhub/internal/platform/middleware"
	dErrors "schoolhub/pkg/domain-errors"
)

// ErrForbidden is the terminal failure for an authenticated caller whose
// role is outside the allowed set.
var ErrForbidden = dErrors.New(dErrors.CodeForbidden, "Forbidden")

// Gate is the sole authorization decision point. Policies are coarse role
// sets declared per endpoint; record-level ownership checks are a handler
// concern layered on top.
type Gate struct {
	resolver *Resolver
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewGate(resolver *Resolver, logger *slog.Logger, m *metrics.Metrics) *Gate {
	return &Gate{resolver: resolver, logger: logger, metrics: m}
}

// RequireUserWithRole resolves the request identity and checks membership in
// the allowed role set. Resolution failures propagate unchanged; role
// mismatches become ErrForbidden.
func (g *Gate) RequireUserWithRole(r *http.Request, allowedRoles ...string) (*Context, error) {
	ic, err := g.resolver.Resolve(r)
	if err != nil {
		g.countRejected("unauthorized")
		return nil, err
	}

	allowed := roles.NormalizeSet(allowedRoles)
	if _, ok := allowed[roles.Normalize(ic.Role)]; !ok {
		g.logger.WarnContext(r.Context(), "role not permitted",
			"user_id", ic.UserID,
			"role", ic.Role,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		g.countRejected("forbidden")
		return nil, ErrForbidden
	}
	return ic, nil
}

// Require is the chi middleware form of RequireUserWithRole. On success the
// resolved Context is attached to the request; on failure the terminal
// response is written here and the handler never runs.
func (g *Gate) Require(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ic, err := g.RequireUserWithRole(r, allowedRoles...)
			if err != nil {
				writeAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), ic)))
		})
	}
}

// RequireResolved admits any caller with a verifiable identity, regardless
// of role. Used by endpoints like /auth/me and notice listings.
func (g *Gate) RequireResolved() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ic, err := g.resolver.Resolve(r)
			if err != nil {
				g.countRejected("unauthorized")
				writeAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), ic)))
		})
	}
}

func (g *Gate) countRejected(reason string) {
	if g.metrics != nil {
		g.metrics.AuthRejectedTotal.WithLabelValues(reason).Inc()
	}
}

// writeAuthError mirrors shared.WriteError without importing the transport
// package (identity must stay transport-free apart from net/http).
func writeAuthError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_, _ = w.Write([]byte(`{"error":"` + dErrors.MessageOf(err) + `"}`))
}

package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"schoolhub/internal/identity/roles"
	"schoolhub/internal/jwttoken"
	"schoolhub/internal/users"
	dErrors "schoolhub/pkg/domain-errors"
	"schoolhub/pkg/platform/sentinel"
)

// Trusted header names for the internal-caller fallback path.
const (
	HeaderRole = "X-User-Role"
	HeaderID   = "X-User-Id"
	HeaderName = "X-User-Name"
)

// TokenVerifier is the single external token operation the resolver
// consumes: verify a token string into claims or fail.
type TokenVerifier interface {
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
}

// UserLookup is the one persisted-user read per resolution attempt.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*users.User, error)
}

// ErrUnauthorized is the terminal failure for every resolution path. The
// message is the response body contract; do not vary it per cause.
var ErrUnauthorized = dErrors.New(dErrors.CodeUnauthorized, "Unauthorized")

// Resolver extracts an identity Context from an incoming request via an
// ordered list of strategies, first success wins. The bearer path is always
// active; the trusted-header path only when the deployment opted in.
type Resolver struct {
	verifier     TokenVerifier
	users        UserLookup
	trustHeaders bool
	logger       *slog.Logger
	tracer       trace.Tracer
	strategies   []strategy
}

// A strategy inspects the request and either claims it (handled=true) or
// passes. A claiming strategy fully decides the outcome; later strategies
// are never consulted, so a malformed bearer token cannot fall back to
// headers.
type strategy func(ctx context.Context, r *http.Request) (ic *Context, handled bool, err error)

func NewResolver(verifier TokenVerifier, userLookup UserLookup, trustHeaders bool, logger *slog.Logger) *Resolver {
	res := &Resolver{
		verifier:     verifier,
		users:        userLookup,
		trustHeaders: trustHeaders,
		logger:       logger,
		tracer:       otel.Tracer("schoolhub/identity"),
	}
	res.strategies = []strategy{res.resolveBearer}
	if trustHeaders {
		res.strategies = append(res.strategies, res.resolveHeaders)
	}
	return res
}

// Resolve produces the request identity or ErrUnauthorized. It performs at
// most one persisted-user lookup and never mutates anything.
func (res *Resolver) Resolve(r *http.Request) (*Context, error) {
	ctx, span := res.tracer.Start(r.Context(), "identity.Resolve")
	defer span.End()

	for _, strat := range res.strategies {
		ic, handled, err := strat(ctx, r)
		if !handled {
			continue
		}
		if err != nil {
			return nil, err
		}
		return ic, nil
	}
	return nil, ErrUnauthorized
}

// resolveBearer handles "Authorization: Bearer <token>". The scheme prefix
// is matched case-insensitively; anything else leaves the request to the
// next strategy.
func (res *Resolver) resolveBearer(ctx context.Context, r *http.Request) (*Context, bool, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return nil, false, nil
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return nil, true, ErrUnauthorized
	}

	claims, err := res.verifier.ValidateToken(token)
	if err != nil {
		res.logger.WarnContext(ctx, "token verification failed",
			"error", err.Error(),
		)
		return nil, true, ErrUnauthorized
	}

	userID := strings.TrimSpace(claims.UserID)
	if userID == "" {
		res.logger.WarnContext(ctx, "verified token missing user id")
		return nil, true, ErrUnauthorized
	}

	role := roles.Normalize(claims.Role)
	if role == "" {
		res.logger.WarnContext(ctx, "verified token missing role", "user_id", userID)
		return nil, true, ErrUnauthorized
	}

	user, err := res.lookupUser(ctx, userID)
	if err != nil {
		return nil, true, err
	}

	name := strings.TrimSpace(claims.Name)
	if name == "" && user != nil {
		name = user.Name
	}

	return &Context{
		UserID:        userID,
		Role:          role,
		Name:          name,
		User:          user,
		TokenProvided: true,
	}, true, nil
}

// resolveHeaders handles the trusted internal-caller fallback. Both the role
// and id headers must be present; there is no partial fallback and no
// guessing. Network-boundary enforcement is a deployment concern, see the
// TrustProxyHeaders config doc.
func (res *Resolver) resolveHeaders(ctx context.Context, r *http.Request) (*Context, bool, error) {
	role := roles.Normalize(r.Header.Get(HeaderRole))
	userID := strings.TrimSpace(r.Header.Get(HeaderID))
	if role == "" || userID == "" {
		return nil, false, nil
	}

	user, err := res.lookupUser(ctx, userID)
	if err != nil {
		return nil, true, err
	}

	name := strings.TrimSpace(r.Header.Get(HeaderName))
	if name == "" && user != nil {
		name = user.Name
	}

	return &Context{
		UserID:        userID,
		Role:          role,
		Name:          name,
		User:          user,
		TokenProvided: false,
	}, true, nil
}

// lookupUser tolerates absence (nil user) but surfaces storage faults, which
// must not silently demote an identity to "no record".
func (res *Resolver) lookupUser(ctx context.Context, id string) (*users.User, error) {
	user, err := res.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		res.logger.ErrorContext(ctx, "user lookup failed during resolution",
			"user_id", id,
			"error", err.Error(),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}
	return user, nil
}

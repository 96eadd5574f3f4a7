package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolhub/internal/jwttoken"
	"schoolhub/internal/users"
	dErrors "schoolhub/pkg/domain-errors"
)

// countingLookup counts FindByID calls so tests can assert the
// one-lookup-per-resolution guarantee.
type countingLookup struct {
	next  UserLookup
	calls int
}

func (c *countingLookup) FindByID(ctx context.Context, id string) (*users.User, error) {
	c.calls++
	return c.next.FindByID(ctx, id)
}

type faultyLookup struct{}

func (faultyLookup) FindByID(context.Context, string) (*users.User, error) {
	return nil, errors.New("connection refused")
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTokens() *jwttoken.Service {
	return jwttoken.NewService("test-signing-key", "schoolhub-test")
}

func bearerRequest(t *testing.T, token string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/finance/expenses", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestResolveBearer(t *testing.T) {
	tokens := newTokens()
	store := users.NewMemory()
	require.NoError(t, store.Save(context.Background(), &users.User{
		ID: "u1", Email: "t@school.example", Name: "Ms Smith", Role: "Teacher", Active: true,
	}))

	t.Run("valid token yields a normalized context", func(t *testing.T) {
		lookup := &countingLookup{next: store}
		res := NewResolver(tokens, lookup, false, testLogger())

		token, err := tokens.GenerateAccessToken("u1", "Teacher", "Ms Smith", time.Hour)
		require.NoError(t, err)

		ic, err := res.Resolve(bearerRequest(t, token))
		require.NoError(t, err)
		assert.Equal(t, "u1", ic.UserID)
		assert.Equal(t, "teacher", ic.Role)
		assert.Equal(t, "Ms Smith", ic.Name)
		assert.True(t, ic.TokenProvided)
		require.NotNil(t, ic.User)
		assert.Equal(t, "t@school.example", ic.User.Email)
		assert.Equal(t, 1, lookup.calls, "exactly one user lookup per resolution")
	})

	t.Run("missing user record is tolerated", func(t *testing.T) {
		res := NewResolver(tokens, users.NewMemory(), false, testLogger())
		token, err := tokens.GenerateAccessToken("ghost", "admin", "Ghost", time.Hour)
		require.NoError(t, err)

		ic, err := res.Resolve(bearerRequest(t, token))
		require.NoError(t, err)
		assert.Nil(t, ic.User)
		assert.Equal(t, "ghost", ic.UserID)
	})

	t.Run("lookup fault is an internal error, not unauthorized", func(t *testing.T) {
		res := NewResolver(tokens, faultyLookup{}, false, testLogger())
		token, err := tokens.GenerateAccessToken("u1", "teacher", "", time.Hour)
		require.NoError(t, err)

		_, err = res.Resolve(bearerRequest(t, token))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("expired token is unauthorized", func(t *testing.T) {
		res := NewResolver(tokens, store, false, testLogger())
		token, err := tokens.GenerateAccessToken("u1", "teacher", "", -time.Minute)
		require.NoError(t, err)

		_, err = res.Resolve(bearerRequest(t, token))
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		res := NewResolver(tokens, store, false, testLogger())
		_, err := res.Resolve(bearerRequest(t, "not.a.jwt"))
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("empty bearer token is unauthorized, no header fallback", func(t *testing.T) {
		res := NewResolver(tokens, store, true, testLogger())
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer   ")
		r.Header.Set(HeaderRole, "admin")
		r.Header.Set(HeaderID, "u1")

		_, err := res.Resolve(r)
		assert.ErrorIs(t, err, ErrUnauthorized, "a claimed bearer path never falls back to headers")
	})

	t.Run("token with empty role claim is unauthorized", func(t *testing.T) {
		res := NewResolver(tokens, store, false, testLogger())
		token, err := tokens.GenerateAccessToken("u1", "   ", "", time.Hour)
		require.NoError(t, err)

		_, err = res.Resolve(bearerRequest(t, token))
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestResolveHeaders(t *testing.T) {
	tokens := newTokens()
	store := users.NewMemory()
	require.NoError(t, store.Save(context.Background(), &users.User{
		ID: "a1", Email: "a@school.example", Name: "Bookkeeper", Role: "Accountant", Active: true,
	}))

	t.Run("header pair resolves when trusted", func(t *testing.T) {
		res := NewResolver(tokens, store, true, testLogger())
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(HeaderRole, "Accountant")
		r.Header.Set(HeaderID, "a1")

		ic, err := res.Resolve(r)
		require.NoError(t, err)
		assert.Equal(t, "accountant", ic.Role)
		assert.Equal(t, "a1", ic.UserID)
		assert.Equal(t, "Bookkeeper", ic.Name, "name backfilled from the user record")
		assert.False(t, ic.TokenProvided)
	})

	t.Run("headers ignored when not trusted", func(t *testing.T) {
		res := NewResolver(tokens, store, false, testLogger())
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(HeaderRole, "Accountant")
		r.Header.Set(HeaderID, "a1")

		_, err := res.Resolve(r)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("partial header pair does not resolve", func(t *testing.T) {
		res := NewResolver(tokens, store, true, testLogger())
		for _, set := range []func(r *http.Request){
			func(r *http.Request) { r.Header.Set(HeaderRole, "Accountant") },
			func(r *http.Request) { r.Header.Set(HeaderID, "a1") },
		} {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			set(r)
			_, err := res.Resolve(r)
			assert.ErrorIs(t, err, ErrUnauthorized)
		}
	})

	t.Run("explicit name header wins over the record", func(t *testing.T) {
		res := NewResolver(tokens, store, true, testLogger())
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(HeaderRole, "accountant")
		r.Header.Set(HeaderID, "a1")
		r.Header.Set(HeaderName, "Proxy Name")

		ic, err := res.Resolve(r)
		require.NoError(t, err)
		assert.Equal(t, "Proxy Name", ic.Name)
	})
}

func TestResolveNoCredential(t *testing.T) {
	res := NewResolver(newTokens(), users.NewMemory(), true, testLogger())
	_, err := res.Resolve(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

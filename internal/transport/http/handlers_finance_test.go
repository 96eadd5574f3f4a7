package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolhub/internal/audit"
	"schoolhub/internal/finance"
	"schoolhub/internal/identity"
	"schoolhub/internal/jwttoken"
	"schoolhub/internal/platform/metrics"
	"schoolhub/internal/users"
)

type env struct {
	router     http.Handler
	tokens     *jwttoken.Service
	userStore  *users.MemoryStore
	auditStore audit.Store
	finance    *finance.Service
}

type memAuditStore interface {
	audit.Store
	All() []audit.Entry
}

// newEnv assembles the full stack on memory stores. auditStore defaults to
// the memory store when nil.
func newEnv(t *testing.T, auditStore audit.Store) *env {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	m := metrics.NewWith(prometheus.NewRegistry())

	if auditStore == nil {
		auditStore = audit.NewMemoryStore()
	}
	recorder := audit.NewRecorder(auditStore, logger)

	tokens := jwttoken.NewService("test-signing-key", "schoolhub-test")
	userStore := users.NewMemory()
	resolver := identity.NewResolver(tokens, userStore, false, logger)
	gate := identity.NewGate(resolver, logger, m)

	financeSvc := finance.NewService(
		finance.NewMemoryExpenseStore(),
		finance.NewMemoryWaiverStore(),
		finance.NewMemoryCollectionStore(),
		finance.WithLogger(logger),
	)

	router := NewRouter(logger, m,
		NewFinanceHandler(financeSvc, recorder, gate, logger),
	)
	return &env{
		router:     router,
		tokens:     tokens,
		userStore:  userStore,
		auditStore: auditStore,
		finance:    financeSvc,
	}
}

func (e *env) tokenFor(t *testing.T, userID, role, name string) string {
	t.Helper()
	token, err := e.tokens.GenerateAccessToken(userID, role, name, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *env) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func seedExpense(t *testing.T, e *env) *finance.Expense {
	t.Helper()
	expense, err := e.finance.CreateExpense(context.Background(), finance.CreateExpenseInput{
		Title: "Bus repair", Category: "transport", Amount: 200_00,
	})
	require.NoError(t, err)
	return expense
}

func TestListExpensesAuditsSuperAdmin(t *testing.T) {
	e := newEnv(t, nil)
	seedExpense(t, e)
	token := e.tokenFor(t, "u-1", "Super Admin", "Principal")

	rec := e.do(t, http.MethodGet, "/finance/expenses?month=2026-08&category=transport", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := e.auditStore.(memAuditStore).All()
	require.Len(t, entries, 1, "exactly one audit entry per audited listing")
	assert.Equal(t, audit.ActionExpensesView, entries[0].Action)
	assert.Equal(t, "u-1", entries[0].UserID)
	assert.Equal(t, "super_admin", entries[0].UserRole)
	assert.Equal(t, map[string]string{"month": "2026-08", "category": "transport"}, entries[0].Filters)
	assert.NotEmpty(t, entries[0].RequestID)
}

func TestListExpensesDoesNotAuditAccountant(t *testing.T) {
	e := newEnv(t, nil)
	seedExpense(t, e)
	token := e.tokenFor(t, "u-2", "Accountant", "Bookkeeper")

	rec := e.do(t, http.MethodGet, "/finance/expenses", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, e.auditStore.(memAuditStore).All())
}

type brokenAuditStore struct{}

func (brokenAuditStore) Append(context.Context, audit.Entry) error {
	return errors.New("disk full")
}

func (brokenAuditStore) List(context.Context, int) ([]audit.Entry, error) {
	return nil, errors.New("disk full")
}

func TestAuditFailureDoesNotChangeResponse(t *testing.T) {
	e := newEnv(t, brokenAuditStore{})
	seedExpense(t, e)
	token := e.tokenFor(t, "u-1", "super_admin", "Principal")

	rec := e.do(t, http.MethodGet, "/finance/expenses", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var expenses []finance.Expense
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &expenses))
	assert.Len(t, expenses, 1)
}

func TestFinanceAuthz(t *testing.T) {
	e := newEnv(t, nil)

	t.Run("no credential is unauthorized", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/finance/expenses", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/finance/expenses", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	})

	t.Run("wrong role is forbidden", func(t *testing.T) {
		token := e.tokenFor(t, "u-3", "teacher", "Ms Smith")
		rec := e.do(t, http.MethodGet, "/finance/expenses", token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"error":"Forbidden"}`, rec.Body.String())
	})

	t.Run("role casing does not matter", func(t *testing.T) {
		token := e.tokenFor(t, "u-4", "ACCOUNTANT", "Bookkeeper")
		rec := e.do(t, http.MethodGet, "/finance/expenses", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("audit log is super_admin only", func(t *testing.T) {
		token := e.tokenFor(t, "u-5", "admin", "Admin")
		rec := e.do(t, http.MethodGet, "/finance/audit-log", token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		token = e.tokenFor(t, "u-1", "super_admin", "Principal")
		rec = e.do(t, http.MethodGet, "/finance/audit-log", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestDeleteExpenseHTTP(t *testing.T) {
	e := newEnv(t, nil)
	admin := e.tokenFor(t, "u-1", "admin", "Head Admin")

	t.Run("missing reason is a 400", func(t *testing.T) {
		expense := seedExpense(t, e)
		rec := e.do(t, http.MethodDelete, "/finance/expenses/"+expense.ID, admin, map[string]string{"reason": "  "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "reason")
	})

	t.Run("unknown id is a 404", func(t *testing.T) {
		rec := e.do(t, http.MethodDelete, "/finance/expenses/unknown", admin, map[string]string{"reason": "duplicate"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("returns the marked record", func(t *testing.T) {
		expense := seedExpense(t, e)
		rec := e.do(t, http.MethodDelete, "/finance/expenses/"+expense.ID, admin, map[string]string{"reason": "entered twice"})
		require.Equal(t, http.StatusOK, rec.Code)

		var deleted finance.Expense
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
		assert.NotNil(t, deleted.DeletedAt)
		assert.Equal(t, "entered twice", deleted.DeleteReason)
		require.NotNil(t, deleted.DeletedBy)
		assert.Equal(t, "u-1", deleted.DeletedBy.UserID)
		assert.Equal(t, "Head Admin", deleted.DeletedBy.UserName)
		assert.Equal(t, expense.Title, deleted.Title)
	})

	t.Run("accountant cannot delete", func(t *testing.T) {
		expense := seedExpense(t, e)
		token := e.tokenFor(t, "u-2", "accountant", "Bookkeeper")
		rec := e.do(t, http.MethodDelete, "/finance/expenses/"+expense.ID, token, map[string]string{"reason": "nope"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAnalyticsAudited(t *testing.T) {
	e := newEnv(t, nil)
	token := e.tokenFor(t, "u-1", "super_admin", "Principal")

	rec := e.do(t, http.MethodGet, "/finance/analytics", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := e.auditStore.(memAuditStore).All()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionFinanceAnalytics, entries[0].Action)
	assert.Empty(t, entries[0].Filters)
}

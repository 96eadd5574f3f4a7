package httptransport

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"log/slog"

	"schoolhub/internal/identity"
	"schoolhub/internal/jwttoken"
	"schoolhub/internal/platform/metrics"
	"schoolhub/internal/school"
	"schoolhub/internal/users"
	"schoolhub/pkg/testutil"
)

type schoolEnv struct {
	router http.Handler
	tokens *jwttoken.Service
}

func newSchoolEnv(t *testing.T) *schoolEnv {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	m := metrics.NewWith(prometheus.NewRegistry())

	tokens := jwttoken.NewService("test-signing-key", "schoolhub-test")
	resolver := identity.NewResolver(tokens, users.NewMemory(), false, logger)
	gate := identity.NewGate(resolver, logger, m)

	svc := school.NewService(
		school.NewMemoryStudentStore(),
		school.NewMemoryClassStore(),
		school.NewMemoryNoticeStore(),
		logger,
	)
	router := NewRouter(logger, m, NewSchoolHandler(svc, gate, logger))
	return &schoolEnv{router: router, tokens: tokens}
}

func (e *schoolEnv) token(t *testing.T, role string) string {
	t.Helper()
	token, err := e.tokens.GenerateAccessToken("u-1", role, "Tester", time.Hour)
	require.NoError(t, err)
	return token
}

func TestStudentCRUD(t *testing.T) {
	e := newSchoolEnv(t)
	admin := e.token(t, "admin")

	req := testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/students", map[string]string{
		"first_name": "Ada", "last_name": "Lovelace",
	}), admin)
	rec := testutil.DoRequest(e.router, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := testutil.UnmarshalResponse[school.Student](t, rec)
	assert.Equal(t, "Ada", created.FirstName)
	assert.NotEmpty(t, created.ID)

	req = testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/students/"+created.ID, nil), admin)
	rec = testutil.DoRequest(e.router, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPut, "/students/"+created.ID, map[string]string{
		"first_name": "Ada", "last_name": "King",
	}), admin)
	rec = testutil.DoRequest(e.router, req)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := testutil.UnmarshalResponse[school.Student](t, rec)
	assert.Equal(t, "King", updated.LastName)

	req = testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodDelete, "/students/"+created.ID, nil), admin)
	rec = testutil.DoRequest(e.router, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/students/"+created.ID, nil), admin)
	rec = testutil.DoRequest(e.router, req)
	testutil.AssertErrorBody(t, rec, http.StatusNotFound, "not found")
}

func TestStudentRoleBoundaries(t *testing.T) {
	e := newSchoolEnv(t)

	t.Run("teacher may list but not create", func(t *testing.T) {
		teacher := e.token(t, "Teacher")

		rec := testutil.DoRequest(e.router,
			testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/students", nil), teacher))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = testutil.DoRequest(e.router,
			testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/students", map[string]string{
				"first_name": "A", "last_name": "B",
			}), teacher))
		testutil.AssertErrorBody(t, rec, http.StatusForbidden, "Forbidden")
	})

	t.Run("student role sees nothing", func(t *testing.T) {
		student := e.token(t, "student")
		rec := testutil.DoRequest(e.router,
			testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/students", nil), student))
		testutil.AssertErrorBody(t, rec, http.StatusForbidden, "Forbidden")
	})
}

func TestNotices(t *testing.T) {
	e := newSchoolEnv(t)
	admin := e.token(t, "super admin")

	rec := testutil.DoRequest(e.router,
		testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/notices", map[string]string{
			"title": "Sports day", "body": "Friday, on the main field.",
		}), admin))
	require.Equal(t, http.StatusCreated, rec.Code)
	notice := testutil.UnmarshalResponse[school.Notice](t, rec)
	assert.Equal(t, "u-1", notice.PublishedBy)

	// Any resolved identity may read notices.
	student := e.token(t, "student")
	rec = testutil.DoRequest(e.router,
		testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodGet, "/notices", nil), student))
	require.Equal(t, http.StatusOK, rec.Code)
	notices := testutil.UnmarshalResponse[[]school.Notice](t, rec)
	assert.Len(t, *notices, 1)

	rec = testutil.DoRequest(e.router,
		testutil.NewJSONRequest(t, http.MethodGet, "/notices", nil))
	testutil.AssertErrorBody(t, rec, http.StatusUnauthorized, "Unauthorized")
}

package users

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"schoolhub/internal/jwttoken"
	dErrors "schoolhub/pkg/domain-errors"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemory()
	tokens := jwttoken.NewService("test-signing-key", "schoolhub-test")
	svc := NewService(store, tokens, time.Hour, WithLogger(slog.New(slog.DiscardHandler)))
	return svc, store
}

func seedUser(t *testing.T, store *MemoryStore, email, password, role string, active bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), &User{
		ID:           "u-" + email,
		Email:        email,
		Name:         "Test User",
		Role:         role,
		PasswordHash: string(hash),
		Active:       active,
	}))
}

func TestLogin(t *testing.T) {
	svc, store := newTestService(t)
	seedUser(t, store, "acc@school.example", "s3cret", "Accountant", true)

	t.Run("success returns a token and normalized role", func(t *testing.T) {
		result, err := svc.Login(context.Background(), "acc@school.example", "s3cret")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, "accountant", result.Role)
		assert.Equal(t, "Test User", result.Name)
	})

	t.Run("rejections are indistinguishable", func(t *testing.T) {
		seedUser(t, store, "off@school.example", "pw", "teacher", false)

		cases := []struct {
			name            string
			email, password string
		}{
			{"unknown email", "nobody@school.example", "s3cret"},
			{"wrong password", "acc@school.example", "wrong"},
			{"inactive account", "off@school.example", "pw"},
		}
		var messages []string
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.Login(context.Background(), tc.email, tc.password)
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
				messages = append(messages, dErrors.MessageOf(err))
			})
		}
		for _, msg := range messages {
			assert.Equal(t, messages[0], msg, "rejection messages must not leak which check failed")
		}
	})

	t.Run("empty input is a validation error", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "  ", "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

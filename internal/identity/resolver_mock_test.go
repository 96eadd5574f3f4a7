package identity

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"schoolhub/internal/identity/mocks"
	"schoolhub/internal/jwttoken"
	"schoolhub/internal/users"
)

//go:generate mockgen -source=resolver.go -destination=mocks/identity-mocks.go -package=mocks TokenVerifier,UserLookup

func TestResolveLookupDiscipline(t *testing.T) {
	t.Run("bearer path performs exactly one lookup", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		t.Cleanup(ctrl.Finish)
		verifier := mocks.NewMockTokenVerifier(ctrl)
		lookup := mocks.NewMockUserLookup(ctrl)

		verifier.EXPECT().ValidateToken("tok").Return(&jwttoken.Claims{
			UserID: "u1", Role: "Teacher", Name: "Ms Smith",
		}, nil)
		lookup.EXPECT().FindByID(gomock.Any(), "u1").Times(1).Return(&users.User{
			ID: "u1", Name: "Ms Smith", Role: "Teacher", Active: true,
		}, nil)

		res := NewResolver(verifier, lookup, false, testLogger())
		ic, err := res.Resolve(bearerRequest(t, "tok"))
		require.NoError(t, err)
		assert.Equal(t, "teacher", ic.Role)
	})

	t.Run("rejected token performs no lookup", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		t.Cleanup(ctrl.Finish)
		verifier := mocks.NewMockTokenVerifier(ctrl)
		lookup := mocks.NewMockUserLookup(ctrl)

		verifier.EXPECT().ValidateToken("bad").Return(nil, assert.AnError)
		// No FindByID expectation: any call fails the test.

		res := NewResolver(verifier, lookup, false, testLogger())
		_, err := res.Resolve(bearerRequest(t, "bad"))
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("header path reuses the same lookup contract", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		t.Cleanup(ctrl.Finish)
		verifier := mocks.NewMockTokenVerifier(ctrl)
		lookup := mocks.NewMockUserLookup(ctrl)

		lookup.EXPECT().FindByID(gomock.Any(), "a1").Times(1).Return(nil, nil)

		res := NewResolver(verifier, lookup, true, testLogger())
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(HeaderRole, "accountant")
		r.Header.Set(HeaderID, "a1")

		ic, err := res.Resolve(r)
		require.NoError(t, err)
		assert.False(t, ic.TokenProvided)
	})
}

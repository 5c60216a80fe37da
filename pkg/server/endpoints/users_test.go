package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
)

func TestRegister(t *testing.T) {
	t.Run("creates an active user and signs them in", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.On("CreateUser", mock.MatchedBy(func(u *model.User) bool {
			return u.Email == "new@example.com" && u.IsActive && !u.IsSuperuser && u.PasswordHash != "secret123"
		})).Run(func(args mock.Arguments) {
			args.Get(0).(*model.User).ID = 42
		}).Return(nil)

		rec := ts.do("POST", "/api/users", "", RegisterRequest{
			Username: "newbie",
			Email:    "new@example.com",
			Password: "secret123",
		})

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp RegisterResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, uint(42), resp.User.ID)
		assert.Equal(t, "bearer", resp.TokenType)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotContains(t, rec.Body.String(), "password")
		ts.users.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		ts := newTestServer(t)
		ts.users.On("CreateUser", mock.Anything).Return(store.ErrDuplicateEmail)

		rec := ts.do("POST", "/api/users", "", RegisterRequest{
			Username: "test",
			Email:    "test@example.com",
			Password: "secret123",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Email already registered", decodeDetail(t, rec))
	})

	t.Run("invalid email", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do("POST", "/api/users", "", RegisterRequest{
			Username: "test",
			Email:    "not-an-email",
			Password: "secret123",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		ts.users.AssertNotCalled(t, "CreateUser", mock.Anything)
	})

	t.Run("registration disabled", func(t *testing.T) {
		users := NewMockUsersStore()
		cfg := testConfig()
		cfg.RegistrationEnabled = false

		req := requestWithIdentity("POST", "/api/users", RegisterRequest{
			Username: "test",
			Email:    "test@example.com",
			Password: "secret123",
		}, nil, nil)
		rec := httptest.NewRecorder()
		handleRegister(users, nil, nil, cfg)(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		users.AssertNotCalled(t, "CreateUser", mock.Anything)
	})
}

func TestMe(t *testing.T) {
	t.Run("returns the resolved user", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do("GET", "/api/users/me", ts.bearerFor(t, owner), nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, UserResponse{ID: 1, Username: "test", Email: "test@example.com", IsActive: true}, resp)
	})

	t.Run("no token", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do("GET", "/api/users/me", "", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	})
}

package authenticator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/password"
	"github.com/wildbranch/wbl-catalog/pkg/server/store"
	"github.com/wildbranch/wbl-catalog/pkg/token"
)

type mockUsersStore struct {
	mock.Mock
}

func (m *mockUsersStore) FindUserByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUsersStore) CreateUser(user *model.User) error {
	return m.Called(user).Error(0)
}

func (m *mockUsersStore) UpdatePasswordHash(email string, hash string) error {
	return m.Called(email, hash).Error(0)
}

func testUser(t *testing.T, hasher *password.Hasher, email, plaintext string) *model.User {
	t.Helper()
	hash, err := hasher.Hash(plaintext)
	require.NoError(t, err)
	return &model.User{ID: 1, Username: "test", Email: email, PasswordHash: hash, IsActive: true}
}

func TestAuthenticate(t *testing.T) {
	hasher := password.NewHasher(bcrypt.MinCost)
	dbErr := errors.New("connection refused")

	tests := []struct {
		name      string
		setup     func(users *mockUsersStore)
		email     string
		password  string
		wantErr   error
		alsoMatch error
	}{
		{
			name: "valid credentials",
			setup: func(users *mockUsersStore) {
				users.On("FindUserByEmail", "test@example.com").
					Return(testUser(t, hasher, "test@example.com", "testpassword123"), nil)
			},
			email:    "test@example.com",
			password: "testpassword123",
		},
		{
			name: "wrong password",
			setup: func(users *mockUsersStore) {
				users.On("FindUserByEmail", "test@example.com").
					Return(testUser(t, hasher, "test@example.com", "testpassword123"), nil)
			},
			email:    "test@example.com",
			password: "wrongpassword",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name: "unknown email",
			setup: func(users *mockUsersStore) {
				users.On("FindUserByEmail", "ghost@example.com").Return(nil, store.ErrUserNotFound)
			},
			email:    "ghost@example.com",
			password: "whatever",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name: "inactive account with correct password",
			setup: func(users *mockUsersStore) {
				u := testUser(t, hasher, "off@example.com", "pw")
				u.IsActive = false
				users.On("FindUserByEmail", "off@example.com").Return(u, nil)
			},
			email:    "off@example.com",
			password: "pw",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name: "corrupt stored hash",
			setup: func(users *mockUsersStore) {
				users.On("FindUserByEmail", "bad@example.com").
					Return(&model.User{ID: 2, Email: "bad@example.com", PasswordHash: "plaintext?", IsActive: true}, nil)
			},
			email:     "bad@example.com",
			password:  "pw",
			wantErr:   ErrInvalidCredentials,
			alsoMatch: password.ErrCorruptCredentialRecord,
		},
		{
			name: "storage failure propagates",
			setup: func(users *mockUsersStore) {
				users.On("FindUserByEmail", "test@example.com").Return(nil, dbErr)
			},
			email:    "test@example.com",
			password: "pw",
			wantErr:  dbErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mockUsersStore{}
			tt.setup(users)

			user, err := New(users, hasher).Authenticate(tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.alsoMatch != nil {
					assert.ErrorIs(t, err, tt.alsoMatch)
				}
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.email, user.Email)
			users.AssertExpectations(t)
		})
	}
}

func TestNew_PreparesDummyHash(t *testing.T) {
	hasher := password.NewHasher(bcrypt.MinCost)
	a := New(&mockUsersStore{}, hasher)

	require.NotEmpty(t, a.dummyHash)
	cost, err := bcrypt.Cost([]byte(a.dummyHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	ok, err := hasher.Verify(dummyPassword, a.dummyHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthenticate_UnknownEmailKeepsDummyHash(t *testing.T) {
	users := &mockUsersStore{}
	users.On("FindUserByEmail", "ghost@example.com").Return(nil, store.ErrUserNotFound)

	a := New(users, password.NewHasher(bcrypt.MinCost))
	prepared := a.dummyHash

	for i := 0; i < 2; i++ {
		_, err := a.Authenticate("ghost@example.com", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	assert.Equal(t, prepared, a.dummyHash)
}

func TestAuthenticate_StorageFailureIsNotInvalidCredentials(t *testing.T) {
	users := &mockUsersStore{}
	users.On("FindUserByEmail", "test@example.com").Return(nil, errors.New("timeout"))

	_, err := New(users, password.NewHasher(bcrypt.MinCost)).Authenticate("test@example.com", "pw")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolve(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	codec, err := token.NewCodec(token.Config{Secret: secret})
	require.NoError(t, err)

	active := &model.User{ID: 1, Email: "test@example.com", IsActive: true}
	inactive := &model.User{ID: 2, Email: "off@example.com", IsActive: false}

	issue := func(subject string) string {
		tok, err := codec.Issue(subject, time.Hour)
		require.NoError(t, err)
		return tok
	}

	t.Run("active user", func(t *testing.T) {
		users := &mockUsersStore{}
		users.On("FindUserByEmail", "test@example.com").Return(active, nil)

		user, err := NewResolver(codec, users).Resolve(issue("test@example.com"))
		require.NoError(t, err)
		assert.Equal(t, active, user)
		users.AssertExpectations(t)
	})

	t.Run("subject re-read on every call", func(t *testing.T) {
		users := &mockUsersStore{}
		users.On("FindUserByEmail", "test@example.com").Return(active, nil).Twice()

		r := NewResolver(codec, users)
		tok := issue("test@example.com")
		_, err := r.Resolve(tok)
		require.NoError(t, err)
		_, err = r.Resolve(tok)
		require.NoError(t, err)
		users.AssertNumberOfCalls(t, "FindUserByEmail", 2)
	})

	t.Run("user deactivated after issue", func(t *testing.T) {
		users := &mockUsersStore{}
		users.On("FindUserByEmail", "off@example.com").Return(inactive, nil)

		_, err := NewResolver(codec, users).Resolve(issue("off@example.com"))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("user deleted after issue", func(t *testing.T) {
		users := &mockUsersStore{}
		users.On("FindUserByEmail", "gone@example.com").Return(nil, store.ErrUserNotFound)

		_, err := NewResolver(codec, users).Resolve(issue("gone@example.com"))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		past, err := token.NewCodec(token.Config{
			Secret: secret,
			Now:    func() time.Time { return time.Now().Add(-31 * 24 * time.Hour) },
		})
		require.NoError(t, err)
		tok, err := past.Issue("test@example.com", token.DefaultValidity)
		require.NoError(t, err)

		users := &mockUsersStore{}
		_, err = NewResolver(codec, users).Resolve(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, token.ErrExpired)
		users.AssertNotCalled(t, "FindUserByEmail", mock.Anything)
	})

	t.Run("garbage token", func(t *testing.T) {
		users := &mockUsersStore{}
		_, err := NewResolver(codec, users).Resolve("garbage")
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, token.ErrMalformed)
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		dbErr := errors.New("connection refused")
		users := &mockUsersStore{}
		users.On("FindUserByEmail", "test@example.com").Return(nil, dbErr)

		_, err := NewResolver(codec, users).Resolve(issue("test@example.com"))
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, ErrInvalidToken)
	})
}

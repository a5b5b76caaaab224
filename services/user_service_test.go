package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/staff-portal/auth"
	"github.com/upb/staff-portal/models"
	"github.com/upb/staff-portal/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, filter repositories.UserFilter) ([]*models.User, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateStatus(ctx context.Context, id string, status models.UserStatus, at time.Time) (*models.User, error) {
	args := m.Called(ctx, id, status, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSigner is a mock implementation of TokenSigner
type MockSigner struct {
	mock.Mock
}

func (m *MockSigner) Sign(user *models.User) (string, time.Time, error) {
	args := m.Called(user)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func createRequest() *models.CreateUserRequest {
	return &models.CreateUserRequest{
		FirstName:    "Kamala",
		LastName:     "Fernando",
		Dob:          time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		NIC:          "901030123V",
		Gender:       "female",
		EID:          "EMP-0042",
		Email:        "Kamala@School.lk",
		MobileNumber: "0771234567",
		StreetNumber: "12A",
		City:         "Kandy",
		Province:     "Central",
		JobTitle:     "Teacher",
		WorkAddress:  "Main Street, Kandy",
		SchoolName:   "Kandy Central College",
		UserRole:     models.RoleAdminUser,
		Status:       models.StatusActive,
		Password:     "s3cret-pass",
	}
}

func newTestService(users *MockUserRepository, txMgr repositories.TransactionManager, signer TokenSigner) *UserService {
	svc := NewUserService(users, txMgr, signer, zap.NewNop())
	svc.hashCost = bcrypt.MinCost
	return svc
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestUserService_CreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with hashed password", func(t *testing.T) {
		users := new(MockUserRepository)
		txMgr, tx, _ := newMockTx(ctx)
		tx.On("Commit").Return(nil)

		users.On("GetByEmail", mock.Anything, "kamala@school.lk").Return(nil, repositories.ErrNotFound)
		users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

		user, err := newTestService(users, txMgr, nil).CreateUser(ctx, createRequest())
		require.NoError(t, err)

		assert.NotEmpty(t, user.UserID)
		assert.Equal(t, "kamala@school.lk", user.Email)
		assert.Equal(t, models.RoleAdminUser, user.UserRole)
		assert.Equal(t, models.StatusActive, user.Status)
		assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))
		assert.True(t, tx.committed)
		users.AssertExpectations(t)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		users := new(MockUserRepository)
		txMgr, tx, _ := newMockTx(ctx)
		tx.On("Rollback").Return(nil)

		users.On("GetByEmail", mock.Anything, "kamala@school.lk").Return(&models.User{UserID: "u9"}, nil)

		_, err := newTestService(users, txMgr, nil).CreateUser(ctx, createRequest())
		assert.ErrorIs(t, err, ErrDuplicateEmail)
		assert.True(t, tx.rolledback)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("maps unique violation on insert to duplicate email", func(t *testing.T) {
		users := new(MockUserRepository)
		txMgr, tx, _ := newMockTx(ctx)
		tx.On("Rollback").Return(nil)

		users.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, repositories.ErrNotFound)
		users.On("Create", mock.Anything, mock.Anything).Return(repositories.ErrDuplicate)

		_, err := newTestService(users, txMgr, nil).CreateUser(ctx, createRequest())
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		users := new(MockUserRepository)
		txMgr, tx, _ := newMockTx(ctx)
		tx.On("Rollback").Return(nil)

		users.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

		_, err := newTestService(users, txMgr, nil).CreateUser(ctx, createRequest())
		assert.True(t, IsInternalError(err))
	})

	t.Run("validation failure lists fields", func(t *testing.T) {
		users := new(MockUserRepository)
		req := createRequest()
		req.MobileNumber = "123"
		req.Email = "bad"

		_, err := newTestService(users, new(MockTransactionManager), nil).CreateUser(ctx, req)
		require.True(t, IsValidationError(err))
		details := GetErrorDetails(err)
		assert.Contains(t, details, "mobileNumber")
		assert.Contains(t, details, "email")
	})
}

func TestUserService_PasswordByteLimit(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	req := createRequest()
	req.Password = strings.Repeat("é", 40)

	_, err := newTestService(users, new(MockTransactionManager), nil).Register(ctx, req)
	require.True(t, IsValidationError(err))
	assert.False(t, IsInternalError(err))
	assert.Contains(t, GetErrorDetails(err), "password")
	users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDummyHash(t *testing.T) {
	cost, err := bcrypt.Cost(dummyHash())
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	txMgr, tx, _ := newMockTx(ctx)
	tx.On("Commit").Return(nil)

	users.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, repositories.ErrNotFound)
	users.On("Create", mock.Anything, mock.Anything).Return(nil)

	user, err := newTestService(users, txMgr, nil).Register(ctx, createRequest())
	require.NoError(t, err)
	assert.Equal(t, models.RolePublicUser, user.UserRole, "requested admin role is ignored")
	assert.Equal(t, models.StatusPending, user.Status)
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	signer := auth.NewSigner(auth.Config{Secret: "login-secret", TTL: time.Hour, Clock: func() time.Time { return now }})

	active := &models.User{
		UserID:       "u1",
		FirstName:    "Kamala",
		LastName:     "Fernando",
		Email:        "kamala@school.lk",
		UserRole:     models.RoleAdminUser,
		Status:       models.StatusActive,
		PasswordHash: hashed(t, "s3cret-pass"),
	}
	pending := *active
	pending.Status = models.StatusPending

	tests := []struct {
		name     string
		req      *models.LoginRequest
		setup    func(*MockUserRepository)
		signer   TokenSigner
		wantErr  error
		internal bool
	}{
		{
			name: "issues token for active user",
			req:  &models.LoginRequest{Email: "Kamala@School.lk", Password: "s3cret-pass"},
			setup: func(m *MockUserRepository) {
				m.On("GetByEmail", mock.Anything, "kamala@school.lk").Return(active, nil)
			},
		},
		{
			name: "unknown email",
			req:  &models.LoginRequest{Email: "nobody@school.lk", Password: "s3cret-pass"},
			setup: func(m *MockUserRepository) {
				m.On("GetByEmail", mock.Anything, "nobody@school.lk").Return(nil, repositories.ErrNotFound)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name: "wrong password",
			req:  &models.LoginRequest{Email: "kamala@school.lk", Password: "guess-again"},
			setup: func(m *MockUserRepository) {
				m.On("GetByEmail", mock.Anything, "kamala@school.lk").Return(active, nil)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name: "pending account",
			req:  &models.LoginRequest{Email: "kamala@school.lk", Password: "s3cret-pass"},
			setup: func(m *MockUserRepository) {
				m.On("GetByEmail", mock.Anything, "kamala@school.lk").Return(&pending, nil)
			},
			wantErr: ErrAccountInactive,
		},
		{
			name: "signing secret missing",
			req:  &models.LoginRequest{Email: "kamala@school.lk", Password: "s3cret-pass"},
			setup: func(m *MockUserRepository) {
				m.On("GetByEmail", mock.Anything, "kamala@school.lk").Return(active, nil)
			},
			signer:  auth.NewSigner(auth.Config{}),
			wantErr: ErrTokenUnavailable,
		},
		{
			name: "store failure",
			req:  &models.LoginRequest{Email: "kamala@school.lk", Password: "s3cret-pass"},
			setup: func(m *MockUserRepository) {
				m.On("GetByEmail", mock.Anything, "kamala@school.lk").Return(nil, errors.New("timeout"))
			},
			internal: true,
		},
		{
			name:    "missing password",
			req:     &models.LoginRequest{Email: "kamala@school.lk"},
			setup: func(*MockUserRepository) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			tt.setup(users)
			s := TokenSigner(signer)
			if tt.signer != nil {
				s = tt.signer
			}

			resp, err := newTestService(users, nil, s).Login(ctx, tt.req)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
			case tt.internal:
				assert.True(t, IsInternalError(err))
			case tt.req.Password == "":
				assert.True(t, IsValidationError(err))
			default:
				require.NoError(t, err)
				assert.Equal(t, "Bearer", resp.TokenType)
				assert.Equal(t, now.Add(time.Hour), resp.ExpiresAt)
				assert.Equal(t, "u1", resp.User.UserID)

				claims, err := auth.NewVerifier(auth.Config{Secret: "login-secret", Clock: func() time.Time { return now }}).Verify(resp.AccessToken)
				require.NoError(t, err)
				assert.Equal(t, "u1", claims.UserID)
				assert.Equal(t, models.RoleAdminUser, claims.UserRole)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestUserService_SignerFailure(t *testing.T) {
	users := new(MockUserRepository)
	user := &models.User{UserID: "u1", Status: models.StatusActive, PasswordHash: hashed(t, "s3cret-pass")}
	users.On("GetByEmail", mock.Anything, "kamala@school.lk").Return(user, nil)
	signer := new(MockSigner)
	signer.On("Sign", user).Return("", time.Time{}, errors.New("hsm offline"))

	_, err := newTestService(users, nil, signer).Login(context.Background(), &models.LoginRequest{Email: "kamala@school.lk", Password: "s3cret-pass"})
	assert.True(t, IsInternalError(err))
	assert.NotErrorIs(t, err, ErrTokenUnavailable)
}

func TestUserService_GetUser(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByID", ctx, "u1").Return(&models.User{UserID: "u1"}, nil)

		user, err := newTestService(users, nil, nil).GetUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.UserID)
	})

	t.Run("not found", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByID", ctx, "missing").Return(nil, repositories.ErrNotFound)

		_, err := newTestService(users, nil, nil).GetUser(ctx, "missing")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserService_ListUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("passes filter through", func(t *testing.T) {
		users := new(MockUserRepository)
		filter := repositories.UserFilter{Role: models.RoleAdminUser, Status: models.StatusActive}
		users.On("List", ctx, filter).Return([]*models.User{{UserID: "u1"}}, nil)

		list, err := newTestService(users, nil, nil).ListUsers(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := newTestService(new(MockUserRepository), nil, nil).ListUsers(ctx, repositories.UserFilter{Role: "root"})
		assert.True(t, IsValidationError(err))
		assert.ErrorIs(t, err, models.ErrUnknownRole)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := newTestService(new(MockUserRepository), nil, nil).ListUsers(ctx, repositories.UserFilter{Status: "archived"})
		assert.True(t, IsValidationError(err))
	})
}

func TestUserService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("updates status", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("UpdateStatus", ctx, "u1", models.StatusActive, mock.AnythingOfType("time.Time")).
			Return(&models.User{UserID: "u1", Status: models.StatusActive}, nil)

		user, err := newTestService(users, nil, nil).UpdateStatus(ctx, "u1", &models.UpdateStatusRequest{Status: models.StatusActive})
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, user.Status)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := newTestService(new(MockUserRepository), nil, nil).UpdateStatus(ctx, "u1", &models.UpdateStatusRequest{Status: "archived"})
		assert.True(t, IsValidationError(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("UpdateStatus", ctx, "missing", models.StatusInactive, mock.Anything).Return(nil, repositories.ErrNotFound)

		_, err := newTestService(users, nil, nil).UpdateStatus(ctx, "missing", &models.UpdateStatusRequest{Status: models.StatusInactive})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		repoErr error
		check   func(*testing.T, error)
	}{
		{"deleted", nil, func(t *testing.T, err error) { assert.NoError(t, err) }},
		{"not found", repositories.ErrNotFound, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUserNotFound) }},
		{"store failure", errors.New("timeout"), func(t *testing.T, err error) { assert.True(t, IsInternalError(err)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			users.On("Delete", ctx, "u1").Return(tt.repoErr)

			tt.check(t, newTestService(users, nil, nil).DeleteUser(ctx, "u1"))
		})
	}
}

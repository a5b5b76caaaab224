package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/upb/staff-portal/auth"
	"github.com/upb/staff-portal/models"
	"github.com/upb/staff-portal/repositories"
	"github.com/upb/staff-portal/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the login email is unknown
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("staff-portal-unknown-user"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
})

// TokenSigner issues access tokens for users
type TokenSigner interface {
	Sign(user *models.User) (string, time.Time, error)
}

// UserService manages staff accounts and sign-in
type UserService struct {
	users     repositories.UserRepository
	txManager repositories.TransactionManager
	signer    TokenSigner
	hashCost  int
	logger    *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	users repositories.UserRepository,
	txManager repositories.TransactionManager,
	signer TokenSigner,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:     users,
		txManager: txManager,
		signer:    signer,
		hashCost:  bcrypt.DefaultCost,
		logger:    logger,
	}
}

// Register creates a self-service account. The role is always public_user
// and the account waits in pending status until an administrator activates it.
func (s *UserService) Register(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	req.UserRole = models.RolePublicUser
	req.Status = models.StatusPending
	return s.create(ctx, req)
}

// CreateUser creates an account with the requested role and status
func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	return s.create(ctx, req)
}

func (s *UserService) create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}
	user := models.NewUser(req, string(hash))

	created, err := WithTransactionResult(ctx, s.txManager, func(ctx context.Context) (*models.User, error) {
		_, err := s.users.GetByEmail(ctx, user.Email)
		switch {
		case err == nil:
			return nil, ErrDuplicateEmail
		case !errors.Is(err, repositories.ErrNotFound):
			return nil, WrapInternal("failed to check email", err)
		}

		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return nil, ErrDuplicateEmail
			}
			return nil, WrapInternal("failed to create user", err)
		}
		return user, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.String("user_id", created.UserID),
		zap.String("role", created.UserRole.String()),
		zap.String("status", string(created.Status)))

	return created, nil
}

// Login exchanges an email and password for an access token
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// same bcrypt work as a wrong password
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(req.Password))
			return nil, ErrInvalidCredentials
		}
		return nil, WrapInternal("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("login failed", zap.String("user_id", user.UserID))
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive() {
		return nil, ErrAccountInactive
	}

	token, expiresAt, err := s.signer.Sign(user)
	if err != nil {
		if errors.Is(err, auth.ErrMissingSecret) {
			return nil, ErrTokenUnavailable
		}
		return nil, WrapInternal("failed to issue token", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.UserID))

	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        user.View(),
	}, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to load user", err)
	}
	return user, nil
}

// ListUsers retrieves users matching filter
func (s *UserService) ListUsers(ctx context.Context, filter repositories.UserFilter) ([]*models.User, error) {
	if filter.Role != "" {
		if _, err := models.ParseUserRole(string(filter.Role)); err != nil {
			return nil, NewDomainError(ErrorTypeValidation, "unknown role filter", err)
		}
	}
	if filter.Status != "" {
		if _, err := models.ParseUserStatus(string(filter.Status)); err != nil {
			return nil, NewDomainError(ErrorTypeValidation, "unknown status filter", err)
		}
	}

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, WrapInternal("failed to list users", err)
	}
	return users, nil
}

// UpdateStatus changes the status of a user
func (s *UserService) UpdateStatus(ctx context.Context, id string, req *models.UpdateStatusRequest) (*models.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.UpdateStatus(ctx, id, req.Status, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to update user status", err)
	}

	s.logger.Info("user status updated",
		zap.String("user_id", id),
		zap.String("status", string(req.Status)))

	return user, nil
}

// DeleteUser removes a user. Tokens already issued to the user stop
// resolving to an identity.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return WrapInternal("failed to delete user", err)
	}

	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

func validate(v interface{}) error {
	if err := utils.ValidateStruct(v); err != nil {
		domainErr := NewDomainError(ErrorTypeValidation, "validation failed", err)
		for field, msg := range utils.GetValidationFields(err) {
			domainErr.WithDetail(field, msg)
		}
		return domainErr
	}
	return nil
}

package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/upb/staff-portal/models"
	"go.uber.org/zap"
)

// DocumentUserRepository implements UserRepository on top of any DocumentStore
type DocumentUserRepository struct {
	store  DocumentStore
	logger *zap.Logger
}

// NewUserRepository creates a user repository backed by store
func NewUserRepository(store DocumentStore, logger *zap.Logger) UserRepository {
	return &DocumentUserRepository{
		store:  store,
		logger: logger,
	}
}

// FindByID retrieves a user by ID
func (r *DocumentUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, Filter{"userId": id})
}

// GetByEmail retrieves a user by email
func (r *DocumentUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, Filter{"email": strings.ToLower(email)})
}

func (r *DocumentUserRepository) findOne(ctx context.Context, filter Filter) (*models.User, error) {
	doc, err := r.store.FindOne(ctx, models.UserCollection, filter)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return decodeUser(doc)
}

// Create stores a new user
func (r *DocumentUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.store.InsertOne(ctx, models.UserCollection, user.UserID, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug("user created", zap.String("user_id", user.UserID), zap.String("email", user.Email))
	return nil
}

// List retrieves users matching filter
func (r *DocumentUserRepository) List(ctx context.Context, filter UserFilter) ([]*models.User, error) {
	match := Filter{}
	if filter.Role != "" {
		match["userRole"] = filter.Role
	}
	if filter.Status != "" {
		match["status"] = filter.Status
	}

	docs, err := r.store.Find(ctx, models.UserCollection, match)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*models.User, 0, len(docs))
	for _, doc := range docs {
		user, err := decodeUser(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// UpdateStatus sets the status of a user and returns the updated user
func (r *DocumentUserRepository) UpdateStatus(ctx context.Context, id string, status models.UserStatus, at time.Time) (*models.User, error) {
	set := map[string]any{
		"status":    status,
		"updatedAt": at,
	}

	doc, err := r.store.UpdateOne(ctx, models.UserCollection, Filter{"userId": id}, set)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	r.logger.Debug("user status updated", zap.String("user_id", id), zap.String("status", string(status)))
	return decodeUser(doc)
}

// Delete removes a user
func (r *DocumentUserRepository) Delete(ctx context.Context, id string) error {
	n, err := r.store.DeleteOne(ctx, models.UserCollection, Filter{"userId": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	r.logger.Debug("user deleted", zap.String("user_id", id))
	return nil
}

func decodeUser(doc json.RawMessage) (*models.User, error) {
	user := &models.User{}
	if err := json.Unmarshal(doc, user); err != nil {
		return nil, fmt.Errorf("failed to decode user document: %w", err)
	}
	return user, nil
}

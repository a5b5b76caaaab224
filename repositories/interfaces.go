package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/upb/staff-portal/models"
)

var (
	// ErrNotFound is returned when no document matches a filter
	ErrNotFound = errors.New("document not found")

	// ErrDuplicate is returned when a write violates a uniqueness constraint
	ErrDuplicate = errors.New("document already exists")
)

// Filter is an AND-equality match on top-level document fields.
// A nil or empty filter matches every document in the collection.
type Filter map[string]any

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	Context() context.Context
}

// DocumentStore is a generic data-access wrapper over a document collection store
type DocumentStore interface {
	// Find returns every document in the collection matching filter
	Find(ctx context.Context, collection string, filter Filter) ([]json.RawMessage, error)

	// FindOne returns the first document matching filter, or ErrNotFound
	FindOne(ctx context.Context, collection string, filter Filter) (json.RawMessage, error)

	// InsertOne stores doc under id. Returns ErrDuplicate on a uniqueness violation
	InsertOne(ctx context.Context, collection, id string, doc any) error

	// UpdateOne merges set into the first document matching filter and
	// returns the document after the update, or ErrNotFound
	UpdateOne(ctx context.Context, collection string, filter Filter, set any) (json.RawMessage, error)

	// DeleteOne removes the first document matching filter and returns
	// the number of documents removed
	DeleteOne(ctx context.Context, collection string, filter Filter) (int64, error)
}

// UserFilter narrows a user listing. Zero values are ignored.
type UserFilter struct {
	Role   models.UserRole
	Status models.UserStatus
}

// UserRepository handles user data operations
type UserRepository interface {
	// FindByID retrieves a user by ID, or ErrNotFound
	FindByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail retrieves a user by email, or ErrNotFound
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Create stores a new user
	Create(ctx context.Context, user *models.User) error

	// List retrieves users matching filter
	List(ctx context.Context, filter UserFilter) ([]*models.User, error)

	// UpdateStatus sets the status of a user and returns the updated user
	UpdateStatus(ctx context.Context, id string, status models.UserStatus, at time.Time) (*models.User, error)

	// Delete removes a user
	Delete(ctx context.Context, id string) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Documents DocumentStore
	Users     UserRepository
}

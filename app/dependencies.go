package app

import (
	"context"
	"fmt"

	"github.com/upb/staff-portal/auth"
	"github.com/upb/staff-portal/config"
	"github.com/upb/staff-portal/guard"
	"github.com/upb/staff-portal/internal/observability"
	"github.com/upb/staff-portal/middleware"
	"github.com/upb/staff-portal/repositories"
	"github.com/upb/staff-portal/repositories/postgres"
	"github.com/upb/staff-portal/services"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Documents repositories.DocumentStore
	Users     repositories.UserRepository
	TxManager repositories.TransactionManager

	// Tokens and access control
	Signer           *auth.Signer
	Verifier         *auth.Verifier
	Guard            *guard.Guard
	AccessMiddleware *middleware.AccessMiddleware

	// Services
	UserService *services.UserService
}

// NewDependencies opens the database, prepares the schema and wires up all
// application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := factory.GetDB().InitSchema(ctx); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps := NewDependenciesFromFactory(cfg, factory, logger)
	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewDependenciesFromFactory wires everything above an already open database
func NewDependenciesFromFactory(cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) *Dependencies {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		Metrics:     observability.NewMetrics(),
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	deps.initRepositories()
	deps.initAuth(cfg)
	deps.initServices()

	return deps
}

func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Documents = repos.Documents
	d.Users = repos.Users
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	tokenCfg := auth.Config{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.TokenTTL,
	}
	if !cfg.Auth.HasSigningSecret() {
		d.Logger.Warn("JWT_SECRET is not set, protected routes will answer with a configuration error")
	}

	d.Signer = auth.NewSigner(tokenCfg)
	d.Verifier = auth.NewVerifier(tokenCfg)
	d.Guard = guard.NewGuard(d.Verifier, d.Users, d.Logger)
	d.AccessMiddleware = middleware.NewAccessMiddleware(d.Guard, d.Metrics, d.Logger)
}

func (d *Dependencies) initServices() {
	d.UserService = services.NewUserService(d.Users, d.TxManager, d.Signer, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

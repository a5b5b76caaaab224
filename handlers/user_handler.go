package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/staff-portal/middleware"
	"github.com/upb/staff-portal/models"
	"github.com/upb/staff-portal/repositories"
	"github.com/upb/staff-portal/utils"
	"go.uber.org/zap"
)

// UserService is the subset of services.UserService the handlers need
type UserService interface {
	Register(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, filter repositories.UserFilter) ([]*models.User, error)
	UpdateStatus(ctx context.Context, id string, req *models.UpdateStatusRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// UserHandler serves the sign-in and user management endpoints
type UserHandler struct {
	users  UserService
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleLogin handles POST /api/v1/auth/login
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	resp, err := h.users.Login(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, resp)
}

// HandleRegister handles POST /api/v1/auth/register
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	user, err := h.users.Register(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, user.View())
}

// HandleCreate handles POST /api/v1/users
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	user, err := h.users.CreateUser(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, user.View())
}

// HandleMe handles GET /api/v1/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	user, err := h.users.GetUser(r.Context(), identity.ID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, user.View())
}

// HandleList handles GET /api/v1/users?role=&status=
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := repositories.UserFilter{
		Role:   models.UserRole(query.Get("role")),
		Status: models.UserStatus(query.Get("status")),
	}

	users, err := h.users.ListUsers(r.Context(), filter)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	views := make([]models.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	_ = utils.WriteOK(w, views)
}

// HandleGet handles GET /api/v1/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, user.View())
}

// HandleUpdateStatus handles PATCH /api/v1/users/{id}/status
func (h *UserHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateStatusRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	user, err := h.users.UpdateStatus(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, user.View())
}

// HandleDelete handles DELETE /api/v1/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("user removed",
		zap.String("user_id", id),
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())))
	utils.WriteNoContent(w)
}

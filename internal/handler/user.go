package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/devops-challenge/userapi/internal/handler/dto"
	"github.com/devops-challenge/userapi/internal/model"
	"github.com/devops-challenge/userapi/internal/pagination"
	"github.com/devops-challenge/userapi/internal/service"
)

// UserService is the business logic behind the user endpoints.
type UserService interface {
	ListUsers(ctx context.Context, p pagination.Params) ([]model.User, error)
	CreateUser(ctx context.Context, in model.NewUser) (*model.User, error)
}

// UserHandler handles HTTP requests for user operations.
type UserHandler struct {
	svc           UserService
	logger        *slog.Logger
	publicBaseURL string
}

// NewUserHandler creates a new UserHandler. publicBaseURL, when set, is
// used for next_url instead of the request's scheme and host.
func NewUserHandler(svc UserService, logger *slog.Logger, publicBaseURL string) *UserHandler {
	return &UserHandler{
		svc:           svc,
		logger:        logger,
		publicBaseURL: publicBaseURL,
	}
}

// List handles GET /v1/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.Parse(r.URL.Query())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	users, err := h.svc.ListUsers(r.Context(), params)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	base := pagination.BaseURL(r, h.publicBaseURL)
	writeJSON(w, http.StatusOK, pagination.Collect(users, params, base, r.URL.Path))
}

// Create handles POST /v1/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			writeValidationError(w, map[string]string{"data": "required"})
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	fields, err := dto.Validate(&req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	in := req.Data.NewUser()
	user, err := h.svc.CreateUser(r.Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			h.logger.Warn("user_conflict", "email", in.Email)
		}
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user_created", "user_id", user.ID)

	writeJSON(w, http.StatusCreated, dto.UserResponse{Data: *user})
}

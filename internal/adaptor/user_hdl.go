package adaptor

import (
	"net/http"

	"doctors-portal/internal/dto/request"
	"doctors-portal/internal/dto/response"
	"doctors-portal/internal/usecase"
	"doctors-portal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service usecase.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log.With(zap.String("handler", "auth")),
	}
}

// IssueToken handles GET /api/jwt?email=
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.IssueToken(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		handleServiceError(w, h.log, err, "issue token")
		return
	}

	utils.ResponseSuccess(w, "success", token)
}

type UserHandler struct {
	service usecase.UserService
	log     *zap.Logger
}

func NewUserHandler(service usecase.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log.With(zap.String("handler", "user")),
	}
}

// Register handles POST /api/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterUserRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	user, created, err := h.service.Register(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "register user")
		return
	}

	if !created {
		utils.ResponseSuccess(w, "user already exists", user)
		return
	}
	utils.ResponseCreated(w, "success", user)
}

// GetAllUsers handles GET /api/users (admin only)
func (h *UserHandler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.GetAllUsers(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "get all users")
		return
	}

	utils.ResponseSuccess(w, "success", users)
}

// CheckAdmin handles GET /api/users/admin/{email}
func (h *UserHandler) CheckAdmin(w http.ResponseWriter, r *http.Request) {
	isAdmin, err := h.service.IsAdmin(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		handleServiceError(w, h.log, err, "check admin")
		return
	}

	utils.ResponseSuccess(w, "success", response.AdminStatusResponse{IsAdmin: isAdmin})
}

// PromoteToAdmin handles PUT /api/users/admin/{id} (admin only)
func (h *UserHandler) PromoteToAdmin(w http.ResponseWriter, r *http.Request) {
	if err := h.service.PromoteToAdmin(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "promote user")
		return
	}

	utils.ResponseSuccess(w, "user promoted to admin", nil)
}

package usecase

import (
	"context"
	"errors"
	"time"

	"doctors-portal/internal/data/entity"
	"doctors-portal/internal/data/repository"
	"doctors-portal/internal/dto/request"
	"doctors-portal/internal/dto/response"
	"doctors-portal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	// Register creates a patient account. Registering an existing email returns that user
	// with created set to false.
	Register(ctx context.Context, req *request.RegisterUserRequest) (*response.UserResponse, bool, error)
	GetAllUsers(ctx context.Context) ([]response.UserResponse, error)
	IsAdmin(ctx context.Context, email string) (bool, error)
	PromoteToAdmin(ctx context.Context, userID string) error
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.With(zap.String("service", "user")),
	}
}

func (us *userService) Register(ctx context.Context, req *request.RegisterUserRequest) (*response.UserResponse, bool, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		us.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, false, &ValidationError{Fields: errs}
	}

	now := time.Now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:  req.Name,
		Email: req.Email,
		Role:  entity.RolePatient,
	}

	err := us.userRepo.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		existing, err := us.userRepo.FindByEmail(ctx, req.Email)
		if err != nil {
			return nil, false, storageError("find user", err)
		}
		if existing == nil {
			return nil, false, &NotFoundError{Resource: "user", ID: req.Email}
		}
		resp := response.UserToResponse(existing)
		return &resp, false, nil
	}
	if err != nil {
		us.log.Error("Failed to create user", zap.Error(err), zap.String("email", req.Email))
		return nil, false, storageError("create user", err)
	}

	us.log.Info("User registered", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))

	resp := response.UserToResponse(user)
	return &resp, true, nil
}

func (us *userService) GetAllUsers(ctx context.Context) ([]response.UserResponse, error) {
	users, err := us.userRepo.FindAll(ctx)
	if err != nil {
		us.log.Error("Failed to get all users", zap.Error(err))
		return nil, storageError("list users", err)
	}

	out := make([]response.UserResponse, len(users))
	for i, u := range users {
		out[i] = response.UserToResponse(u)
	}
	return out, nil
}

func (us *userService) IsAdmin(ctx context.Context, email string) (bool, error) {
	user, err := us.userRepo.FindByEmail(ctx, email)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.String("email", email))
		return false, storageError("find user", err)
	}
	return user != nil && user.IsAdmin(), nil
}

func (us *userService) PromoteToAdmin(ctx context.Context, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return &ValidationError{Field: "id", Message: "invalid user ID"}
	}

	err = us.userRepo.UpdateRole(ctx, id, entity.RoleAdmin)
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "user", ID: userID}
	}
	if err != nil {
		us.log.Error("Failed to promote user", zap.Error(err), zap.String("user_id", userID))
		return storageError("promote user", err)
	}

	us.log.Info("User promoted to admin", zap.String("user_id", userID))
	return nil
}

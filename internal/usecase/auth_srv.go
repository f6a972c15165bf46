package usecase

import (
	"context"
	"time"

	"doctors-portal/internal/data/repository"
	"doctors-portal/internal/dto/response"
	"doctors-portal/pkg/utils"

	"go.uber.org/zap"
)

type AuthService interface {
	// IssueToken signs an access token for a registered email.
	IssueToken(ctx context.Context, email string) (*response.TokenResponse, error)
}

type authService struct {
	userRepo repository.UserRepository
	config   utils.JWTConfig
	log      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, config utils.JWTConfig, log *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		config:   config,
		log:      log.With(zap.String("service", "auth")),
	}
}

func (s *authService) IssueToken(ctx context.Context, email string) (*response.TokenResponse, error) {
	if email == "" {
		return nil, &ValidationError{Field: "email", Message: "email is required"}
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to find user", zap.Error(err), zap.String("email", email))
		return nil, storageError("find user", err)
	}
	if user == nil {
		s.log.Warn("Token requested for unregistered email", zap.String("email", email))
		return nil, &ForbiddenError{Message: "email is not registered"}
	}

	ttl := time.Duration(s.config.ExpiryHours) * time.Hour
	token, err := utils.GenerateToken(s.config.Secret, user.Email, ttl)
	if err != nil {
		s.log.Error("Failed to generate token", zap.Error(err))
		return nil, err
	}

	s.log.Info("Access token issued", zap.String("email", user.Email))

	return &response.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(ttl),
	}, nil
}

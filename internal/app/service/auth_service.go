package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookstack/internal/common"
	"bookstack/internal/common/security"
	"bookstack/internal/domain/model"
	"bookstack/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *security.TokenService
	logger   zerolog.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokens *security.TokenService, logger zerolog.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens, logger: logger}
}

// RegisterRequest deliberately has no role field: the caller never chooses
// its own privileges. Elevation happens only through Promote.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type PromoteRequest struct {
	Email string `json:"email"`
}

type PromoteResponse struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("name, email and password are required: %w", common.ErrValidation)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Email:          strings.ToLower(req.Email),
		HashedPassword: hashedPassword,
		Role:           model.RoleUser, // Default role
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo returns common.ErrConflict on a duplicate email
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = "" // Clear password before returning
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("email and password are required: %w", common.ErrValidation)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized // Generic message, no existence leak
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	ok, err := security.CheckPasswordHash(req.Password, user.HashedPassword)
	if err != nil {
		// Corrupted digest: fail closed and leave a trace for the operator.
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("stored password digest is unreadable")
		return nil, err
	}
	if !ok {
		return nil, common.ErrUnauthorized
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

// Promote elevates the target user to admin. Promoting an admin again is a
// no-op success.
func (s *AuthService) Promote(ctx context.Context, req PromoteRequest) (*PromoteResponse, error) {
	if req.Email == "" {
		return nil, fmt.Errorf("email is required: %w", common.ErrValidation)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.Role == model.RoleAdmin {
		return &PromoteResponse{Email: user.Email, Role: user.Role}, nil
	}

	if err := s.userRepo.UpdateRole(ctx, user.ID, model.RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	s.logger.Info().Str("user_id", user.ID).Msg("user promoted to admin")

	return &PromoteResponse{Email: user.Email, Role: model.RoleAdmin}, nil
}

package services

import (
	"errors"
	"time"

	"sav3_backend/internal/auth"
	"sav3_backend/internal/models"
	"sav3_backend/internal/repositories"
	"sav3_backend/internal/services/dto"
	"sav3_backend/pkg/apperrors"
)

type AuthService interface {
	Register(req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(req *dto.LoginRequest) (*dto.AuthResponse, error)
	UpdateDeviceToken(userID, token string) error
}

type authService struct {
	userRepo repositories.UserRepository
	tokenTTL time.Duration
}

func NewAuthService(userRepo repositories.UserRepository, tokenTTL time.Duration) AuthService {
	return &authService{userRepo: userRepo, tokenTTL: tokenTTL}
}

func (s *authService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         models.UserRoleUser,
		Status:       models.UserStatusActive,
		Locale:       req.Locale,
		Timezone:     req.Timezone,
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrEmailAlreadyTaken) {
			return nil, apperrors.NewBadRequestError("email already taken")
		}
		return nil, apperrors.InternalError(err)
	}

	return s.issueToken(user)
}

func (s *authService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewUnauthorizedError("invalid credentials")
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.NewUnauthorizedError("invalid credentials")
	}
	if user.Status != models.UserStatusActive {
		return nil, apperrors.NewForbiddenError("account is not active")
	}

	return s.issueToken(user)
}

// UpdateDeviceToken stores the push registration token the dispatch
// push sender addresses. An empty token clears the registration.
func (s *authService) UpdateDeviceToken(userID, token string) error {
	if err := s.userRepo.UpdateDeviceToken(userID, token); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.NewNotFoundError("user not found")
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *authService) issueToken(user *models.User) (*dto.AuthResponse, error) {
	token, err := auth.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.AuthResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokenTTL),
		User: &dto.UserResponse{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			Role:      user.Role,
			Locale:    user.Locale,
			Timezone:  user.Timezone,
			CreatedAt: user.CreatedAt,
		},
	}, nil
}

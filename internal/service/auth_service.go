package service

import (
	"context"
	"errors"
	"fmt"

	"room-booking-backend/internal/clock"
	"room-booking-backend/internal/models"
	"room-booking-backend/internal/repository"
	"room-booking-backend/pkg/apperror"
	"room-booking-backend/pkg/utils"
)

type AuthService struct {
	userRepo  *repository.UserRepository
	auditRepo *repository.AuditRepository
	clock     clock.Clock
}

func NewAuthService(userRepo *repository.UserRepository, auditRepo *repository.AuditRepository, clk clock.Clock) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		clock:     clk,
	}
}

// LoginResponse represents the response structure for login
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.ComparePassword(user.PasswordHash, password) {
		return nil, models.ErrInvalidCredentials
	}

	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.CreateAuditLog(ctx, user.Username, "user_login", fmt.Sprintf("User %s logged in", username))
	return resp, nil
}

// RefreshAccessToken generates a new access token from a refresh token
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	token, err := s.userRepo.FindRefreshTokenByHash(ctx, utils.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			return "", apperror.Unauthorized("invalid or revoked refresh token")
		}
		return "", err
	}

	if s.clock.Now().After(token.ExpiresAt) {
		return "", apperror.Unauthorized("refresh token expired")
	}

	accessToken, err := utils.GenerateAccessToken(token.User.ID, token.User.Username, token.User.Role)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout revokes a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.userRepo.RevokeRefreshTokenByHash(ctx, utils.HashRefreshToken(refreshToken)); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// Register creates a regular user account. Staff accounts are provisioned
// with EnsureStaff.
func (s *AuthService) Register(ctx context.Context, username, password string) (*LoginResponse, error) {
	user, err := s.createUser(ctx, username, password, models.RoleUser)
	if err != nil {
		return nil, err
	}

	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.CreateAuditLog(ctx, user.Username, "user_registration", fmt.Sprintf("User %s registered", username))
	return resp, nil
}

// EnsureStaff creates a staff account unless the username already exists
func (s *AuthService) EnsureStaff(ctx context.Context, username, password string) error {
	exists, err := s.userRepo.UsernameExists(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if _, err := s.createUser(ctx, username, password, models.RoleStaff); err != nil {
		return err
	}
	return s.auditRepo.CreateAuditLog(ctx, "system", "staff_provisioned", fmt.Sprintf("Staff account %s created", username))
}

func (s *AuthService) createUser(ctx context.Context, username, password, role string) (*models.User, error) {
	exists, err := s.userRepo.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.ErrUsernameTaken
	}

	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*LoginResponse, error) {
	accessToken, err := utils.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	// Only the hash is stored
	refreshTokenModel := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashRefreshToken(refreshToken),
		ExpiresAt: s.clock.Now().Add(utils.GetRefreshTokenExpiry()),
	}
	if err := s.userRepo.CreateRefreshToken(ctx, refreshTokenModel); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Role:     user.Role,
		},
	}, nil
}

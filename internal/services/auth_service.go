// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campuskart/campus-market/internal/apperrors"
	"github.com/campuskart/campus-market/internal/config"
	"github.com/campuskart/campus-market/internal/models"
	"github.com/campuskart/campus-market/internal/session"
	"github.com/campuskart/campus-market/internal/utils"
)

type AuthService struct {
	db            *gorm.DB
	cfg           *config.Config
	notifications *NotificationService
	revocations   *session.RevocationStore
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config, notifications *NotificationService, revocations *session.RevocationStore) *AuthService {
	return &AuthService{
		db:            db,
		cfg:           cfg,
		notifications: notifications,
		revocations:   revocations,
	}
}

// Register creates an account scoped to the college that owns the
// email domain. Addresses outside any registered campus are rejected.
func (s *AuthService) Register(req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.InvalidInput(utils.ValidationMessage(err))
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	college, err := s.resolveCollege(email)
	if err != nil {
		return nil, err
	}

	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, apperrors.Conflict("user with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	user := &models.User{
		Email:     email,
		Name:      req.Name,
		Phone:     req.Phone,
		CollegeID: college.ID,
		Role:      models.UserRoleStudent,
		Status:    models.UserStatusActive,
		AvatarURL: avatarFor(email),
	}

	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.College = *college

	accessToken, err := utils.GenerateJWT(user.ID, user.CollegeID, string(user.Role), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	// Send welcome email (async)
	go s.notifications.SendWelcomeEmail(user, college)

	return &AuthResponse{
		User:        user,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}

func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.InvalidInput(utils.ValidationMessage(err))
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := s.db.Preload("College").Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.InvalidInput("invalid email or password")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if user.Status == models.UserStatusSuspended {
		return nil, apperrors.Forbidden("account is suspended")
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, apperrors.InvalidInput("invalid email or password")
	}

	now := time.Now()
	s.db.Model(&user).Update("last_login_at", now)
	user.LastLoginAt = &now

	accessToken, err := utils.GenerateJWT(user.ID, user.CollegeID, string(user.Role), s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{
		User:        &user,
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}

// Logout blacklists the presented token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return nil
	}
	return s.revocations.Revoke(ctx, jti, expiresAt)
}

func (s *AuthService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("College").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

type UpdateProfileRequest struct {
	Name      string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=20"`
	AvatarURL string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

func (s *AuthService) UpdateProfile(userID uuid.UUID, req *UpdateProfileRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.InvalidInput(utils.ValidationMessage(err))
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.AvatarURL != "" {
		updates["avatar_url"] = req.AvatarURL
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.GetUserByID(userID)
}

// ListColleges returns the active campuses available for registration.
func (s *AuthService) ListColleges() ([]models.College, error) {
	var colleges []models.College
	if err := s.db.Where("is_active = ?", true).Order("name ASC").Find(&colleges).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return colleges, nil
}

type CreateCollegeRequest struct {
	Name   string `json:"name" validate:"required,min=2,max=255"`
	Domain string `json:"domain" validate:"required,fqdn"`
}

// CreateCollege registers a new campus. Admin only; enforced at the route.
func (s *AuthService) CreateCollege(req *CreateCollegeRequest) (*models.College, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.InvalidInput(utils.ValidationMessage(err))
	}

	domain := strings.ToLower(req.Domain)

	var count int64
	if err := s.db.Model(&models.College{}).Where("domain = ?", domain).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return nil, apperrors.Conflict("a college with this domain already exists")
	}

	college := &models.College{
		Name:     req.Name,
		Domain:   domain,
		IsActive: true,
	}
	if err := s.db.Create(college).Error; err != nil {
		return nil, fmt.Errorf("failed to create college: %w", err)
	}
	return college, nil
}

func (s *AuthService) resolveCollege(email string) (*models.College, error) {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return nil, apperrors.InvalidInput("invalid email address")
	}
	domain := email[at+1:]

	var college models.College
	if err := s.db.Where("domain = ? AND is_active = ?", domain, true).First(&college).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("no registered college for email domain %q", domain))
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &college, nil
}

func avatarFor(email string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", email)
}

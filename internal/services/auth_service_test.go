// internal/services/auth_service_test.go
package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/campuskart/campus-market/internal/apperrors"
	"github.com/campuskart/campus-market/internal/models"
	"github.com/campuskart/campus-market/internal/utils"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *AuthService
	college *models.College
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	cfg := testConfig()
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	s.service = NewAuthService(s.db, cfg, newTestNotifications(s.db), nil)
	s.college = createTestCollege(s.T(), s.db, "Stanford University", "stanford.edu")
}

func (s *AuthServiceTestSuite) TestRegisterResolvesCollegeByDomain() {
	resp, err := s.service.Register(&RegisterRequest{
		Name:     "Jordan Lee",
		Email:    "Jordan.Lee@Stanford.EDU",
		Password: "password123",
	})
	s.Require().NoError(err)

	s.Equal("jordan.lee@stanford.edu", resp.User.Email)
	s.Equal(s.college.ID, resp.User.CollegeID)
	s.Equal(models.UserRoleStudent, resp.User.Role)
	s.Equal(models.UserStatusActive, resp.User.Status)
	s.NotEmpty(resp.User.AvatarURL)
	s.NotEmpty(resp.AccessToken)
	s.Equal("Bearer", resp.TokenType)

	claims, err := utils.ValidateJWT(resp.AccessToken)
	s.Require().NoError(err)
	s.Equal(resp.User.ID.String(), claims.UserID)
	s.Equal(s.college.ID.String(), claims.CollegeID)
}

func (s *AuthServiceTestSuite) TestRegisterUnknownDomainRejected() {
	_, err := s.service.Register(&RegisterRequest{
		Name:     "Jordan Lee",
		Email:    "jordan@gmail.com",
		Password: "password123",
	})
	s.True(errors.Is(err, apperrors.ErrInvalidInput))
}

func (s *AuthServiceTestSuite) TestRegisterDuplicateEmailConflicts() {
	req := &RegisterRequest{
		Name:     "Jordan Lee",
		Email:    "jordan@stanford.edu",
		Password: "password123",
	}
	_, err := s.service.Register(req)
	s.Require().NoError(err)

	_, err = s.service.Register(req)
	s.True(errors.Is(err, apperrors.ErrConflict))
}

func (s *AuthServiceTestSuite) TestLogin() {
	_, err := s.service.Register(&RegisterRequest{
		Name:     "Jordan Lee",
		Email:    "jordan@stanford.edu",
		Password: "password123",
	})
	s.Require().NoError(err)

	resp, err := s.service.Login(&LoginRequest{
		Email:    "jordan@stanford.edu",
		Password: "password123",
	})
	s.Require().NoError(err)
	s.NotEmpty(resp.AccessToken)
	s.NotNil(resp.User.LastLoginAt)
}

func (s *AuthServiceTestSuite) TestLoginWrongPassword() {
	_, err := s.service.Register(&RegisterRequest{
		Name:     "Jordan Lee",
		Email:    "jordan@stanford.edu",
		Password: "password123",
	})
	s.Require().NoError(err)

	_, err = s.service.Login(&LoginRequest{
		Email:    "jordan@stanford.edu",
		Password: "wrong-password",
	})
	s.True(errors.Is(err, apperrors.ErrInvalidInput))
}

func (s *AuthServiceTestSuite) TestLoginSuspendedForbidden() {
	resp, err := s.service.Register(&RegisterRequest{
		Name:     "Jordan Lee",
		Email:    "jordan@stanford.edu",
		Password: "password123",
	})
	s.Require().NoError(err)

	s.Require().NoError(s.db.Model(&models.User{}).Where("id = ?", resp.User.ID).
		Update("status", models.UserStatusSuspended).Error)

	_, err = s.service.Login(&LoginRequest{
		Email:    "jordan@stanford.edu",
		Password: "password123",
	})
	s.True(errors.Is(err, apperrors.ErrForbidden))
}

func (s *AuthServiceTestSuite) TestLogoutWithoutRevocationStore() {
	// No revocation backend configured: logout is a no-op, not an error.
	err := s.service.Logout(context.Background(), "some-jti", time.Now().Add(time.Hour))
	s.NoError(err)
}

func (s *AuthServiceTestSuite) TestUpdateProfile() {
	resp, err := s.service.Register(&RegisterRequest{
		Name:     "Jordan Lee",
		Email:    "jordan@stanford.edu",
		Password: "password123",
	})
	s.Require().NoError(err)

	updated, err := s.service.UpdateProfile(resp.User.ID, &UpdateProfileRequest{
		Name:  "Jordan A. Lee",
		Phone: "555-0100",
	})
	s.Require().NoError(err)
	s.Equal("Jordan A. Lee", updated.Name)
	s.Equal("555-0100", updated.Phone)
}

func (s *AuthServiceTestSuite) TestListColleges() {
	createTestCollege(s.T(), s.db, "MIT", "mit.edu")
	inactive := createTestCollege(s.T(), s.db, "Closed College", "closed.edu")
	s.Require().NoError(s.db.Model(inactive).Update("is_active", false).Error)

	colleges, err := s.service.ListColleges()
	s.Require().NoError(err)
	s.Len(colleges, 2)
	s.Equal("MIT", colleges[0].Name) // name ascending
}

func (s *AuthServiceTestSuite) TestCreateCollege() {
	college, err := s.service.CreateCollege(&CreateCollegeRequest{
		Name:   "Caltech",
		Domain: "Caltech.EDU",
	})
	s.Require().NoError(err)
	s.Equal("caltech.edu", college.Domain)
	s.True(college.IsActive)

	_, err = s.service.CreateCollege(&CreateCollegeRequest{
		Name:   "Caltech Again",
		Domain: "caltech.edu",
	})
	s.True(errors.Is(err, apperrors.ErrConflict))
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

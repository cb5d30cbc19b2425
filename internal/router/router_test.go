// internal/router/router_test.go
package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campuskart/campus-market/internal/config"
	"github.com/campuskart/campus-market/internal/models"
)

type RouterTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func (s *RouterTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:router_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	s.db = db

	s.Require().NoError(db.AutoMigrate(
		&models.College{},
		&models.User{},
		&models.Item{},
		&models.Order{},
		&models.BorrowRequest{},
		&models.PaymentTransaction{},
		&models.Review{},
		&models.Conversation{},
		&models.Message{},
	))

	s.Require().NoError(db.Create(&models.College{
		Name:     "Stanford University",
		Domain:   "stanford.edu",
		IsActive: true,
	}).Error)

	cfg := &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:      "router-test-secret",
			AccessTokenTTL: 24,
		},
	}
	s.router = Initialize(db, cfg, nil)
}

func (s *RouterTestSuite) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterTestSuite) TestHealthCheck() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterTestSuite) TestCategoriesArePublic() {
	w := s.do(http.MethodGet, "/v1/categories", "", nil)
	s.Equal(http.StatusOK, w.Code)

	var response map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	s.True(response["success"].(bool))
}

func (s *RouterTestSuite) TestProtectedRoutesRequireToken() {
	w := s.do(http.MethodGet, "/v1/items", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/v1/items", "not-a-real-token", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterTestSuite) TestRegisterLoginAndBrowse() {
	w := s.do(http.MethodPost, "/v1/auth/register", "", gin.H{
		"name":     "Jordan Lee",
		"email":    "jordan@stanford.edu",
		"password": "password123",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var registered struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &registered))
	s.True(registered.Success)
	s.NotEmpty(registered.Data.Token)

	// A register on an outside domain is rejected.
	w = s.do(http.MethodPost, "/v1/auth/register", "", gin.H{
		"name":     "Drifter",
		"email":    "drifter@gmail.com",
		"password": "password123",
	})
	s.Equal(http.StatusBadRequest, w.Code)

	// The token works on protected routes.
	w = s.do(http.MethodGet, "/v1/items", registered.Data.Token, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/v1/auth/me", registered.Data.Token, nil)
	s.Equal(http.StatusOK, w.Code)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

// internal/handlers/user.go
package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campuskart/campus-market/internal/apperrors"
	"github.com/campuskart/campus-market/internal/models"
	"github.com/campuskart/campus-market/internal/services"
	"github.com/campuskart/campus-market/internal/utils"
)

type UserHandler struct {
	db           *gorm.DB
	statsService *services.StatsService
}

func NewUserHandler(db *gorm.DB, statsService *services.StatsService) *UserHandler {
	return &UserHandler{
		db:           db,
		statsService: statsService,
	}
}

// GET /users/:id
func (h *UserHandler) GetProfile(c *gin.Context) {
	collegeID, _ := utils.GetCollegeIDFromContext(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return
	}

	var user models.User
	if err := h.db.Preload("College").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.HandleServiceError(c, apperrors.NotFound("user"))
			return
		}
		utils.HandleServiceError(c, fmt.Errorf("database error: %w", err))
		return
	}

	if user.CollegeID != collegeID {
		utils.HandleServiceError(c, apperrors.Forbidden("user belongs to another campus"))
		return
	}

	utils.SuccessResponse(c, gin.H{"user": user})
}

// GET /stats/dashboard
func (h *UserHandler) Dashboard(c *gin.Context) {
	userID, _ := utils.GetUserIDFromContext(c)

	stats, err := h.statsService.Dashboard(userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /stats/featured-items
func (h *UserHandler) FeaturedItems(c *gin.Context) {
	collegeID, _ := utils.GetCollegeIDFromContext(c)

	items, err := h.statsService.FeaturedItems(collegeID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"items": items})
}

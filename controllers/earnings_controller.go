package controllers

import (
	"fmt"

	"github.com/218451LIJIAQI/edutech-platform-sub000/middleware"
	"github.com/218451LIJIAQI/edutech-platform-sub000/services"
	"github.com/218451LIJIAQI/edutech-platform-sub000/utils"
	"github.com/gin-gonic/gin"
)

// EarningsController exposes a teacher's earnings views.
type EarningsController struct {
	earnings *services.EarningsService
}

// NewEarningsController creates a new EarningsController
func NewEarningsController(earnings *services.EarningsService) *EarningsController {
	return &EarningsController{earnings: earnings}
}

// Earnings handles GET /teacher/earnings
func (ctrl *EarningsController) Earnings(c *gin.Context) {
	utils.LogInfo("Teacher earnings called")
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "User not found")
		return
	}

	entries, err := ctrl.earnings.EntriesForTeacher(user.ID)
	if err != nil {
		utils.LogError("Failed to load earnings for teacher %d: %v", user.ID, err)
		utils.HandleServiceError(c, err)
		return
	}

	summary, err := ctrl.earnings.SummaryForTeacher(user.ID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.Success(c, "Earnings retrieved", gin.H{
		"summary": gin.H{
			"entries": summary.Entries,
			"total":   fmt.Sprintf("%.2f", summary.Total),
		},
		"entries": entries,
	})
}

// ByCourse handles GET /teacher/earnings/by-course
func (ctrl *EarningsController) ByCourse(c *gin.Context) {
	utils.LogInfo("Teacher earnings by course called")
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "User not found")
		return
	}

	byCourse, err := ctrl.earnings.ByCourse(user.ID)
	if err != nil {
		utils.LogError("Failed to load per-course earnings for teacher %d: %v", user.ID, err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.Success(c, "Earnings by course retrieved", gin.H{"courses": byCourse})
}

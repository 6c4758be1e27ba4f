package controllers

import (
	"fmt"
	"strconv"

	"github.com/218451LIJIAQI/edutech-platform-sub000/models"
	"github.com/218451LIJIAQI/edutech-platform-sub000/services"
	"github.com/218451LIJIAQI/edutech-platform-sub000/utils"
	"github.com/gin-gonic/gin"
)

// RefundAdminController exposes the admin side of the refund state
// machine.
type RefundAdminController struct {
	refunds *services.RefundService
}

// NewRefundAdminController creates a new RefundAdminController
func NewRefundAdminController(refunds *services.RefundService) *RefundAdminController {
	return &RefundAdminController{refunds: refunds}
}

// List handles GET /admin/refunds
func (ctrl *RefundAdminController) List(c *gin.Context) {
	utils.LogInfo("Admin refund list called")
	pagination := utils.NewPagination(c)

	refunds, total, err := ctrl.refunds.List(c.Query("status"), pagination.Limit, pagination.Offset)
	if err != nil {
		utils.LogError("Failed to list refunds: %v", err)
		utils.HandleServiceError(c, err)
		return
	}

	pagination.SetTotal(total)
	utils.SendPaginatedResponse(c, "Refunds retrieved", refunds, pagination)
}

// Approve handles POST /admin/refunds/:id/approve
func (ctrl *RefundAdminController) Approve(c *gin.Context) {
	refundID, ok := ctrl.refundID(c)
	if !ok {
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&req) // notes are optional

	refund, err := ctrl.refunds.Approve(refundID, req.Notes)
	if err != nil {
		utils.LogError("Failed to approve refund %d: %v", refundID, err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.LogInfo("Approved refund %d", refundID)
	ctrl.respond(c, "Refund approved", refund)
}

// Reject handles POST /admin/refunds/:id/reject
func (ctrl *RefundAdminController) Reject(c *gin.Context) {
	refundID, ok := ctrl.refundID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "A rejection reason is required", err.Error())
		return
	}

	refund, err := ctrl.refunds.Reject(refundID, req.Reason)
	if err != nil {
		utils.LogError("Failed to reject refund %d: %v", refundID, err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.LogInfo("Rejected refund %d", refundID)
	ctrl.respond(c, "Refund rejected", refund)
}

// MarkProcessing handles POST /admin/refunds/:id/processing
func (ctrl *RefundAdminController) MarkProcessing(c *gin.Context) {
	refundID, ok := ctrl.refundID(c)
	if !ok {
		return
	}

	refund, err := ctrl.refunds.MarkProcessing(refundID)
	if err != nil {
		utils.LogError("Failed to mark refund %d processing: %v", refundID, err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.LogInfo("Refund %d marked processing", refundID)
	ctrl.respond(c, "Refund marked as processing", refund)
}

// Complete handles POST /admin/refunds/:id/complete
func (ctrl *RefundAdminController) Complete(c *gin.Context) {
	refundID, ok := ctrl.refundID(c)
	if !ok {
		return
	}

	refund, err := ctrl.refunds.Complete(refundID)
	if err != nil {
		utils.LogError("Failed to complete refund %d: %v", refundID, err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.LogInfo("Completed refund %d", refundID)
	ctrl.respond(c, "Refund completed", refund)
}

func (ctrl *RefundAdminController) refundID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.BadRequest(c, "Invalid refund ID", nil)
		return 0, false
	}
	return uint(id), true
}

func (ctrl *RefundAdminController) respond(c *gin.Context, message string, refund *models.Refund) {
	utils.Success(c, message, gin.H{
		"refund": gin.H{
			"id":       refund.ID,
			"order_id": refund.OrderID,
			"amount":   fmt.Sprintf("%.2f", refund.Amount),
			"status":   refund.Status,
			"notes":    refund.AdminNotes,
		},
	})
}

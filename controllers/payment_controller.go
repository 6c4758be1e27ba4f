package controllers

import (
	"fmt"
	"strconv"

	"github.com/218451LIJIAQI/edutech-platform-sub000/middleware"
	"github.com/218451LIJIAQI/edutech-platform-sub000/services"
	"github.com/218451LIJIAQI/edutech-platform-sub000/utils"
	"github.com/gin-gonic/gin"
)

// PaymentController exposes checkout intents and payment confirmation.
type PaymentController struct {
	payments *services.PaymentService
	refunds  *services.RefundService
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(payments *services.PaymentService, refunds *services.RefundService) *PaymentController {
	return &PaymentController{payments: payments, refunds: refunds}
}

// CreateIntent handles POST /payments/create-intent
func (ctrl *PaymentController) CreateIntent(c *gin.Context) {
	utils.LogInfo("CreateIntent called")
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "User not found")
		return
	}

	var req struct {
		PackageID uint `json:"package_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. package_id is required", err.Error())
		return
	}

	payment, err := ctrl.payments.CreatePackageIntent(user.ID, req.PackageID)
	if err != nil {
		utils.LogError("Failed to create payment intent for user %d: %v", user.ID, err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.LogInfo("Created payment intent %d for user %d", payment.ID, user.ID)
	utils.Created(c, "Payment intent created", gin.H{
		"payment": gin.H{
			"id":                payment.ID,
			"amount":            fmt.Sprintf("%.2f", payment.Amount),
			"status":            payment.Status,
			"gateway_charge_id": payment.GatewayChargeID,
		},
	})
}

// CreateCartIntent handles POST /payments/cart/create-intent
func (ctrl *PaymentController) CreateCartIntent(c *gin.Context) {
	utils.LogInfo("CreateCartIntent called")
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "User not found")
		return
	}

	payment, order, err := ctrl.payments.CreateCartIntent(user.ID)
	if err != nil {
		utils.LogError("Failed to create cart intent for user %d: %v", user.ID, err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.LogInfo("Created cart intent: order %s, payment %d for user %d",
		order.OrderNumber, payment.ID, user.ID)
	utils.Created(c, "Payment intent created for cart", gin.H{
		"order": gin.H{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"total_amount": fmt.Sprintf("%.2f", order.TotalAmount),
			"items":        len(order.OrderItems),
		},
		"payment": gin.H{
			"id":                payment.ID,
			"amount":            fmt.Sprintf("%.2f", payment.Amount),
			"status":            payment.Status,
			"gateway_charge_id": payment.GatewayChargeID,
		},
	})
}

// Confirm handles POST /payments/confirm
func (ctrl *PaymentController) Confirm(c *gin.Context) {
	utils.LogInfo("Confirm called")
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "User not found")
		return
	}

	var req struct {
		PaymentID uint   `json:"payment_id" binding:"required"`
		ChargeID  string `json:"charge_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. payment_id is required", err.Error())
		return
	}

	result, err := ctrl.payments.ConfirmPayment(req.PaymentID, req.ChargeID)
	if err != nil {
		utils.LogError("Failed to confirm payment %d for user %d: %v", req.PaymentID, user.ID, err)
		utils.HandleServiceError(c, err)
		return
	}

	message := "Payment confirmed"
	if result.AlreadyCompleted {
		message = "Payment was already confirmed"
	}
	utils.LogInfo("Confirmed payment %d for user %d (already_completed=%v)",
		req.PaymentID, user.ID, result.AlreadyCompleted)
	utils.Success(c, message, result)
}

// RequestRefund handles POST /payments/:id/refund where :id is the order id
func (ctrl *PaymentController) RequestRefund(c *gin.Context) {
	utils.LogInfo("RequestRefund called")
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "User not found")
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.BadRequest(c, "Invalid order ID", nil)
		return
	}

	var req struct {
		Amount   float64 `json:"amount" binding:"required"`
		Reason   string  `json:"reason" binding:"required"`
		Category string  `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	refund, err := ctrl.refunds.Request(user.ID, uint(orderID), req.Amount, req.Reason, req.Category)
	if err != nil {
		utils.LogError("Failed to create refund request for order %d: %v", orderID, err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.LogInfo("Created refund request %d on order %d for user %d", refund.ID, orderID, user.ID)
	utils.Created(c, "Refund request submitted", gin.H{
		"refund": gin.H{
			"id":     refund.ID,
			"amount": fmt.Sprintf("%.2f", refund.Amount),
			"status": refund.Status,
		},
	})
}

package controllers

import (
	"fmt"

	"github.com/218451LIJIAQI/edutech-platform-sub000/middleware"
	"github.com/218451LIJIAQI/edutech-platform-sub000/services"
	"github.com/218451LIJIAQI/edutech-platform-sub000/utils"
	"github.com/gin-gonic/gin"
)

// WalletController exposes a teacher's wallet and ledger history.
type WalletController struct {
	wallets *services.WalletService
}

// NewWalletController creates a new WalletController
func NewWalletController(wallets *services.WalletService) *WalletController {
	return &WalletController{wallets: wallets}
}

// Me handles GET /wallet/me
func (ctrl *WalletController) Me(c *gin.Context) {
	utils.LogInfo("Wallet Me called")
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "User not found")
		return
	}

	wallet, err := ctrl.wallets.GetOrCreateWallet(user.ID)
	if err != nil {
		utils.LogError("Failed to load wallet for user %d: %v", user.ID, err)
		utils.HandleServiceError(c, err)
		return
	}

	utils.Success(c, "Wallet retrieved", gin.H{
		"wallet": gin.H{
			"id":             wallet.ID,
			"balance":        fmt.Sprintf("%.2f", wallet.Balance),
			"pending_payout": fmt.Sprintf("%.2f", wallet.PendingPayout),
			"currency":       wallet.Currency,
		},
	})
}

// Transactions handles GET /wallet/me/transactions
func (ctrl *WalletController) Transactions(c *gin.Context) {
	utils.LogInfo("Wallet Transactions called")
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "User not found")
		return
	}

	pagination := utils.NewPagination(c)
	txns, total, err := ctrl.wallets.Transactions(user.ID, pagination.Limit, pagination.Offset)
	if err != nil {
		utils.LogError("Failed to list wallet transactions for user %d: %v", user.ID, err)
		utils.HandleServiceError(c, err)
		return
	}

	pagination.SetTotal(total)
	utils.SendPaginatedResponse(c, "Wallet transactions retrieved", txns, pagination)
}

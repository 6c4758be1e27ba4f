package routes

import (
	"github.com/218451LIJIAQI/edutech-platform-sub000/controllers"
	"github.com/218451LIJIAQI/edutech-platform-sub000/middleware"
	"github.com/218451LIJIAQI/edutech-platform-sub000/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Controllers bundles everything the router needs.
type Controllers struct {
	Payments *controllers.PaymentController
	Refunds  *controllers.RefundAdminController
	Wallet   *controllers.WalletController
	Earnings *controllers.EarningsController
}

// SetupRouter initializes and returns the Gin router with all routes
func SetupRouter(db *gorm.DB, jwtSecret string, ctrl Controllers) *gin.Engine {
	router := gin.New()
	router.Use(utils.LoggerMiddleware())
	router.Use(utils.CORSMiddleware())
	router.Use(utils.RecoveryMiddleware())
	router.Use(utils.RequestIDMiddleware())
	router.Use(utils.SecurityHeadersMiddleware())

	api := router.Group("/v1")
	api.Use(middleware.AuthMiddleware(db, jwtSecret))
	{
		payments := api.Group("/payments")
		{
			payments.POST("/create-intent", ctrl.Payments.CreateIntent)
			payments.POST("/cart/create-intent", ctrl.Payments.CreateCartIntent)
			payments.POST("/confirm", ctrl.Payments.Confirm)
			payments.POST("/:id/refund", ctrl.Payments.RequestRefund)
		}

		teacher := api.Group("/teacher")
		teacher.Use(middleware.TeacherMiddleware())
		{
			teacher.GET("/earnings", ctrl.Earnings.Earnings)
			teacher.GET("/earnings/by-course", ctrl.Earnings.ByCourse)
			teacher.GET("/earnings/export", ctrl.Earnings.Export)
		}

		wallet := api.Group("/wallet")
		wallet.Use(middleware.TeacherMiddleware())
		{
			wallet.GET("/me", ctrl.Wallet.Me)
			wallet.GET("/me/transactions", ctrl.Wallet.Transactions)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("/refunds", ctrl.Refunds.List)
			admin.POST("/refunds/:id/approve", ctrl.Refunds.Approve)
			admin.POST("/refunds/:id/reject", ctrl.Refunds.Reject)
			admin.POST("/refunds/:id/processing", ctrl.Refunds.MarkProcessing)
			admin.POST("/refunds/:id/complete", ctrl.Refunds.Complete)
		}
	}

	return router
}

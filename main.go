package main

import (
	"log"

	"github.com/218451LIJIAQI/edutech-platform-sub000/config"
	"github.com/218451LIJIAQI/edutech-platform-sub000/controllers"
	"github.com/218451LIJIAQI/edutech-platform-sub000/gateway"
	"github.com/218451LIJIAQI/edutech-platform-sub000/routes"
	"github.com/218451LIJIAQI/edutech-platform-sub000/services"
	"github.com/218451LIJIAQI/edutech-platform-sub000/utils"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := utils.InitLogger(); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	cfg, err := config.Load()
	if err != nil {
		utils.LogError("Error loading config: %v", err)
		log.Fatal("Error loading config:", err)
	}

	db, err := config.Connect(cfg)
	if err != nil {
		utils.LogError("Error connecting to database: %v", err)
		log.Fatal("Error connecting to database:", err)
	}
	defer func() {
		if err := config.Close(db); err != nil {
			utils.LogError("Error closing database: %v", err)
		}
	}()

	if err := controllers.CreateDefaultAdmin(db); err != nil {
		utils.LogError("Failed to seed admin account: %v", err)
		log.Fatal("Failed to seed admin account:", err)
	}

	var gw gateway.Gateway
	if cfg.RazorpayKey != "" && cfg.RazorpaySecret != "" {
		gw = gateway.NewRazorpayGateway(cfg.RazorpayKey, cfg.RazorpaySecret)
	} else {
		utils.LogInfo("No gateway credentials configured, running without charge verification")
	}

	walletSvc := services.NewWalletService(db, cfg.Currency)
	paymentSvc := services.NewPaymentService(db, gw, walletSvc, cfg.DefaultCommissionRate, cfg.Currency)
	refundSvc := services.NewRefundService(db, walletSvc, cfg.DefaultCommissionRate)
	earningsSvc := services.NewEarningsService(db, cfg.DefaultCommissionRate)

	// The outbox worker retries wallet postings that failed after their
	// originating transaction committed.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 1m", func() {
		n, err := walletSvc.ProcessPendingIntents(100)
		if err != nil {
			utils.LogError("Wallet intent worker failed: %v", err)
			return
		}
		if n > 0 {
			utils.LogInfo("Wallet intent worker posted %d entries", n)
		}
	}); err != nil {
		log.Fatal("Failed to schedule wallet intent worker:", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := routes.SetupRouter(db, cfg.JWTSecret, routes.Controllers{
		Payments: controllers.NewPaymentController(paymentSvc, refundSvc),
		Refunds:  controllers.NewRefundAdminController(refundSvc),
		Wallet:   controllers.NewWalletController(walletSvc),
		Earnings: controllers.NewEarningsController(earningsSvc),
	})

	utils.LogInfo("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		utils.LogError("Error starting server: %v", err)
		log.Fatal("Error starting server:", err)
	}
}

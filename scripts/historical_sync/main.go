package main

import (
	"fmt"
	"log"

	"github.com/218451LIJIAQI/edutech-platform-sub000/config"
	"github.com/218451LIJIAQI/edutech-platform-sub000/services"
	"github.com/218451LIJIAQI/edutech-platform-sub000/utils"
)

// One-shot backfill of net historical teacher earnings into wallets.
// Safe to re-run: wallets already carrying the sync marker are skipped.
func main() {
	if err := utils.InitLogger(); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config:", err)
	}

	db, err := config.Connect(cfg)
	if err != nil {
		log.Fatal("Error connecting to database:", err)
	}
	defer func() {
		if err := config.Close(db); err != nil {
			utils.LogError("Error closing database: %v", err)
		}
	}()

	wallets := services.NewWalletService(db, cfg.Currency)
	sync := services.NewHistoricalSyncService(db, wallets, cfg.DefaultCommissionRate)

	report, err := sync.Run()
	if err != nil {
		utils.LogError("Historical sync failed: %v", err)
		log.Fatal("Historical sync failed:", err)
	}

	fmt.Printf("Historical sync complete: %d teachers credited (%.2f total), %d already synced\n",
		report.TeachersCredited, report.TotalCredited, report.TeachersSkipped)
}

package config

import (
	"fmt"

	"github.com/218451LIJIAQI/edutech-platform-sub000/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the Postgres connection and runs migrations. The handle
// is returned to the caller (the composition root) rather than stored in
// a package-level global; everything downstream receives it explicitly.
func Connect(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Migrate runs the schema migrations. Exported so tests can migrate an
// in-memory database with the same schema the server uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.TeacherProfile{},
		&models.Course{},
		&models.CoursePackage{},
		&models.CartItem{},
		&models.Enrollment{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.WalletIntent{},
		&models.Refund{},
	)
}

// Close releases the underlying connection pool. Called from the
// composition root on shutdown.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

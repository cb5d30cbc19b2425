// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campuskart/campus-market/internal/config"
	"github.com/campuskart/campus-market/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.College{},
		&models.User{},
		&models.Item{},
		&models.Order{},
		&models.BorrowRequest{},
		&models.PaymentTransaction{},
		&models.Review{},
		&models.Conversation{},
		&models.Message{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_college_status ON users(college_id, status)",

		// Item indexes
		"CREATE INDEX IF NOT EXISTS idx_items_college_status ON items(college_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id)",
		"CREATE INDEX IF NOT EXISTS idx_items_category_mode ON items(category, mode)",
		"CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at DESC)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_item_status ON orders(item_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_seller ON orders(seller_id, created_at DESC)",

		// Borrow indexes
		"CREATE INDEX IF NOT EXISTS idx_borrow_requests_item_status ON borrow_requests(item_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_borrow_requests_borrower ON borrow_requests(borrower_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_borrow_requests_lender_status ON borrow_requests(lender_id, status)",

		// Payment indexes
		"CREATE INDEX IF NOT EXISTS idx_payment_transactions_session ON payment_transactions(session_id)",

		// Review indexes
		"CREATE INDEX IF NOT EXISTS idx_reviews_reviewee ON reviews(reviewee_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_reviewer_order ON reviews(reviewer_id, order_id)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_reviewer_borrow ON reviews(reviewer_id, borrow_id)",

		// Messaging indexes
		"CREATE INDEX IF NOT EXISTS idx_conversations_parties ON conversations(initiator_id, recipient_id)",
		"CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at)",

		// Full-text search index
		"CREATE INDEX IF NOT EXISTS idx_items_search ON items USING GIN(to_tsvector('english', title || ' ' || description))",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	colleges := []models.College{
		{Name: "Stanford University", Domain: "stanford.edu", IsActive: true},
		{Name: "MIT", Domain: "mit.edu", IsActive: true},
		{Name: "Harvard University", Domain: "harvard.edu", IsActive: true},
		{Name: "UC Berkeley", Domain: "berkeley.edu", IsActive: true},
		{Name: "UCLA", Domain: "ucla.edu", IsActive: true},
	}

	for _, college := range colleges {
		var count int64
		db.Model(&models.College{}).Where("domain = ?", college.Domain).Count(&count)
		if count == 0 {
			if err := db.Create(&college).Error; err != nil {
				log.Printf("Warning: Failed to seed college %s: %v", college.Name, err)
			}
		}
	}

	log.Println("Initial data seeding completed")
	return nil
}

// internal/services/testutil_test.go
package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campuskart/campus-market/internal/config"
	"github.com/campuskart/campus-market/internal/models"
	"github.com/campuskart/campus-market/internal/utils"
)

var testDBSeq int64
var testDBMu sync.Mutex

// newTestDB opens a private in-memory database and migrates the schema.
// Each test gets its own database so suites never see each other's rows.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testDBMu.Lock()
	testDBSeq++
	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared", testDBSeq)
	testDBMu.Unlock()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
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
	require.NoError(t, err)

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:      "test-secret",
			AccessTokenTTL: 24,
		},
	}
}

// newTestNotifications returns a notification service with no SMTP host
// configured, so mail sends are logged and skipped.
func newTestNotifications(db *gorm.DB) *NotificationService {
	return NewNotificationService(db, testConfig())
}

func testPaginationParams() utils.PaginationParams {
	return utils.PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}
}

func createTestCollege(t *testing.T, db *gorm.DB, name, domain string) *models.College {
	t.Helper()
	college := &models.College{Name: name, Domain: domain, IsActive: true}
	require.NoError(t, db.Create(college).Error)
	return college
}

func createTestUser(t *testing.T, db *gorm.DB, collegeID uuid.UUID, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:     email,
		Name:      "Test User",
		CollegeID: collegeID,
		Role:      models.UserRoleStudent,
		Status:    models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestItem(t *testing.T, db *gorm.DB, ownerID, collegeID uuid.UUID, mode models.ItemMode) *models.Item {
	t.Helper()
	priceBuy := 50.0
	priceBorrow := 5.0
	deposit := 20.0
	item := &models.Item{
		CollegeID: collegeID,
		OwnerID:   ownerID,
		Title:     "Calculus Textbook",
		Category:  "textbooks",
		Mode:      mode,
		Condition: models.ItemConditionGood,
		Status:    models.ItemStatusAvailable,
	}
	if mode == models.ItemModeBuy || mode == models.ItemModeBoth {
		item.PriceBuy = &priceBuy
	}
	if mode == models.ItemModeBorrow || mode == models.ItemModeBoth {
		item.PriceBorrow = &priceBorrow
		item.Deposit = &deposit
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

// recordingRefunder captures deposit refund calls for assertions.
type recordingRefunder struct {
	mu    sync.Mutex
	calls []uuid.UUID
	done  chan struct{}
}

func newRecordingRefunder() *recordingRefunder {
	return &recordingRefunder{done: make(chan struct{}, 8)}
}

func (r *recordingRefunder) RefundDeposit(borrow *models.BorrowRequest) error {
	r.mu.Lock()
	r.calls = append(r.calls, borrow.ID)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

// waitForCall blocks until a refund lands or the timeout elapses.
func (r *recordingRefunder) waitForCall(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("deposit refund was never requested")
	}
}

func (r *recordingRefunder) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

package services

import (
	"fmt"
	"sync"
	"testing"

	"volunteerhub/internal/adapters/persistence/models"
	"volunteerhub/internal/adapters/persistence/repositories"
	"volunteerhub/internal/config"
	"volunteerhub/internal/core/domain"
	"volunteerhub/internal/pkg/password"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a fresh in-memory database for one test
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open test db")
	require.NoError(t, models.AutoMigrate(db), "migrate test db")
	return db
}

// testConfig returns auth knobs with the documented defaults
func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		Auth: config.AuthConfig{
			SessionTTLHours:   24,
			LockoutThreshold:  3,
			LockoutWindowMins: 15,
			LockoutMins:       15,
			OTPTTLMins:        10,
		},
	}
}

// sentNotification records one Notifier.Send call
type sentNotification struct {
	TemplateID string
	Recipient  string
	Payload    map[string]interface{}
}

// fakeNotifier captures notifications instead of delivering them
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (f *fakeNotifier) Send(templateID, recipient string, payload map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{TemplateID: templateID, Recipient: recipient, Payload: payload})
}

func (f *fakeNotifier) last() *sentNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return &f.sent[len(f.sent)-1]
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// seedUser creates a user with a known password
func seedUser(t *testing.T, db *gorm.DB, email, plain string, role domain.Role, perms []string) *models.User {
	t.Helper()
	hashed, err := password.Hash(plain)
	require.NoError(t, err)

	user := &models.User{
		Name:        "Test User",
		Email:       email,
		Password:    hashed,
		Role:        string(role),
		Permissions: perms,
		IsActive:    true,
	}
	require.NoError(t, db.Create(user).Error, "seed user")
	return user
}

func userRepo(db *gorm.DB) repositories.UserRepository {
	return repositories.NewUserRepository(db)
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"home-monitor-backend/internal/model"
)

// ErrDuplicateEmail is returned by CreateUser when the email is already
// registered.
var ErrDuplicateEmail = errors.New("email already exists")

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// ReadDeviceStatus returns the last committed LED state. It always
	// succeeds; if the row was never seeded the default (off) is returned.
	ReadDeviceStatus(ctx context.Context) (model.DeviceStatus, error)

	// CommitDeviceStatus replaces the status row with the given
	// device-confirmed state. Concurrent commits serialize on the row;
	// the last committed value wins.
	CommitDeviceStatus(ctx context.Context, ledOn bool) (model.DeviceStatus, error)

	CreateUser(ctx context.Context, user *model.User) error
	UserByEmail(ctx context.Context, email string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	TouchLastLogin(ctx context.Context, userID int64, when time.Time) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) ReadDeviceStatus(ctx context.Context) (model.DeviceStatus, error) {
	var status model.DeviceStatus
	err := s.db.WithContext(ctx).First(&status, model.DeviceStatusID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Never-seeded database: report the default state instead of failing
		// the dashboard poll.
		return model.DeviceStatus{ID: model.DeviceStatusID, LedOn: false}, nil
	}
	if err != nil {
		return model.DeviceStatus{}, fmt.Errorf("failed to read device status: %w", err)
	}
	return status, nil
}

func (s *gormStore) CommitDeviceStatus(ctx context.Context, ledOn bool) (model.DeviceStatus, error) {
	status := model.DeviceStatus{
		ID:        model.DeviceStatusID,
		LedOn:     ledOn,
		UpdatedAt: time.Now().UTC(),
	}

	// Full-row upsert inside a transaction: readers never observe a
	// half-written record.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"led_on", "updated_at"}),
		}).Create(&status).Error
	})
	if err != nil {
		return model.DeviceStatus{}, fmt.Errorf("failed to commit device status: %w", err)
	}
	return status, nil
}

func (s *gormStore) CreateUser(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *gormStore) UserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *gormStore) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *gormStore) TouchLastLogin(ctx context.Context, userID int64, when time.Time) error {
	return s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login", when).Error
}

// isDuplicateKey recognizes unique-constraint violations across the sqlite
// and postgres drivers.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

package store

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"home-monitor-backend/internal/model"
)

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// newSqliteDB opens a per-test in-memory database with migrations applied.
func newSqliteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.DeviceStatus{}))
	return db
}

func TestReadDeviceStatusDefaultsWhenUnseeded(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "device_statuses"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "led_on", "updated_at"}))

	status, err := s.ReadDeviceStatus(context.Background())
	require.NoError(t, err, "read must succeed even without a seeded row")
	assert.False(t, status.LedOn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadDeviceStatusReturnsCommittedRow(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	updatedAt := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "device_statuses"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "led_on", "updated_at"}).
			AddRow(model.DeviceStatusID, true, updatedAt))

	status, err := s.ReadDeviceStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.LedOn)
	assert.Equal(t, 1, status.LedStatusCode())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadDeviceStatusWrapsStoreError(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "device_statuses"`)).
		WillReturnError(fmt.Errorf("disk I/O error"))

	_, err := s.ReadDeviceStatus(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read device status")
}

func TestCommitDeviceStatusLastWriterWins(t *testing.T) {
	db := newSqliteDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	first, err := s.CommitDeviceStatus(ctx, true)
	require.NoError(t, err)
	assert.True(t, first.LedOn)

	second, err := s.CommitDeviceStatus(ctx, false)
	require.NoError(t, err)
	assert.False(t, second.LedOn)

	// Exactly one row exists; commits replace, never accumulate.
	var count int64
	require.NoError(t, db.Model(&model.DeviceStatus{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	read, err := s.ReadDeviceStatus(ctx)
	require.NoError(t, err)
	assert.False(t, read.LedOn)
	assert.False(t, read.UpdatedAt.IsZero())
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	db := newSqliteDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	user := model.User{FirstName: "Alice", LastName: "Nguyen", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, &user))
	assert.NotZero(t, user.ID)

	dup := model.User{FirstName: "Alice", LastName: "Tran", Email: "alice@example.com", PasswordHash: "y"}
	err := s.CreateUser(ctx, &dup)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserLookupAndLastLogin(t *testing.T) {
	db := newSqliteDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	user := model.User{FirstName: "Bob", LastName: "Le", Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, &user))

	found, err := s.UserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Nil(t, found.LastLogin)

	when := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.TouchLastLogin(ctx, found.ID, when))

	found, err = s.UserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	require.NotNil(t, found.LastLogin)
	assert.WithinDuration(t, when, *found.LastLogin, time.Second)

	_, err = s.UserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

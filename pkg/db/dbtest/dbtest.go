// Package dbtest opens throwaway SQLite databases carrying the full schema.
package dbtest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	"github.com/angelmondragon/servicehub-backend/pkg/migrate"
)

// Open returns a client over a private in-memory database. The pool is capped at
// one connection, so code running inside WithTx must only use the tx handle.
func Open(t *testing.T) *db.Client {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.ApplySQLiteSchema(context.Background(), conn))
	return db.NewFromConn(conn)
}

// CreateUser inserts a user with the given role.
func CreateUser(t *testing.T, conn *gorm.DB, role enums.UserRole) models.User {
	t.Helper()
	id := uuid.New()
	user := models.User{
		ID:        id,
		Role:      role,
		Email:     id.String() + "@example.com",
		FirstName: "Test",
		LastName:  string(role),
	}
	require.NoError(t, conn.Create(&user).Error)
	return user
}

// CreateTechnician inserts a technician user plus profile and returns the profile.
func CreateTechnician(t *testing.T, conn *gorm.DB) models.TechnicianProfile {
	t.Helper()
	user := CreateUser(t, conn, enums.UserRoleTechnician)
	profile := models.TechnicianProfile{
		UserID:          user.ID,
		Specializations: datatypes.JSONSlice[string]{"plumbing"},
		City:            "Guadalajara",
	}
	require.NoError(t, conn.Create(&profile).Error)
	profile.User = &user
	return profile
}

// CreateBooking inserts a booking row with the supplied status.
func CreateBooking(t *testing.T, conn *gorm.DB, booking models.Booking) models.Booking {
	t.Helper()
	if booking.ServiceType == "" {
		booking.ServiceType = "plumbing"
	}
	if booking.Status == "" {
		booking.Status = enums.BookingStatusPending
	}
	if booking.TotalPrice == nil {
		price := decimal.NewFromInt(450)
		booking.TotalPrice = &price
	}
	require.NoError(t, conn.Create(&booking).Error)
	return booking
}

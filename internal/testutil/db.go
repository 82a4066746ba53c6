// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kaspit-backend/internal/models"
)

// NewDB returns an in-memory sqlite database with every model migrated.
// Each call gets its own database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=UTC", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// Company creates a company with an owner membership and returns both ids.
func Company(t testing.TB, db *gorm.DB) (companyID, ownerID uuid.UUID) {
	t.Helper()

	c := models.Company{
		ID:        uuid.New(),
		Name:      "Test Ltd",
		VATRate:   decimal.RequireFromString("0.18"),
		VATPeriod: models.VATPeriodBimonthly,
		Currency:  "ILS",
	}
	require.NoError(t, db.Create(&c).Error)

	m := models.Membership{
		ID:        uuid.New(),
		CompanyID: c.ID,
		UserID:    uuid.New(),
		Email:     "owner@example.com",
		Role:      models.RoleOwner,
	}
	require.NoError(t, db.Create(&m).Error)
	return c.ID, m.UserID
}

// Member adds a user with role to a company and returns the user id.
func Member(t testing.TB, db *gorm.DB, companyID uuid.UUID, role models.Role) uuid.UUID {
	t.Helper()

	m := models.Membership{
		ID:        uuid.New(),
		CompanyID: companyID,
		UserID:    uuid.New(),
		Email:     string(role) + "@example.com",
		Role:      role,
	}
	require.NoError(t, db.Create(&m).Error)
	return m.UserID
}

// Day is a UTC midnight.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

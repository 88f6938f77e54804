// Package testutil provides shared helpers for tests that need a real
// database. Tests run against an in-memory sqlite database migrated from the
// same models the application uses.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/woodline/crm-api/internal/domain"
)

var dbCounter int64

// SetupTestDB opens a fresh in-memory sqlite database and migrates the full
// schema. Each call gets its own database, so tests stay independent.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named in-memory database with shared cache so every connection in
	// the pool sees the same data.
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")

	err = db.AutoMigrate(
		&domain.User{},
		&domain.ClientCompany{},
		&domain.Contact{},
		&domain.Lead{},
		&domain.Supplier{},
		&domain.Product{},
		&domain.Order{},
		&domain.OrderStatusHistory{},
		&domain.Task{},
		&domain.File{},
		&domain.Notification{},
		&domain.NumberSequence{},
	)
	require.NoError(t, err, "failed to migrate test database")

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

// CreateTestUser inserts a user with the given role and returns it.
func CreateTestUser(t *testing.T, db *gorm.DB, id string, role domain.UserRoleType) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: "Test User " + id,
		Role:        role,
		IsActive:    true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestContact inserts a contact and returns it.
func CreateTestContact(t *testing.T, db *gorm.DB, firstName, lastName string) *domain.Contact {
	t.Helper()
	contact := &domain.Contact{
		FirstName: firstName,
		LastName:  lastName,
		Email:     "contact@example.com",
		Phone:     "90012345",
		IsActive:  true,
	}
	require.NoError(t, db.Create(contact).Error)
	return contact
}

// CreateTestLead inserts a lead and returns it.
func CreateTestLead(t *testing.T, db *gorm.DB, name string) *domain.Lead {
	t.Helper()
	lead := &domain.Lead{
		Name:   name,
		Phone:  "90054321",
		Source: "website",
		Status: domain.LeadStatusNew,
	}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

// CreateTestSupplier inserts a supplier and returns it.
func CreateTestSupplier(t *testing.T, db *gorm.DB, name string) *domain.Supplier {
	t.Helper()
	supplier := &domain.Supplier{
		Name:     name,
		IsActive: true,
	}
	require.NoError(t, db.Create(supplier).Error)
	return supplier
}

var orderNumberCounter int64

// CreateTestOrder inserts an order directly, bypassing the service layer.
// Handy for repository tests and for seeding board state. Numbers come from
// a process-wide counter so the unique index never trips.
func CreateTestOrder(t *testing.T, db *gorm.DB, orderType domain.OrderType, status domain.OrderStatus, contactID *uuid.UUID) *domain.Order {
	t.Helper()
	order := &domain.Order{
		Number:    fmt.Sprintf("TST-%04d", atomic.AddInt64(&orderNumberCounter, 1)),
		Type:      orderType,
		Status:    status,
		ContactID: contactID,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

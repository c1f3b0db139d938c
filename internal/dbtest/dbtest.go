// Package dbtest provides an in-memory database and catalog fixtures for tests.
package dbtest

import (
	"testing"

	"jem-backend/internal/database"
	"jem-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func New(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Item creates a catalog item sold by the unit (one unit per bag).
func Item(t testing.TB, db *gorm.DB, name string, c models.Category, cost, sell string, stock int) models.Item {
	t.Helper()
	it := models.Item{
		Name:         name,
		Category:     c,
		CostPerBag:   decimal.RequireFromString(cost),
		UnitsPerBag:  1,
		SellPrice:    decimal.RequireFromString(sell),
		CurrentStock: stock,
	}
	require.NoError(t, db.Create(&it).Error)
	return it
}

func Bundle(t testing.TB, db *gorm.DB, name string, snacks, juices int) models.BundleType {
	t.Helper()
	b := models.BundleType{Name: name, RequiredSnacks: snacks, RequiredJuices: juices, IsActive: true}
	require.NoError(t, db.Create(&b).Error)
	return b
}

// Stock reads the current stock of an item straight from the table.
func Stock(t testing.TB, db *gorm.DB, id uint) int {
	t.Helper()
	var it models.Item
	require.NoError(t, db.First(&it, id).Error)
	return it.CurrentStock
}

func Count(t testing.TB, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

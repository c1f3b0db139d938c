package database

import (
	"strings"
	"testing"

	"jem-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
items:
  - name: Chips
    category: snack
    cost_per_bag: "12.00"
    units_per_bag: 6
    sell_price: "3.50"
    stock: 10
    spicy: true
  - name: Cola
    category: juice
    cost_per_bag: "0.80"
    sell_price: "2.00"
    stock: 4
bundles:
  - name: Duo
    snacks: 2
    juices: 1
`

func TestSeedCatalog(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)

	require.NoError(t, SeedCatalog(db, strings.NewReader(catalogYAML)))
	// Running again adds nothing.
	require.NoError(t, SeedCatalog(db, strings.NewReader(catalogYAML)))

	var items []models.Item
	require.NoError(t, db.Order("name").Find(&items).Error)
	require.Len(t, items, 2)
	assert.True(t, items[0].CostPrice.Equal(decimal.RequireFromString("2")), items[0].CostPrice.String())
	assert.True(t, items[0].IsSpicy)
	assert.Equal(t, 1, items[1].UnitsPerBag)

	var bundles []models.BundleType
	require.NoError(t, db.Find(&bundles).Error)
	require.Len(t, bundles, 1)
	assert.True(t, bundles[0].IsActive)
}

func TestSeedCatalogRejectsUnknownCategory(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)

	err = SeedCatalog(db, strings.NewReader("items:\n  - name: Cake\n    category: dessert\n    cost_per_bag: '1'\n    sell_price: '2'\n"))
	assert.ErrorContains(t, err, "unknown category")
	var n int64
	db.Model(&models.Item{}).Count(&n)
	assert.Zero(t, n)
}

func TestEnsureAdmin(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)

	created, err := EnsureAdmin(db, "admin", "$2a$10$hash")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureAdmin(db, "admin", "$2a$10$other")
	require.NoError(t, err)
	assert.False(t, created)

	var u models.User
	require.NoError(t, db.First(&u).Error)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.Equal(t, "$2a$10$hash", u.Password)
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "jem.db?_pragma=foreign_keys(1)", sqliteDSN("jem.db"))
	assert.Equal(t, "file:x?mode=memory&_pragma=foreign_keys(1)", sqliteDSN("file:x?mode=memory"))
}

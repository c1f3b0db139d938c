package catalog

import (
	"context"
	"testing"

	"jem-backend/internal/dbtest"
	"jem-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateItemDerivesCostPrice(t *testing.T) {
	db := dbtest.New(t)
	s := New(db)
	it := &models.Item{
		Name:        "Banana Chips",
		Category:    models.CategorySnack,
		CostPerBag:  decimal.RequireFromString("10.00"),
		UnitsPerBag: 3,
		SellPrice:   decimal.RequireFromString("5.00"),
		IsSpicy:     true,
	}
	require.NoError(t, s.CreateItem(context.Background(), it))

	got, err := s.GetItem(context.Background(), it.ID)
	require.NoError(t, err)
	assert.True(t, got.CostPrice.Equal(decimal.RequireFromString("3.3333")), got.CostPrice.String())
	assert.True(t, got.IsSpicy)
}

func TestJuiceIsNeverSpicy(t *testing.T) {
	db := dbtest.New(t)
	it := &models.Item{
		Name:        "Pepper Punch",
		Category:    models.CategoryJuice,
		CostPerBag:  decimal.RequireFromString("1"),
		UnitsPerBag: 1,
		SellPrice:   decimal.RequireFromString("2"),
		IsSpicy:     true,
	}
	require.NoError(t, New(db).CreateItem(context.Background(), it))
	assert.False(t, it.IsSpicy)
}

func TestListItemsFilters(t *testing.T) {
	db := dbtest.New(t)
	dbtest.Item(t, db, "Chips", models.CategorySnack, "1", "2", 3)
	dbtest.Item(t, db, "Cheese Trix", models.CategorySnack, "1", "2", 0)
	dbtest.Item(t, db, "Cola", models.CategoryJuice, "1", "2", 1)
	s := New(db)

	all, err := s.ListItems(context.Background(), ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	snacks, err := s.ListItems(context.Background(), ItemFilter{Category: models.CategorySnack, InStockOnly: true})
	require.NoError(t, err)
	require.Len(t, snacks, 1)
	assert.Equal(t, "Chips", snacks[0].Name)
}

func TestAvailableByStock(t *testing.T) {
	db := dbtest.New(t)
	low := dbtest.Item(t, db, "Low", models.CategorySnack, "1", "2", 1)
	high := dbtest.Item(t, db, "High", models.CategorySnack, "1", "2", 9)
	dbtest.Item(t, db, "Empty", models.CategorySnack, "1", "2", 0)
	dbtest.Item(t, db, "Juice", models.CategoryJuice, "1", "2", 20)

	items, err := New(db).AvailableByStock(context.Background(), models.CategorySnack)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, high.ID, items[0].ID)
	assert.Equal(t, low.ID, items[1].ID)
}

func TestItemsByIDSkipsMissing(t *testing.T) {
	db := dbtest.New(t)
	it := dbtest.Item(t, db, "Chips", models.CategorySnack, "1", "2", 3)

	got, err := New(db).ItemsByID(context.Background(), []uint{it.ID, 99})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "Chips", got[it.ID].Name)
}

func TestSaveItemKeepsCategoryAndStock(t *testing.T) {
	db := dbtest.New(t)
	it := dbtest.Item(t, db, "Chips", models.CategorySnack, "1", "2", 3)
	s := New(db)

	edit := it
	edit.Name = "Salted Chips"
	edit.Category = models.CategoryJuice
	edit.CurrentStock = 100
	edit.SellPrice = decimal.RequireFromString("2.75")
	require.NoError(t, s.SaveItem(context.Background(), &edit))

	got, err := s.GetItem(context.Background(), it.ID)
	require.NoError(t, err)
	assert.Equal(t, "Salted Chips", got.Name)
	assert.Equal(t, models.CategorySnack, got.Category)
	assert.Equal(t, 3, got.CurrentStock)
	assert.True(t, got.SellPrice.Equal(decimal.RequireFromString("2.75")))
}

func TestSaveItemMissing(t *testing.T) {
	db := dbtest.New(t)
	err := New(db).SaveItem(context.Background(), &models.Item{ID: 42, Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStockMovements(t *testing.T) {
	db := dbtest.New(t)
	it := dbtest.Item(t, db, "Chips", models.CategorySnack, "1", "2", 3)
	s := New(db)
	ctx := context.Background()

	updated, err := s.AddStock(ctx, it.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.CurrentStock)

	ok, err := s.DecrementStock(ctx, it.ID, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DecrementStock(ctx, it.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, dbtest.Stock(t, db, it.ID))

	_, err = s.AddStock(ctx, 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteItemInUse(t *testing.T) {
	db := dbtest.New(t)
	it := dbtest.Item(t, db, "Chips", models.CategorySnack, "1", "2", 3)
	b := dbtest.Bundle(t, db, "Solo", 1, 0)
	cust := models.Customer{Name: "A", Phone: "1-876-555-0000", PickupSpot: "X"}
	require.NoError(t, db.Create(&cust).Error)
	o := models.Order{
		Reference: "r1", CustomerID: cust.ID, BundleTypeID: b.ID,
		Items: []models.OrderItem{{ItemID: it.ID, Category: it.Category, Quantity: 1}},
	}
	require.NoError(t, db.Create(&o).Error)
	s := New(db)

	assert.ErrorIs(t, s.DeleteItem(context.Background(), it.ID), ErrInUse)
	assert.ErrorIs(t, s.DeleteBundle(context.Background(), b.ID), ErrInUse)

	b.RequiredSnacks = 2
	assert.ErrorIs(t, s.SaveBundle(context.Background(), &b), ErrInUse)

	b.RequiredSnacks = 1
	b.Description = "just one"
	assert.NoError(t, s.SaveBundle(context.Background(), &b))
}

func TestDeleteItem(t *testing.T) {
	db := dbtest.New(t)
	it := dbtest.Item(t, db, "Chips", models.CategorySnack, "1", "2", 3)
	s := New(db)

	require.NoError(t, s.DeleteItem(context.Background(), it.ID))
	assert.ErrorIs(t, s.DeleteItem(context.Background(), it.ID), ErrNotFound)
}

func TestBundles(t *testing.T) {
	db := dbtest.New(t)
	s := New(db)
	ctx := context.Background()

	duo := &models.BundleType{Name: "Duo", RequiredSnacks: 2, RequiredJuices: 1, IsActive: true}
	require.NoError(t, s.CreateBundle(ctx, duo))
	retired := &models.BundleType{Name: "Retired", RequiredSnacks: 1}
	require.NoError(t, s.CreateBundle(ctx, retired))

	assert.ErrorIs(t, s.CreateBundle(ctx, &models.BundleType{Name: "Duo"}), ErrDuplicate)

	active, err := s.ListBundles(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Duo", active[0].Name)

	all, err := s.ListBundles(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	retired.Name = "Duo"
	assert.ErrorIs(t, s.SaveBundle(ctx, retired), ErrDuplicate)

	require.NoError(t, s.DeleteBundle(ctx, retired.ID))
	_, err = s.GetBundle(ctx, retired.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetImage(t *testing.T) {
	db := dbtest.New(t)
	it := dbtest.Item(t, db, "Chips", models.CategorySnack, "1", "2", 3)
	s := New(db)

	require.NoError(t, s.SetImage(context.Background(), it.ID, "/public/uploads/items/a.jpg"))
	got, err := s.GetItem(context.Background(), it.ID)
	require.NoError(t, err)
	assert.Equal(t, "/public/uploads/items/a.jpg", got.ImagePath)
	assert.ErrorIs(t, s.SetImage(context.Background(), 999, "x"), ErrNotFound)
}

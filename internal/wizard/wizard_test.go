package wizard

import (
	"context"
	"testing"

	"jem-backend/internal/catalog"
	"jem-backend/internal/dbtest"
	"jem-backend/internal/models"
	"jem-backend/internal/orders"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	wiz      *Wizard
	bundle   models.BundleType
	chips    models.Item
	plantain models.Item
	cola     models.Item
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.New(t)
	return &fixture{
		db:       db,
		wiz:      New(catalog.New(db), orders.NewService(db)),
		bundle:   dbtest.Bundle(t, db, "Duo", 2, 1),
		chips:    dbtest.Item(t, db, "Chips", models.CategorySnack, "1.00", "2.50", 5),
		plantain: dbtest.Item(t, db, "Plantain Chips", models.CategorySnack, "1.20", "3.00", 4),
		cola:     dbtest.Item(t, db, "Cola", models.CategoryJuice, "0.80", "2.00", 3),
	}
}

var customer = orders.CustomerInput{Name: "Keisha", Phone: "876-555-0101", PickupSpot: "Half Way Tree"}

// toReview walks a fresh state to REVIEW with one chips, one plantain and one cola.
func (f *fixture) toReview(t *testing.T) *State {
	ctx := context.Background()
	st := &State{}
	require.NoError(t, f.wiz.SelectBundle(ctx, st, f.bundle.ID))
	require.NoError(t, f.wiz.SelectSnacks(ctx, st, []orders.Line{
		{ItemID: f.chips.ID, Quantity: 1},
		{ItemID: f.plantain.ID, Quantity: 1},
	}))
	require.NoError(t, f.wiz.SelectJuices(ctx, st, []orders.Line{{ItemID: f.cola.ID, Quantity: 1}}))
	require.Equal(t, StepReview, st.Step)
	return st
}

func TestZeroStateStartsAtBundleSelection(t *testing.T) {
	var st State
	assert.Equal(t, StepSelectBundle, st.Current())
}

func TestSelectSnacksBeforeBundle(t *testing.T) {
	f := newFixture(t)
	st := &State{}

	err := f.wiz.SelectSnacks(context.Background(), st, []orders.Line{{ItemID: f.chips.ID, Quantity: 2}})
	assert.ErrorIs(t, err, ErrWrongStep)
	assert.Equal(t, StepSelectBundle, st.Current())
}

func TestFullFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.toReview(t)

	quote, err := f.wiz.Review(ctx, *st)
	require.NoError(t, err)
	assert.True(t, quote.Revenue.Equal(decimal.RequireFromString("7.50")), quote.Revenue.String())
	assert.True(t, quote.Cost.Equal(decimal.RequireFromString("3.00")), quote.Cost.String())
	assert.Len(t, quote.Lines, 3)

	order, err := f.wiz.Confirm(ctx, st, customer)
	require.NoError(t, err)
	assert.Equal(t, StepCommitted, st.Step)
	assert.Equal(t, order.Reference, st.LastOrderRef)
	assert.Zero(t, st.BundleID)
	assert.Empty(t, st.Snacks)
	assert.Empty(t, st.Juices)

	assert.Equal(t, 4, dbtest.Stock(t, f.db, f.chips.ID))
	assert.Equal(t, 3, dbtest.Stock(t, f.db, f.plantain.ID))
	assert.Equal(t, 2, dbtest.Stock(t, f.db, f.cola.ID))
}

func TestConfirmTwiceReturnsFirstOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.toReview(t)

	order, err := f.wiz.Confirm(ctx, st, customer)
	require.NoError(t, err)

	_, err = f.wiz.Confirm(ctx, st, customer)
	require.ErrorIs(t, err, ErrAlreadyCommitted)
	var ac *AlreadyCommittedError
	require.ErrorAs(t, err, &ac)
	assert.Equal(t, order.Reference, ac.Reference)
	assert.EqualValues(t, 1, dbtest.Count(t, f.db, &models.Order{}))
}

func TestConfirmFromStaleCopyOfState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.toReview(t)
	require.NotEmpty(t, st.SubmissionKey)

	// Two requests read the same session before either saved it.
	stale := *st
	order, err := f.wiz.Confirm(ctx, st, customer)
	require.NoError(t, err)

	_, err = f.wiz.Confirm(ctx, &stale, customer)
	var ac *AlreadyCommittedError
	require.ErrorAs(t, err, &ac)
	assert.Equal(t, order.Reference, ac.Reference)
	assert.Equal(t, State{Step: StepCommitted, LastOrderRef: order.Reference}, stale)
	assert.EqualValues(t, 1, dbtest.Count(t, f.db, &models.Order{}))
	assert.Equal(t, 4, dbtest.Stock(t, f.db, f.chips.ID))
}

func TestNewSelectionGetsNewSubmissionKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.toReview(t)
	first := st.SubmissionKey

	require.NoError(t, f.wiz.SelectJuices(ctx, st, []orders.Line{{ItemID: f.cola.ID, Quantity: 1}}))
	assert.NotEqual(t, first, st.SubmissionKey)

	require.NoError(t, f.wiz.SelectSnacks(ctx, st, []orders.Line{{ItemID: f.chips.ID, Quantity: 2}}))
	assert.Empty(t, st.SubmissionKey)
}

func TestNextOrderAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.toReview(t)
	_, err := f.wiz.Confirm(ctx, st, customer)
	require.NoError(t, err)

	require.NoError(t, f.wiz.SelectBundle(ctx, st, f.bundle.ID))
	assert.Equal(t, StepSelectSnacks, st.Step)
}

func TestSelectSnacksWrongCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := &State{}
	require.NoError(t, f.wiz.SelectBundle(ctx, st, f.bundle.ID))

	err := f.wiz.SelectSnacks(ctx, st, []orders.Line{{ItemID: f.chips.ID, Quantity: 1}})
	var ce *orders.CompositionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 2, ce.Required)
	assert.Equal(t, 1, ce.Selected)
	assert.Equal(t, "please select exactly 2 snacks, you selected 1", ce.Error())
	assert.Equal(t, StepSelectSnacks, st.Step)
	assert.Empty(t, st.Snacks)
}

func TestSelectSnacksRejectsJuice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := &State{}
	require.NoError(t, f.wiz.SelectBundle(ctx, st, f.bundle.ID))

	err := f.wiz.SelectSnacks(ctx, st, []orders.Line{
		{ItemID: f.chips.ID, Quantity: 1},
		{ItemID: f.cola.ID, Quantity: 1},
	})
	var ce *orders.CompositionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Cola", ce.ItemName)
}

func TestSelectSnacksOverStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	big := dbtest.Bundle(t, f.db, "Party", 6, 0)
	st := &State{}
	require.NoError(t, f.wiz.SelectBundle(ctx, st, big.ID))

	err := f.wiz.SelectSnacks(ctx, st, []orders.Line{{ItemID: f.chips.ID, Quantity: 6}})
	var se *orders.StockError
	require.ErrorAs(t, err, &se)
	require.Len(t, se.Shortages, 1)
	assert.Equal(t, 5, se.Shortages[0].Available)
	assert.Equal(t, StepSelectSnacks, st.Step)
}

func TestSelectSnacksMergesRepeatedItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := &State{}
	require.NoError(t, f.wiz.SelectBundle(ctx, st, f.bundle.ID))

	require.NoError(t, f.wiz.SelectSnacks(ctx, st, []orders.Line{
		{ItemID: f.chips.ID, Quantity: 1},
		{ItemID: f.chips.ID, Quantity: 1},
	}))
	assert.Equal(t, []orders.Line{{ItemID: f.chips.ID, Quantity: 2}}, st.Snacks)
}

func TestBundleWithoutJuices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	snacksOnly := dbtest.Bundle(t, f.db, "Snack Pack", 2, 0)
	st := &State{}
	require.NoError(t, f.wiz.SelectBundle(ctx, st, snacksOnly.ID))
	require.NoError(t, f.wiz.SelectSnacks(ctx, st, []orders.Line{{ItemID: f.chips.ID, Quantity: 2}}))
	require.NoError(t, f.wiz.SelectJuices(ctx, st, nil))
	assert.Equal(t, StepReview, st.Step)

	_, err := f.wiz.Confirm(ctx, st, customer)
	require.NoError(t, err)
	assert.Equal(t, 3, dbtest.Stock(t, f.db, f.chips.ID))
}

func TestReviseSnacksFromReview(t *testing.T) {
	f := newFixture(t)
	st := f.toReview(t)

	require.NoError(t, f.wiz.SelectSnacks(context.Background(), st, []orders.Line{{ItemID: f.plantain.ID, Quantity: 2}}))
	assert.Equal(t, StepSelectJuices, st.Step)
	assert.Nil(t, st.Juices)
}

func TestSelectInactiveBundle(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&f.bundle).Update("is_active", false).Error)

	err := f.wiz.SelectBundle(context.Background(), &State{}, f.bundle.ID)
	assert.ErrorIs(t, err, orders.ErrBundleInactive)
}

func TestSelectMissingBundle(t *testing.T) {
	f := newFixture(t)
	err := f.wiz.SelectBundle(context.Background(), &State{}, 999)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestConfirmInvalidCustomerStaysInReview(t *testing.T) {
	f := newFixture(t)
	st := f.toReview(t)

	_, err := f.wiz.Confirm(context.Background(), st, orders.CustomerInput{Name: "Keisha", Phone: "555-0101", PickupSpot: "Mall"})
	var ve *orders.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, StepReview, st.Step)
	assert.Len(t, st.Snacks, 2)
	assert.EqualValues(t, 0, dbtest.Count(t, f.db, &models.Order{}))
}

func TestConfirmStockGoneStaysInReview(t *testing.T) {
	f := newFixture(t)
	st := f.toReview(t)
	require.NoError(t, f.db.Model(&f.cola).UpdateColumn("current_stock", 0).Error)

	_, err := f.wiz.Confirm(context.Background(), st, customer)
	var se *orders.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StepReview, st.Step)
	assert.Equal(t, 5, dbtest.Stock(t, f.db, f.chips.ID))
}

func TestConfirmCompositionRewindsToCategory(t *testing.T) {
	f := newFixture(t)
	st := f.toReview(t)
	require.NoError(t, f.db.Model(&f.bundle).Update("required_juices", 2).Error)

	_, err := f.wiz.Confirm(context.Background(), st, customer)
	var ce *orders.CompositionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, models.CategoryJuice, ce.Category)
	assert.Equal(t, StepSelectJuices, st.Step)
	assert.Nil(t, st.Juices)
	assert.Len(t, st.Snacks, 2)
}

func TestConfirmOutsideReview(t *testing.T) {
	f := newFixture(t)
	st := &State{}
	require.NoError(t, f.wiz.SelectBundle(context.Background(), st, f.bundle.ID))

	_, err := f.wiz.Confirm(context.Background(), st, customer)
	assert.ErrorIs(t, err, ErrWrongStep)
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	st := f.toReview(t)
	st.Reset()
	assert.Equal(t, State{Step: StepSelectBundle}, *st)
}

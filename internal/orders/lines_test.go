package orders

import (
	"testing"

	"jem-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	got, err := Merge([]Line{{ItemID: 2, Quantity: 1}, {ItemID: 1, Quantity: 2}, {ItemID: 2, Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, []Line{{ItemID: 2, Quantity: 4}, {ItemID: 1, Quantity: 2}}, got)
	assert.Equal(t, 6, Total(got))
}

func TestMerge_RejectsNonPositiveQuantity(t *testing.T) {
	_, err := Merge([]Line{{ItemID: 1, Quantity: 0}})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestPrice_ZeroRevenueHasZeroMargin(t *testing.T) {
	items := map[uint]models.Item{1: {ID: 1, CostPrice: decimal.RequireFromString("1.00")}}
	tot := Price(items, []Line{{ItemID: 1, Quantity: 2}})
	assert.True(t, tot.Margin.IsZero())
	assert.True(t, tot.Profit.Equal(decimal.RequireFromString("-2")))
}

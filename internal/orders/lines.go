package orders

import (
	"fmt"

	"jem-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Line is one (item, quantity) pick. The same item may appear on several lines.
type Line struct {
	ItemID   uint `json:"item_id"`
	Quantity int  `json:"quantity"`
}

// Merge folds repeated items into one line each, keeping first-seen order.
func Merge(lines []Line) ([]Line, error) {
	idx := make(map[uint]int, len(lines))
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.ItemID == 0 {
			return nil, newValidationError("item_id", "item id is required")
		}
		if l.Quantity <= 0 {
			return nil, newValidationError("quantity", fmt.Sprintf("quantity for item %d must be greater than 0", l.ItemID))
		}
		if i, ok := idx[l.ItemID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ItemID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

func Total(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func ItemIDs(groups ...[]Line) []uint {
	seen := map[uint]bool{}
	var ids []uint
	for _, g := range groups {
		for _, l := range g {
			if !seen[l.ItemID] {
				seen[l.ItemID] = true
				ids = append(ids, l.ItemID)
			}
		}
	}
	return ids
}

// CheckComposition verifies the total count for one category.
func CheckComposition(bundle models.BundleType, c models.Category, lines []Line) error {
	if got, want := Total(lines), bundle.Required(c); got != want {
		return &CompositionError{Category: c, Required: want, Selected: got}
	}
	return nil
}

// CheckLines verifies that every (merged) line refers to an existing item of
// category c with enough stock. Category problems win over stock problems; all
// shortages are reported together.
func CheckLines(items map[uint]models.Item, c models.Category, lines []Line) error {
	var shortages []Shortage
	for _, l := range lines {
		it, ok := items[l.ItemID]
		if !ok {
			return newValidationError("item_id", fmt.Sprintf("item %d does not exist", l.ItemID))
		}
		if it.Category != c {
			return &CompositionError{Category: c, ItemName: it.Name}
		}
		if it.CurrentStock < l.Quantity {
			shortages = append(shortages, Shortage{
				ItemID:    it.ID,
				Name:      it.Name,
				Requested: l.Quantity,
				Available: it.CurrentStock,
			})
		}
	}
	if len(shortages) > 0 {
		return &StockError{Shortages: shortages}
	}
	return nil
}

// Totals holds the money figures of a selection.
type Totals struct {
	Revenue decimal.Decimal `json:"total_revenue"`
	Cost    decimal.Decimal `json:"total_cost"`
	Profit  decimal.Decimal `json:"net_profit"`
	// Margin is profit as a percentage of revenue, 0 when there is no revenue.
	Margin decimal.Decimal `json:"profit_margin"`
}

var hundred = decimal.NewFromInt(100)

func Price(items map[uint]models.Item, groups ...[]Line) Totals {
	var t Totals
	for _, g := range groups {
		for _, l := range g {
			it := items[l.ItemID]
			q := decimal.NewFromInt(int64(l.Quantity))
			t.Revenue = t.Revenue.Add(it.SellPrice.Mul(q))
			t.Cost = t.Cost.Add(it.CostPrice.Mul(q))
		}
	}
	t.Revenue = t.Revenue.Round(2)
	t.Cost = t.Cost.Round(2)
	t.Profit = t.Revenue.Sub(t.Cost)
	if t.Revenue.IsPositive() {
		t.Margin = t.Profit.Div(t.Revenue).Mul(hundred).Round(2)
	}
	return t
}

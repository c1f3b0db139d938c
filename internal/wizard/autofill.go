package wizard

import (
	"context"
	"fmt"
	"sort"

	"jem-backend/internal/models"
	"jem-backend/internal/orders"
)

// Autofill proposes a selection for category c that meets the bundle's required
// count. Favorites come first (one each, when in stock), then the items with the
// most stock. Any remaining quantity is spread round-robin, favorites first and
// cheapest next, without exceeding an item's stock. The state is not changed.
func (w *Wizard) Autofill(ctx context.Context, st State, c models.Category, favorites []uint) ([]orders.Line, error) {
	step := StepSelectSnacks
	if c == models.CategoryJuice {
		step = StepSelectJuices
	}
	allowed := []Step{step, StepReview}
	if c == models.CategorySnack {
		allowed = append(allowed, StepSelectJuices)
	}
	if err := allow(&st, fmt.Sprintf("autofill %s", c.Plural()), allowed...); err != nil {
		return nil, err
	}

	bundle, err := w.catalog.GetBundle(ctx, st.BundleID)
	if err != nil {
		return nil, err
	}
	need := bundle.Required(c)
	if need == 0 {
		return []orders.Line{}, nil
	}
	available, err := w.catalog.AvailableByStock(ctx, c)
	if err != nil {
		return nil, err
	}
	return fill(c, available, favorites, need)
}

type pick struct {
	item     models.Item
	qty      int
	favorite bool
}

func fill(c models.Category, available []models.Item, favorites []uint, need int) ([]orders.Line, error) {
	byID := make(map[uint]models.Item, len(available))
	for _, it := range available {
		byID[it.ID] = it
	}

	var picks []*pick
	chosen := map[uint]bool{}
	add := func(it models.Item, fav bool) {
		picks = append(picks, &pick{item: it, qty: 1, favorite: fav})
		chosen[it.ID] = true
	}

	for _, id := range favorites {
		if len(picks) == need {
			break
		}
		if it, ok := byID[id]; ok && !chosen[id] && it.CurrentStock > 0 {
			add(it, true)
		}
	}
	// available is ordered by stock, highest first.
	for _, it := range available {
		if len(picks) == need {
			break
		}
		if !chosen[it.ID] && it.CurrentStock > 0 {
			add(it, false)
		}
	}

	sort.SliceStable(picks, func(i, j int) bool {
		if picks[i].favorite != picks[j].favorite {
			return picks[i].favorite
		}
		return picks[i].item.CostPrice.LessThan(picks[j].item.CostPrice)
	})

	remaining := need - len(picks)
	for remaining > 0 {
		progressed := false
		for _, p := range picks {
			if remaining == 0 {
				break
			}
			if p.qty < p.item.CurrentStock {
				p.qty++
				remaining--
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	lines := make([]orders.Line, 0, len(picks))
	total := 0
	for _, p := range picks {
		lines = append(lines, orders.Line{ItemID: p.item.ID, Quantity: p.qty})
		total += p.qty
	}
	if total < need {
		return nil, &orders.StockError{Shortages: []orders.Shortage{{
			Name:      "available " + c.Plural(),
			Requested: need,
			Available: total,
		}}}
	}
	return lines, nil
}

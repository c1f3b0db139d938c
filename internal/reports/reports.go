// Package reports builds the read-only dashboard and accounting views.
package reports

import (
	"context"
	"fmt"
	"time"

	"jem-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const recentOrders = 10

const dateLayout = "2006-01-02"

// Range limits a report to [From, To]. A zero bound is open.
type Range struct {
	From time.Time
	To   time.Time
}

// ParseRange reads YYYY-MM-DD bounds. The end date is inclusive.
func ParseRange(start, end string) (Range, error) {
	var r Range
	var err error
	if start != "" {
		if r.From, err = time.Parse(dateLayout, start); err != nil {
			return r, fmt.Errorf("invalid start_date %q, use YYYY-MM-DD", start)
		}
	}
	if end != "" {
		if r.To, err = time.Parse(dateLayout, end); err != nil {
			return r, fmt.Errorf("invalid end_date %q, use YYYY-MM-DD", end)
		}
		r.To = r.To.Add(24*time.Hour - time.Nanosecond)
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return r, fmt.Errorf("end_date %s is before start_date %s", end, start)
	}
	return r, nil
}

func (r Range) apply(q *gorm.DB, column string) *gorm.DB {
	if !r.From.IsZero() {
		q = q.Where(column+" >= ?", r.From)
	}
	if !r.To.IsZero() {
		q = q.Where(column+" <= ?", r.To)
	}
	return q
}

type StockLevel struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Category     models.Category `json:"category"`
	CurrentStock int             `json:"current_stock"`
	LowStock     bool            `json:"low_stock"`
}

type Summary struct {
	TotalOrders   int64           `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
	AverageMargin decimal.Decimal `json:"average_margin"`
	Stock         []StockLevel    `json:"stock"`
	LowStock      []StockLevel    `json:"low_stock"`
	RecentOrders  []models.Order  `json:"recent_orders"`
}

type ExpenseCategory struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

type Accounting struct {
	Revenue    decimal.Decimal   `json:"revenue"`
	Expenses   decimal.Decimal   `json:"expenses"`
	Remaining  decimal.Decimal   `json:"remaining"`
	ByCategory []ExpenseCategory `json:"by_category"`
}

type Service struct {
	db        *gorm.DB
	threshold int
}

func NewService(db *gorm.DB, lowStockThreshold int) *Service {
	if lowStockThreshold <= 0 {
		lowStockThreshold = models.DefaultLowStockThreshold
	}
	return &Service{db: db, threshold: lowStockThreshold}
}

type orderTotals struct {
	Orders  int64
	Revenue decimal.NullDecimal
	Cost    decimal.NullDecimal
	Profit  decimal.NullDecimal
	Margin  decimal.NullDecimal
}

func (s *Service) Summary(ctx context.Context, r Range) (*Summary, error) {
	db := s.db.WithContext(ctx)

	var t orderTotals
	q := r.apply(db.Model(&models.Order{}), "created_at").
		Select("count(*) as orders, sum(total_revenue) as revenue, sum(total_cost) as cost, " +
			"sum(net_profit) as profit, avg(profit_margin) as margin")
	if err := q.Scan(&t).Error; err != nil {
		return nil, fmt.Errorf("order totals: %w", err)
	}

	sum := &Summary{
		TotalOrders:   t.Orders,
		TotalRevenue:  money(t.Revenue),
		TotalCost:     money(t.Cost),
		TotalProfit:   money(t.Profit),
		AverageMargin: money(t.Margin),
		Stock:         []StockLevel{},
		LowStock:      []StockLevel{},
	}

	var items []models.Item
	if err := db.Order("category").Order("name").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("stock levels: %w", err)
	}
	for _, it := range items {
		lvl := StockLevel{
			ID:           it.ID,
			Name:         it.Name,
			Category:     it.Category,
			CurrentStock: it.CurrentStock,
			LowStock:     it.IsLowStock(s.threshold),
		}
		sum.Stock = append(sum.Stock, lvl)
		if lvl.LowStock {
			sum.LowStock = append(sum.LowStock, lvl)
		}
	}

	recent := r.apply(db.Model(&models.Order{}), "created_at").
		Preload("Customer").Preload("BundleType").
		Order("created_at desc").Order("id desc").
		Limit(recentOrders)
	if err := recent.Find(&sum.RecentOrders).Error; err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	return sum, nil
}

// Accounting reports revenue against recorded expenses.
func (s *Service) Accounting(ctx context.Context, r Range) (*Accounting, error) {
	db := s.db.WithContext(ctx)

	var revenue decimal.NullDecimal
	row := r.apply(db.Model(&models.Order{}), "created_at").Select("sum(total_revenue)").Row()
	if err := row.Scan(&revenue); err != nil {
		return nil, fmt.Errorf("revenue: %w", err)
	}

	var cats []struct {
		Category string
		Total    decimal.NullDecimal
	}
	q := r.apply(db.Model(&models.Expense{}), "date").
		Select("category, sum(amount) as total").
		Group("category").Order("category")
	if err := q.Scan(&cats).Error; err != nil {
		return nil, fmt.Errorf("expenses by category: %w", err)
	}

	acc := &Accounting{Revenue: money(revenue), ByCategory: []ExpenseCategory{}}
	for _, c := range cats {
		total := money(c.Total)
		acc.Expenses = acc.Expenses.Add(total)
		acc.ByCategory = append(acc.ByCategory, ExpenseCategory{Category: c.Category, Total: total})
	}
	acc.Remaining = acc.Revenue.Sub(acc.Expenses)
	return acc, nil
}

// money normalizes aggregate results; sqlite may hand back floats.
func money(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal.Round(2)
}

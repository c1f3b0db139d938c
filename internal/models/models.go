package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ==========================================
// CATALOG
// ==========================================

type Category string

const (
	CategorySnack Category = "snack"
	CategoryJuice Category = "juice"
)

func (c Category) Valid() bool {
	return c == CategorySnack || c == CategoryJuice
}

// Plural is used in user-facing messages ("2 snacks").
func (c Category) Plural() string {
	return string(c) + "s"
}

// DefaultLowStockThreshold matches the dashboard rule: under 5 units is low.
const DefaultLowStockThreshold = 5

type Item struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"not null" json:"name"`
	Category     Category        `gorm:"type:varchar(10);not null;index" json:"category"`
	CostPerBag   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"cost_per_bag"`
	UnitsPerBag  int             `gorm:"not null;default:1" json:"units_per_bag"`
	CostPrice    decimal.Decimal `gorm:"type:numeric(10,4);not null" json:"cost_price"`
	SellPrice    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"sell_price"`
	CurrentStock int             `gorm:"not null;default:0;index;check:current_stock >= 0" json:"current_stock"`
	IsSpicy      bool            `gorm:"not null;default:false" json:"is_spicy"`
	ImagePath    string          `json:"image_path"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// BeforeSave derives the unit cost from the bag price. Only snacks can be spicy.
func (i *Item) BeforeSave(tx *gorm.DB) error {
	if i.UnitsPerBag > 0 {
		i.CostPrice = i.CostPerBag.Div(decimal.NewFromInt(int64(i.UnitsPerBag))).Round(4)
	}
	if i.Category != CategorySnack {
		i.IsSpicy = false
	}
	return nil
}

func (i Item) IsLowStock(threshold int) bool {
	return i.CurrentStock < threshold
}

func (i Item) ProfitPerUnit() decimal.Decimal {
	return i.SellPrice.Sub(i.CostPrice)
}

type BundleType struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"not null;unique" json:"name"`
	Description    string    `json:"description"`
	RequiredSnacks int       `gorm:"not null;default:0;check:required_snacks >= 0" json:"required_snacks"`
	RequiredJuices int       `gorm:"not null;default:0;check:required_juices >= 0" json:"required_juices"`
	IsActive       bool      `gorm:"not null" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Required returns how many units of the given category the bundle needs.
func (b BundleType) Required(c Category) int {
	switch c {
	case CategorySnack:
		return b.RequiredSnacks
	case CategoryJuice:
		return b.RequiredJuices
	}
	return 0
}

func (b BundleType) TotalItems() int {
	return b.RequiredSnacks + b.RequiredJuices
}

// ==========================================
// CUSTOMERS & ORDERS
// ==========================================

type Customer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Phone      string    `gorm:"type:varchar(20);not null;uniqueIndex" json:"phone"`
	PickupSpot string    `gorm:"not null" json:"pickup_spot"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Order is append-only: the money fields are computed once when it is created.
type Order struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Reference    string          `gorm:"type:varchar(36);not null;uniqueIndex" json:"reference"`
	CustomerID   uint            `gorm:"not null;index" json:"customer_id"`
	Customer     *Customer       `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT" json:"customer,omitempty"`
	BundleTypeID uint            `gorm:"not null;index" json:"bundle_type_id"`
	BundleType   *BundleType     `gorm:"foreignKey:BundleTypeID;constraint:OnDelete:RESTRICT" json:"bundle_type,omitempty"`
	TotalRevenue decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_revenue"`
	TotalCost    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_cost"`
	NetProfit    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"net_profit"`
	ProfitMargin decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"profit_margin"`

	// SubmissionKey makes repeated confirms of one wizard selection idempotent.
	SubmissionKey *string `gorm:"type:varchar(36);uniqueIndex" json:"-"`

	CreatedAt time.Time   `gorm:"index" json:"created_at"`
	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT" json:"items,omitempty"`
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;uniqueIndex:idx_order_item" json:"order_id"`
	ItemID    uint            `gorm:"not null;uniqueIndex:idx_order_item" json:"item_id"`
	Item      *Item           `gorm:"foreignKey:ItemID;constraint:OnDelete:RESTRICT" json:"item,omitempty"`
	Category  Category        `gorm:"type:varchar(10);not null" json:"category"`
	Quantity  int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitCost  decimal.Decimal `gorm:"type:numeric(10,4);not null" json:"unit_cost"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
}

func (oi OrderItem) Subtotal() decimal.Decimal {
	return oi.UnitPrice.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

func (oi OrderItem) Cost() decimal.Decimal {
	return oi.UnitCost.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

// ==========================================
// ACCOUNTING
// ==========================================

type Expense struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Title       string          `gorm:"not null" json:"title"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Category    string          `json:"category"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	CreatedByID *uint           `json:"created_by_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ==========================================
// AUTH & USERS
// ==========================================

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"not null;unique" json:"username"`

	// Stored as password_hash; never serialized.
	Password string `gorm:"column:password_hash;not null" json:"-"`

	Role      Role      `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Role  Role   `json:"role"`
}

// All lists every table for AutoMigrate, parents first.
func All() []interface{} {
	return []interface{}{
		&Item{},
		&BundleType{},
		&Customer{},
		&Order{},
		&OrderItem{},
		&Expense{},
		&User{},
	}
}

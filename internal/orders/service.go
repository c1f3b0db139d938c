// Package orders commits bundle orders: it re-validates the selection against
// current stock, decrements inventory and records the Order with its lines, all
// inside one database transaction.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jem-backend/internal/catalog"
	"jem-backend/internal/models"
	"jem-backend/internal/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerInput struct {
	Name       string `json:"name" validate:"required,max=200"`
	Phone      string `json:"phone" validate:"required,jmphone"`
	PickupSpot string `json:"pickup_spot" validate:"required,max=200"`
}

// Normalize trims the input and canonicalizes the phone number.
func (c CustomerInput) Normalize() (CustomerInput, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.PickupSpot = strings.TrimSpace(c.PickupSpot)
	c.Phone = strings.TrimSpace(c.Phone)
	if errs := validation.Struct(c); errs != nil {
		return c, &ValidationError{Fields: errs}
	}
	c.Phone, _ = validation.NormalizePhone(c.Phone)
	return c, nil
}

type Request struct {
	BundleTypeID uint
	Snacks       []Line
	Juices       []Line
	Customer     CustomerInput
	// SubmissionKey, when set, allows at most one order per key.
	SubmissionKey string
}

// Quote is a priced, validated view of a selection that has not been committed.
type Quote struct {
	Bundle models.BundleType  `json:"bundle"`
	Lines  []models.OrderItem `json:"lines"`
	Totals
}

type Service struct {
	db     *gorm.DB
	now    func() time.Time
	newRef func() string
}

func NewService(db *gorm.DB) *Service {
	return &Service{
		db:     db,
		now:    time.Now,
		newRef: uuid.NewString,
	}
}

// Quote prices the selection against current catalog data without writing.
func (s *Service) Quote(ctx context.Context, bundleID uint, snacks, juices []Line) (*Quote, error) {
	store := catalog.New(s.db)
	bundle, err := store.GetBundle(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	items, err := store.ItemsByID(ctx, ItemIDs(snacks, juices))
	if err != nil {
		return nil, err
	}
	for _, l := range append(append([]Line{}, snacks...), juices...) {
		if _, ok := items[l.ItemID]; !ok {
			return nil, newValidationError("item_id", fmt.Sprintf("item %d does not exist", l.ItemID))
		}
	}
	q := &Quote{Bundle: *bundle, Totals: Price(items, snacks, juices)}
	q.Lines = buildLines(items, snacks, juices)
	return q, nil
}

// Commit validates and persists the order. Either every stock decrement and
// record creation applies, or none does.
func (s *Service) Commit(ctx context.Context, req Request) (*models.Order, error) {
	customer, err := req.Customer.Normalize()
	if err != nil {
		return nil, err
	}
	snacks, err := Merge(req.Snacks)
	if err != nil {
		return nil, err
	}
	juices, err := Merge(req.Juices)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := catalog.New(tx)

		if req.SubmissionKey != "" {
			ref, err := submitted(tx, req.SubmissionKey)
			if err != nil {
				return err
			}
			if ref != "" {
				return &DuplicateSubmissionError{Reference: ref}
			}
		}

		bundle, err := store.GetBundle(ctx, req.BundleTypeID)
		if err != nil {
			return err
		}
		if !bundle.IsActive {
			return fmt.Errorf("bundle type %d: %w", bundle.ID, ErrBundleInactive)
		}
		if err := CheckComposition(*bundle, models.CategorySnack, snacks); err != nil {
			return err
		}
		if err := CheckComposition(*bundle, models.CategoryJuice, juices); err != nil {
			return err
		}

		items, err := store.ItemsByID(ctx, ItemIDs(snacks, juices))
		if err != nil {
			return err
		}
		if err := checkAll(items, snacks, juices); err != nil {
			return err
		}

		// Guarded decrement: a concurrent commit may have taken the stock since the read.
		for _, l := range append(append([]Line{}, snacks...), juices...) {
			ok, err := store.DecrementStock(ctx, l.ItemID, l.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				current, err := store.GetItem(ctx, l.ItemID)
				if err != nil {
					return err
				}
				return &StockError{Shortages: []Shortage{{
					ItemID:    l.ItemID,
					Name:      current.Name,
					Requested: l.Quantity,
					Available: current.CurrentStock,
				}}}
			}
		}

		cust, err := upsertCustomer(tx, customer)
		if err != nil {
			return err
		}

		totals := Price(items, snacks, juices)
		order = &models.Order{
			SubmissionKey: submissionKey(req.SubmissionKey),
			Reference:     s.newRef(),
			CustomerID:    cust.ID,
			BundleTypeID:  bundle.ID,
			TotalRevenue:  totals.Revenue,
			TotalCost:     totals.Cost,
			NetProfit:     totals.Profit,
			ProfitMargin:  totals.Margin,
			CreatedAt:     s.now(),
			Items:         buildLines(items, snacks, juices),
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		order.Customer = cust
		order.BundleType = bundle
		return nil
	})
	if err != nil {
		// A concurrent commit with the same key may have won the race; whatever
		// stopped this one, answer with the order that exists.
		var dup *DuplicateSubmissionError
		if req.SubmissionKey != "" && !errors.As(err, &dup) {
			if ref, lookupErr := submitted(s.db.WithContext(ctx), req.SubmissionKey); lookupErr == nil && ref != "" {
				return nil, &DuplicateSubmissionError{Reference: ref}
			}
		}
		return nil, err
	}
	return order, nil
}

// submitted returns the reference of the order placed with key, or "".
func submitted(db *gorm.DB, key string) (string, error) {
	var refs []string
	if err := db.Model(&models.Order{}).Where("submission_key = ?", key).Limit(1).Pluck("reference", &refs).Error; err != nil {
		return "", fmt.Errorf("find submission %s: %w", key, err)
	}
	if len(refs) == 0 {
		return "", nil
	}
	return refs[0], nil
}

func submissionKey(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}

// checkAll runs the per-category checks and merges shortages across categories
// so the user sees every problem at once.
func checkAll(items map[uint]models.Item, snacks, juices []Line) error {
	var shortages []Shortage
	for _, g := range []struct {
		c     models.Category
		lines []Line
	}{{models.CategorySnack, snacks}, {models.CategoryJuice, juices}} {
		err := CheckLines(items, g.c, g.lines)
		var se *StockError
		switch {
		case err == nil:
		case errors.As(err, &se):
			shortages = append(shortages, se.Shortages...)
		default:
			return err
		}
	}
	if len(shortages) > 0 {
		return &StockError{Shortages: shortages}
	}
	return nil
}

func buildLines(items map[uint]models.Item, groups ...[]Line) []models.OrderItem {
	var out []models.OrderItem
	for _, g := range groups {
		for _, l := range g {
			it := items[l.ItemID]
			out = append(out, models.OrderItem{
				ItemID:    l.ItemID,
				Category:  it.Category,
				Quantity:  l.Quantity,
				UnitCost:  it.CostPrice,
				UnitPrice: it.SellPrice,
			})
		}
	}
	return out
}

// upsertCustomer finds the customer by phone, refreshing name and pickup spot.
func upsertCustomer(tx *gorm.DB, in CustomerInput) (*models.Customer, error) {
	var c models.Customer
	err := tx.Where("phone = ?", in.Phone).First(&c).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c = models.Customer{Name: in.Name, Phone: in.Phone, PickupSpot: in.PickupSpot}
		if err := tx.Create(&c).Error; err != nil {
			return nil, fmt.Errorf("create customer: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("find customer: %w", err)
	default:
		c.Name = in.Name
		c.PickupSpot = in.PickupSpot
		if err := tx.Save(&c).Error; err != nil {
			return nil, fmt.Errorf("update customer: %w", err)
		}
	}
	return &c, nil
}

func (s *Service) FindByReference(ctx context.Context, ref string) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Preload("Customer").Preload("BundleType").Preload("Items.Item").
		Where("reference = ?", ref).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", ref, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("find order %s: %w", ref, err)
	}
	return &o, nil
}

// List returns orders newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []models.Order
	err := s.db.WithContext(ctx).
		Preload("Customer").Preload("BundleType").
		Order("created_at desc").Order("id desc").
		Limit(limit).Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

// Package catalog is the data-access layer for Items and BundleTypes.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"jem-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrInUse is returned when a change would break historical orders.
	ErrInUse = errors.New("record is referenced by existing orders")
	// ErrDuplicate is returned when a unique name is already taken.
	ErrDuplicate = errors.New("record with this name already exists")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a Store bound to an open transaction.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

type ItemFilter struct {
	Category    models.Category
	InStockOnly bool
}

func (s *Store) ListItems(ctx context.Context, f ItemFilter) ([]models.Item, error) {
	q := s.db.WithContext(ctx).Model(&models.Item{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.InStockOnly {
		q = q.Where("current_stock > 0")
	}
	var items []models.Item
	if err := q.Order("category").Order("name").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// AvailableByStock lists in-stock items of one category, highest stock first.
func (s *Store) AvailableByStock(ctx context.Context, c models.Category) ([]models.Item, error) {
	var items []models.Item
	err := s.db.WithContext(ctx).
		Where("category = ? AND current_stock > 0", c).
		Order("current_stock desc").Order("id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("available %s: %w", c.Plural(), err)
	}
	return items, nil
}

func (s *Store) GetItem(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return &item, nil
}

// ItemsByID loads the given items keyed by id. Missing ids are simply absent.
func (s *Store) ItemsByID(ctx context.Context, ids []uint) (map[uint]models.Item, error) {
	out := make(map[uint]models.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.Item
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

// SaveItem persists an edited item. The category is fixed once created, and
// stock only moves through AddStock and DecrementStock.
func (s *Store) SaveItem(ctx context.Context, item *models.Item) error {
	existing, err := s.GetItem(ctx, item.ID)
	if err != nil {
		return err
	}
	item.Category = existing.Category
	item.CreatedAt = existing.CreatedAt
	item.CurrentStock = existing.CurrentStock
	if err := s.db.WithContext(ctx).Omit("current_stock").Save(item).Error; err != nil {
		return fmt.Errorf("save item %d: %w", item.ID, err)
	}
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&models.OrderItem{}).Where("item_id = ?", id).Count(&refs).Error; err != nil {
			return fmt.Errorf("count item references: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("item %d: %w", id, ErrInUse)
		}
		res := tx.Delete(&models.Item{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete item %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("item %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// AddStock increases stock atomically and returns the updated item.
func (s *Store) AddStock(ctx context.Context, id uint, qty int) (*models.Item, error) {
	res := s.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ?", id).
		UpdateColumn("current_stock", gorm.Expr("current_stock + ?", qty))
	if res.Error != nil {
		return nil, fmt.Errorf("add stock to item %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return s.GetItem(ctx, id)
}

// DecrementStock removes qty units only if at least qty are on hand.
// It reports false, without error, when the guard fails.
func (s *Store) DecrementStock(ctx context.Context, id uint, qty int) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ? AND current_stock >= ?", id, qty).
		UpdateColumn("current_stock", gorm.Expr("current_stock - ?", qty))
	if res.Error != nil {
		return false, fmt.Errorf("decrement stock of item %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) SetImage(ctx context.Context, id uint, path string) error {
	res := s.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", id).UpdateColumn("image_path", path)
	if res.Error != nil {
		return fmt.Errorf("set image of item %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return nil
}

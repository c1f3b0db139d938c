package catalog

import (
	"context"
	"errors"
	"fmt"

	"jem-backend/internal/models"

	"gorm.io/gorm"
)

func (s *Store) ListBundles(ctx context.Context, activeOnly bool) ([]models.BundleType, error) {
	q := s.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var bundles []models.BundleType
	if err := q.Order("name").Find(&bundles).Error; err != nil {
		return nil, fmt.Errorf("list bundle types: %w", err)
	}
	return bundles, nil
}

func (s *Store) GetBundle(ctx context.Context, id uint) (*models.BundleType, error) {
	var b models.BundleType
	if err := s.db.WithContext(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("bundle type %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get bundle type %d: %w", id, err)
	}
	return &b, nil
}

func (s *Store) CreateBundle(ctx context.Context, b *models.BundleType) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := uniqueBundleName(tx, b.Name, 0); err != nil {
			return err
		}
		if err := tx.Create(b).Error; err != nil {
			return fmt.Errorf("create bundle type: %w", err)
		}
		return nil
	})
}

// SaveBundle updates a bundle type. The required counts are frozen once any
// order references the bundle; name, description and the active flag stay editable.
func (s *Store) SaveBundle(ctx context.Context, b *models.BundleType) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.BundleType
		if err := tx.First(&existing, b.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("bundle type %d: %w", b.ID, ErrNotFound)
			}
			return fmt.Errorf("get bundle type %d: %w", b.ID, err)
		}
		if err := uniqueBundleName(tx, b.Name, b.ID); err != nil {
			return err
		}
		if existing.RequiredSnacks != b.RequiredSnacks || existing.RequiredJuices != b.RequiredJuices {
			refs, err := bundleRefs(tx, b.ID)
			if err != nil {
				return err
			}
			if refs > 0 {
				return fmt.Errorf("bundle type %d counts: %w", b.ID, ErrInUse)
			}
		}
		b.CreatedAt = existing.CreatedAt
		if err := tx.Save(b).Error; err != nil {
			return fmt.Errorf("save bundle type %d: %w", b.ID, err)
		}
		return nil
	})
}

func (s *Store) DeleteBundle(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		refs, err := bundleRefs(tx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("bundle type %d: %w", id, ErrInUse)
		}
		res := tx.Delete(&models.BundleType{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete bundle type %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("bundle type %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

func bundleRefs(tx *gorm.DB, id uint) (int64, error) {
	var n int64
	if err := tx.Model(&models.Order{}).Where("bundle_type_id = ?", id).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count bundle references: %w", err)
	}
	return n, nil
}

func uniqueBundleName(tx *gorm.DB, name string, exceptID uint) error {
	var n int64
	q := tx.Model(&models.BundleType{}).Where("name = ?", name)
	if exceptID != 0 {
		q = q.Where("id != ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return fmt.Errorf("check bundle name: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("bundle type %q: %w", name, ErrDuplicate)
	}
	return nil
}

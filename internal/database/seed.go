package database

import (
	"errors"
	"fmt"
	"io"
	"log"

	"jem-backend/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// CatalogFile is the YAML layout of a starter catalog.
type CatalogFile struct {
	Items []struct {
		Name        string          `yaml:"name"`
		Category    models.Category `yaml:"category"`
		CostPerBag  string          `yaml:"cost_per_bag"`
		UnitsPerBag int             `yaml:"units_per_bag"`
		SellPrice   string          `yaml:"sell_price"`
		Stock       int             `yaml:"stock"`
		Spicy       bool            `yaml:"spicy"`
	} `yaml:"items"`
	Bundles []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Snacks      int    `yaml:"snacks"`
		Juices      int    `yaml:"juices"`
	} `yaml:"bundles"`
}

// SeedCatalog inserts the items and bundle types from r. Entries whose name
// already exists are left untouched, so the seed can be re-run.
func SeedCatalog(db *gorm.DB, r io.Reader) error {
	var f CatalogFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		added := 0
		for _, in := range f.Items {
			if !in.Category.Valid() {
				return fmt.Errorf("item %q: unknown category %q", in.Name, in.Category)
			}
			cost, err := decimal.NewFromString(in.CostPerBag)
			if err != nil {
				return fmt.Errorf("item %q cost_per_bag: %w", in.Name, err)
			}
			sell, err := decimal.NewFromString(in.SellPrice)
			if err != nil {
				return fmt.Errorf("item %q sell_price: %w", in.Name, err)
			}
			units := in.UnitsPerBag
			if units <= 0 {
				units = 1
			}
			item := models.Item{
				Name:         in.Name,
				Category:     in.Category,
				CostPerBag:   cost,
				UnitsPerBag:  units,
				SellPrice:    sell,
				CurrentStock: in.Stock,
				IsSpicy:      in.Spicy,
			}
			ok, err := createUnlessNamed(tx, &models.Item{}, in.Name, &item)
			if err != nil {
				return fmt.Errorf("seed item %q: %w", in.Name, err)
			}
			if ok {
				added++
			}
		}
		for _, in := range f.Bundles {
			b := models.BundleType{
				Name:           in.Name,
				Description:    in.Description,
				RequiredSnacks: in.Snacks,
				RequiredJuices: in.Juices,
				IsActive:       true,
			}
			ok, err := createUnlessNamed(tx, &models.BundleType{}, in.Name, &b)
			if err != nil {
				return fmt.Errorf("seed bundle %q: %w", in.Name, err)
			}
			if ok {
				added++
			}
		}
		log.Printf("Catalog seed: %d new rows (%d items, %d bundles in file)", added, len(f.Items), len(f.Bundles))
		return nil
	})
}

func createUnlessNamed(tx *gorm.DB, model interface{}, name string, row interface{}) (bool, error) {
	var n int64
	if err := tx.Model(model).Where("name = ?", name).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	return true, tx.Create(row).Error
}

// EnsureAdmin creates the first admin account if no user with that name exists.
// hash must already be a bcrypt hash.
func EnsureAdmin(db *gorm.DB, username, hash string) (bool, error) {
	var u models.User
	err := db.Where("username = ?", username).First(&u).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("find user %q: %w", username, err)
	}
	u = models.User{Username: username, Password: hash, Role: models.RoleAdmin}
	if err := db.Create(&u).Error; err != nil {
		return false, fmt.Errorf("create admin %q: %w", username, err)
	}
	return true, nil
}

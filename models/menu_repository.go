package models

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MenuRepository struct {
	db *gorm.DB
}

var (
	// ErrCategoryNotFound is returned when no category has the requested name.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrItemNotFound is returned when the targeted item does not exist.
	ErrItemNotFound = errors.New("item not found")
)

// BatchDeleteStatus reports what happened to one pair of a batch delete.
type BatchDeleteStatus string

const (
	BatchDeleted          BatchDeleteStatus = "deleted"
	BatchNotFound         BatchDeleteStatus = "not_found"
	BatchCategoryNotFound BatchDeleteStatus = "category_not_found"
)

type BatchDeleteTarget struct {
	Category string
	ItemID   uint
}

type BatchDeleteResult struct {
	Category string
	ItemID   uint
	Status   BatchDeleteStatus
}

func NewMenuRepository(db *gorm.DB) *MenuRepository {
	return &MenuRepository{
		db: db,
	}
}

// ListMenu returns every category ordered by id, each with its items ordered by id.
func (r *MenuRepository) ListMenu(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("items.id")
		}).
		Order("categories.id").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *MenuRepository) ListFeatured(ctx context.Context) ([]Item, error) {
	var items []Item
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("featured = ?", true).
		Order("items.id").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MenuRepository) GetItem(ctx context.Context, id uint) (*Item, error) {
	var item Item
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("id = ?", id).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *MenuRepository) ListCategories(ctx context.Context) ([]CategorySummary, error) {
	var summaries []CategorySummary
	if err := r.db.WithContext(ctx).
		Model(&Category{}).
		Select("categories.id, categories.name, COUNT(items.id) AS item_count").
		Joins("LEFT JOIN items ON items.category_id = categories.id").
		Group("categories.id, categories.name").
		Order("categories.id").
		Scan(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

// EnsureCategory returns the category with the given name, creating it if needed.
// The boolean reports whether a new row was inserted.
func (r *MenuRepository) EnsureCategory(ctx context.Context, name string) (*Category, bool, error) {
	var (
		category *Category
		created  bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		category, created, err = findOrCreateCategory(tx, name)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return category, created, nil
}

// CreateItem resolves the item's category by name (creating it when absent) and
// inserts the item. beforeCommit, when non-nil, runs after the insert and before
// the commit; returning an error rolls the whole operation back.
func (r *MenuRepository) CreateItem(ctx context.Context, categoryName string, item *Item, beforeCommit func() error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, _, err := findOrCreateCategory(tx, categoryName)
		if err != nil {
			return err
		}

		item.CategoryID = category.ID
		if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
			return err
		}
		item.Category = *category

		if beforeCommit != nil {
			return beforeCommit()
		}
		return nil
	})
}

// SetFeatured stores the featured flag of an item. Setting the current value again
// is not an error.
func (r *MenuRepository) SetFeatured(ctx context.Context, id uint, featured bool) error {
	res := r.db.WithContext(ctx).
		Model(&Item{}).
		Where("id = ?", id).
		Update("featured", featured)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// DeleteBatch deletes each (category, item id) pair independently and reports the
// outcome per pair. Unknown categories and items are reported, never returned as errors.
func (r *MenuRepository) DeleteBatch(ctx context.Context, targets []BatchDeleteTarget) ([]BatchDeleteResult, error) {
	results := make([]BatchDeleteResult, 0, len(targets))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make(map[string]uint)
		for _, t := range targets {
			result := BatchDeleteResult{Category: t.Category, ItemID: t.ItemID}

			categoryID, ok := ids[t.Category]
			if !ok {
				category, err := findCategory(tx, t.Category)
				if errors.Is(err, ErrCategoryNotFound) {
					result.Status = BatchCategoryNotFound
					results = append(results, result)
					continue
				}
				if err != nil {
					return err
				}
				categoryID = category.ID
				ids[t.Category] = categoryID
			}

			res := tx.Where("id = ? AND category_id = ?", t.ItemID, categoryID).Delete(&Item{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				result.Status = BatchNotFound
			} else {
				result.Status = BatchDeleted
			}
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteCategory removes all items of the named category and then the category
// itself. It returns the number of items removed.
func (r *MenuRepository) DeleteCategory(ctx context.Context, name string) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := findCategory(tx, name)
		if err != nil {
			return err
		}

		res := tx.Where("category_id = ?", category.ID).Delete(&Item{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected

		return tx.Delete(&Category{}, category.ID).Error
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *MenuRepository) DeleteItemByID(ctx context.Context, categoryName string, id uint) error {
	db := r.db.WithContext(ctx)
	category, err := findCategory(db, categoryName)
	if err != nil {
		return err
	}

	res := db.Where("id = ? AND category_id = ?", id, category.ID).Delete(&Item{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *MenuRepository) DeleteItemByName(ctx context.Context, categoryName, itemName string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := findCategory(tx, categoryName)
		if err != nil {
			return err
		}

		var item Item
		if err := tx.
			Where("name = ? AND category_id = ?", itemName, category.ID).
			Order("id").
			First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return err
		}

		return tx.Delete(&Item{}, item.ID).Error
	})
}

func findCategory(db *gorm.DB, name string) (*Category, error) {
	var category Category
	if err := db.Where("name = ?", name).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// findOrCreateCategory relies on the unique index on categories.name, so two
// concurrent requests for the same new name end up sharing one row.
func findOrCreateCategory(tx *gorm.DB, name string) (*Category, bool, error) {
	category := Category{Name: name}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&category)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return &category, true, nil
	}

	existing, err := findCategory(tx, name)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

package services

import (
	"context"
	"strings"

	apperrors "moneyflow/internal/errors"
	"moneyflow/internal/models"

	"gorm.io/gorm"
)

// DefaultCategories are created by SeedDefaults on an empty ledger.
var DefaultCategories = []models.Category{
	{Name: "Food", Type: models.CategoryTypeExpense, Color: "#FF5733"},
	{Name: "Salary", Type: models.CategoryTypeIncome, Color: "#33FF57"},
	{Name: "Transport", Type: models.CategoryTypeExpense, Color: "#3357FF"},
}

// categoryService handles category-related business logic.
type categoryService struct {
	db    *gorm.DB
	guard *LedgerGuard
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, guard *LedgerGuard) CategoryServicer {
	return &categoryService{db: db, guard: guard}
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(ctx context.Context, name string, categoryType models.CategoryType, color string) (*models.Category, error) {
	var category *models.Category
	err := s.guard.withWrite(ctx, func() error {
		var err error
		category, err = createCategory(s.db.WithContext(ctx), name, categoryType, color)
		return err
	})
	return category, err
}

// GetCategoryByID retrieves a category by ID
func (s *categoryService) GetCategoryByID(ctx context.Context, categoryID string) (*models.Category, error) {
	var category *models.Category
	err := s.guard.withRead(ctx, func() error {
		var err error
		category, err = findCategory(s.db.WithContext(ctx), categoryID)
		return err
	})
	return category, err
}

// ListCategories returns all categories, optionally narrowed to one type,
// ordered by type then name.
func (s *categoryService) ListCategories(ctx context.Context, categoryType *models.CategoryType) ([]models.Category, error) {
	if categoryType != nil && !categoryType.Valid() {
		return nil, apperrors.WithField(apperrors.ErrInvalidCategoryType, "type", "")
	}

	categories := []models.Category{}
	err := s.guard.withRead(ctx, func() error {
		q := s.db.WithContext(ctx).Model(&models.Category{})
		if categoryType != nil {
			q = q.Where("type = ?", *categoryType)
		}
		if err := q.Order("type ASC, name ASC, id ASC").Find(&categories).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// UpdateCategory renames or recolors a category. Its type is fixed because
// existing entries rely on it matching their own type.
func (s *categoryService) UpdateCategory(ctx context.Context, categoryID string, name, color *string) (*models.Category, error) {
	var category *models.Category
	err := s.guard.withWrite(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			category, err = findCategory(tx, categoryID)
			if err != nil {
				return err
			}

			updates := make(map[string]any)
			if name != nil {
				n := strings.TrimSpace(*name)
				if n == "" {
					return apperrors.WithField(apperrors.ErrInvalidInput, "name", "category name cannot be empty")
				}
				if !strings.EqualFold(n, category.Name) {
					var count int64
					if err := tx.Model(&models.Category{}).
						Where("LOWER(name) = LOWER(?) AND type = ? AND id <> ?", n, category.Type, categoryID).
						Count(&count).Error; err != nil {
						return apperrors.Wrap(apperrors.ErrInternalServer, err)
					}
					if count > 0 {
						return apperrors.WithField(apperrors.ErrDuplicateCategory, "name", "")
					}
				}
				updates["name"] = n
			}
			if color != nil {
				updates["color"] = *color
			}

			if len(updates) == 0 {
				return nil
			}
			if err := tx.Model(category).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			category, err = findCategory(tx, categoryID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory deletes a category that no entry references.
func (s *categoryService) DeleteCategory(ctx context.Context, categoryID string) error {
	return s.guard.withWrite(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			category, err := findCategory(tx, categoryID)
			if err != nil {
				return err
			}

			var refs int64
			if err := tx.Model(&models.Transaction{}).Where("category_id = ?", categoryID).Count(&refs).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if refs > 0 {
				return apperrors.WithResource(apperrors.ErrCategoryInUse, categoryID)
			}

			if err := tx.Delete(category).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		})
	})
}

// SeedDefaults creates DefaultCategories when no category exists yet and
// returns the categories it created (none on a populated ledger).
func (s *categoryService) SeedDefaults(ctx context.Context) ([]models.Category, error) {
	created := []models.Category{}
	err := s.guard.withWrite(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.Category{}).Count(&count).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if count > 0 {
				return nil
			}
			for _, def := range DefaultCategories {
				c, err := createCategory(tx, def.Name, def.Type, def.Color)
				if err != nil {
					return err
				}
				created = append(created, *c)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

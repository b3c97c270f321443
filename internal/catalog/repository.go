package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
	"github.com/mayakapoor/aurelia-backend/pkg/pagination"
)

// Repository encapsulates catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListFilter narrows the product listing.
type ListFilter struct {
	Category string
	Featured bool
	Search   string
	Cursor   string
	Limit    int
}

// List returns active products ordered newest-first with cursor pagination.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, string, error) {
	normalizedLimit := pagination.NormalizeLimit(filter.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(filter.Limit)

	decodedCursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ?", true)

	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if filter.Featured {
		query = query.Where("is_featured = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(sku) LIKE ?", pattern, pattern)
	}
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Product
	err = query.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > normalizedLimit {
		rows = rows[:normalizedLimit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return rows, nextCursor, nil
}

// FindByRef resolves a parsed product reference to an active product.
func (r *Repository) FindByRef(ctx context.Context, ref ProductRef) (*models.Product, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	var product models.Product

	switch ref.Kind {
	case RefByID:
		query = query.Where("id = ?", ref.ID)
	default:
		query = query.Where("slug = ? OR sku = ?", ref.Text, ref.Text)
	}

	if err := query.First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByID loads a single product regardless of active state.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads the products for the given ids. Missing ids are simply
// absent from the result, the caller decides how to treat the gap.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	result := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, product := range rows {
		result[product.ID] = product
	}
	return result, nil
}

// Categories returns the distinct categories of active products.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ?", true).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

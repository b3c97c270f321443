package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
)

// Repository encapsulates address book persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an address repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// List returns the user's addresses, default shipping first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default_shipping DESC").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// Find loads one address owned by the user.
func (r *Repository) Find(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	var row models.Address
	err := r.db.WithContext(ctx).
		First(&row, "id = ? AND user_id = ?", addressID, userID).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindDefaultShipping returns the user's default shipping address when set.
func (r *Repository) FindDefaultShipping(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	var row models.Address
	err := r.db.WithContext(ctx).
		First(&row, "user_id = ? AND is_default_shipping = ?", userID, true).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Insert persists a new address.
func (r *Repository) Insert(ctx context.Context, row *models.Address) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// Update saves the full address row.
func (r *Repository) Update(ctx context.Context, row *models.Address) error {
	return r.db.WithContext(ctx).Save(row).Error
}

// Delete removes the address owned by the user.
func (r *Repository) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&models.Address{}).Error
}

// SetDefaultShipping marks one address as the shipping default and unsets the
// flag everywhere else in the same transaction, keeping at most one default.
func (r *Repository) SetDefaultShipping(ctx context.Context, userID, addressID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Address{}).
			Where("user_id = ? AND id <> ?", userID, addressID).
			UpdateColumn("is_default_shipping", false).Error; err != nil {
			return err
		}
		result := tx.Model(&models.Address{}).
			Where("user_id = ? AND id = ?", userID, addressID).
			UpdateColumn("is_default_shipping", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// CountByUser reports how many addresses the user has saved.
func (r *Repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

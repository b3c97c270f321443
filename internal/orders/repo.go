package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mayakapoor/aurelia-backend/pkg/db/models"
	"github.com/mayakapoor/aurelia-backend/pkg/enums"
	"github.com/mayakapoor/aurelia-backend/pkg/pagination"
)

// Repository encapsulates order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Insert persists the order together with its item snapshots. A unique
// violation on ux_orders_order_number surfaces to the caller, which retries
// with a freshly allocated number.
func (r *Repository) Insert(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// InsertTx persists the order on the caller's transaction so checkout can pair
// it with the outbox write.
func (r *Repository) InsertTx(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

// ExistsByNumber reports whether an order already carries the number.
func (r *Repository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_number = ?", number).
		Count(&count).Error
	return count > 0, err
}

// FindByID loads an order with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindForUser loads an order only when it belongs to the user.
func (r *Repository) FindForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ? AND user_id = ?", orderID, userID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByNumber loads an order by its human-readable number.
func (r *Repository) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "order_number = ?", number).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns the user's orders newest-first with cursor pagination.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	decodedCursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Where("user_id = ?", userID)

	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Order
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

// MarkPaid transitions the order to paid/processing and records the gateway
// references. Statuses and paid_at are set together so a crash cannot leave a
// half-confirmed order.
func (r *Repository) MarkPaid(ctx context.Context, orderID uuid.UUID, providerOrderID, paymentID, signature *string, paidAt time.Time) error {
	return markPaid(ctx, r.db, orderID, providerOrderID, paymentID, signature, paidAt)
}

// MarkPaidTx is MarkPaid on the caller's transaction, so the status flip and
// the order.paid outbox write commit or roll back together.
func (r *Repository) MarkPaidTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, providerOrderID, paymentID, signature *string, paidAt time.Time) error {
	return markPaid(ctx, tx, orderID, providerOrderID, paymentID, signature, paidAt)
}

func markPaid(ctx context.Context, db *gorm.DB, orderID uuid.UUID, providerOrderID, paymentID, signature *string, paidAt time.Time) error {
	updates := map[string]any{
		"payment_status": enums.PaymentStatusPaid,
		"order_status":   enums.OrderStatusProcessing,
		"paid_at":        paidAt,
	}
	if providerOrderID != nil {
		updates["payment_provider_order_id"] = *providerOrderID
	}
	if paymentID != nil {
		updates["payment_provider_payment_id"] = *paymentID
	}
	if signature != nil {
		updates["payment_provider_signature"] = *signature
	}
	return db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

// SetProviderOrderID stores the gateway order reference after a successful
// gateway create that happened outside the order insert transaction.
func (r *Repository) SetProviderOrderID(ctx context.Context, orderID uuid.UUID, providerOrderID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("payment_provider_order_id", providerOrderID).Error
}

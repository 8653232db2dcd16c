package qrcodes

import (
	"context"
	"errors"

	"github.com/angelmondragon/shopqr-backend/pkg/db/models"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Repository encapsulates QR code persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a QR code repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a single QR code; an absent row is reported as (nil, nil).
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.QRCode, error) {
	var record models.QRCode
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListByShop returns all QR codes owned by a shop, newest first.
func (r *Repository) ListByShop(ctx context.Context, shop string) ([]models.QRCode, error) {
	var records []models.QRCode
	err := r.db.WithContext(ctx).
		Where("shop = ?", shop).
		Order("id DESC").
		Find(&records).
		Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Create inserts the record and populates its generated ID and timestamps.
func (r *Repository) Create(ctx context.Context, record *models.QRCode) error {
	normalizeVariants(record)
	return r.db.WithContext(ctx).Create(record).Error
}

// Update replaces the writable columns of an existing record. Columns are
// allow-listed so callers cannot touch shop ownership or the scan counter.
func (r *Repository) Update(ctx context.Context, record *models.QRCode) error {
	normalizeVariants(record)
	result := r.db.WithContext(ctx).
		Model(&models.QRCode{}).
		Where("id = ?", record.ID).
		Select("title", "product_id", "product_handle", "product_variant_ids", "destination", "updated_at").
		Updates(record)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the record if it exists.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.QRCode{}, "id = ?", id).Error
}

// A nil slice would serialize to SQL NULL and trip the NOT NULL constraint.
func normalizeVariants(record *models.QRCode) {
	if record.ProductVariantIDs == nil {
		record.ProductVariantIDs = pq.StringArray{}
	}
}

// IncrementScans bumps the scan counter in a single SQL statement so
// concurrent scans never lose increments.
func (r *Repository) IncrementScans(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&models.QRCode{}).
		Where("id = ?", id).
		UpdateColumn("scans", gorm.Expr("scans + ?", 1)).
		Error
}

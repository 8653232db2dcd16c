package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/angelmondragon/shopqr-backend/pkg/enums"
)

// QRCode is the persisted deep-link record owned by a merchant shop.
// IDs are monotonically increasing, so listing by id descending yields
// reverse insertion order.
type QRCode struct {
	ID                int64               `gorm:"column:id;primaryKey;autoIncrement"`
	Shop              string              `gorm:"column:shop;not null;index:qr_codes_shop_idx"`
	Title             string              `gorm:"column:title;not null"`
	ProductID         string              `gorm:"column:product_id;not null"`
	ProductHandle     string              `gorm:"column:product_handle;not null;default:''"`
	ProductVariantIDs pq.StringArray      `gorm:"column:product_variant_ids;type:text[];not null;default:ARRAY[]::text[]"`
	Destination       enums.QRDestination `gorm:"column:destination;not null"`
	Scans             int                 `gorm:"column:scans;not null;default:0"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table to the migration name.
func (QRCode) TableName() string {
	return "qr_codes"
}

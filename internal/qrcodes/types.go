package qrcodes

import (
	"time"

	"github.com/angelmondragon/shopqr-backend/pkg/enums"
)

// QRCodeInput carries the writable fields of a QR code record.
type QRCodeInput struct {
	Title             string   `json:"title"`
	ProductID         string   `json:"product_id"`
	ProductHandle     string   `json:"product_handle"`
	ProductVariantIDs []string `json:"product_variant_ids"`
	Destination       string   `json:"destination"`
}

// QRCodeView is the enriched representation returned to the admin UI. It
// combines the stored record with live catalog data and derived URLs.
type QRCodeView struct {
	ID                int64               `json:"id"`
	Shop              string              `json:"shop"`
	Title             string              `json:"title"`
	ProductID         string              `json:"product_id"`
	ProductHandle     string              `json:"product_handle"`
	ProductVariantIDs []string            `json:"product_variant_ids"`
	Destination       enums.QRDestination `json:"destination"`
	Scans             int                 `json:"scans"`
	ProductDeleted    bool                `json:"product_deleted"`
	ProductTitle      string              `json:"product_title"`
	ProductImage      string              `json:"product_image,omitempty"`
	ProductAlt        string              `json:"product_alt,omitempty"`
	DestinationURL    string              `json:"destination_url"`
	Image             string              `json:"image"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

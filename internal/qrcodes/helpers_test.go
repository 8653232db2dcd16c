package qrcodes

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/angelmondragon/shopqr-backend/pkg/db/models"
	"github.com/angelmondragon/shopqr-backend/pkg/enums"
	"github.com/angelmondragon/shopqr-backend/pkg/shopify"
	"github.com/lib/pq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testTableDDL = `CREATE TABLE qr_codes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	shop TEXT NOT NULL,
	title TEXT NOT NULL,
	product_id TEXT NOT NULL,
	product_handle TEXT NOT NULL DEFAULT '',
	product_variant_ids TEXT NOT NULL DEFAULT '{}',
	destination TEXT NOT NULL,
	scans INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME,
	updated_at DATETIME
)`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.Exec(testTableDDL).Error; err != nil {
		t.Fatalf("failed to create qr_codes table: %v", err)
	}
	return conn
}

func seedQRCode(t *testing.T, repo *Repository, shop string, destination enums.QRDestination, variants ...string) *models.QRCode {
	t.Helper()
	record := &models.QRCode{
		Shop:              shop,
		Title:             "Back of house sticker",
		ProductID:         "gid://shopify/Product/111",
		ProductHandle:     "griffin-mug",
		ProductVariantIDs: pq.StringArray(variants),
		Destination:       destination,
	}
	if err := repo.Create(context.Background(), record); err != nil {
		t.Fatalf("seed qr code: %v", err)
	}
	return record
}

type stubCatalog struct {
	product *shopify.ProductSummary
	err     error
	calls   int
}

func (s *stubCatalog) Product(ctx context.Context, shop, productGID string) (*shopify.ProductSummary, error) {
	s.calls++
	return s.product, s.err
}

type stubRenderer struct {
	lastValue string
	err       error
}

func (s *stubRenderer) DataURL(value string) (string, error) {
	s.lastValue = value
	if s.err != nil {
		return "", s.err
	}
	return "data:image/png;base64,stub", nil
}

func newTestService(t *testing.T, repo *Repository, catalog CatalogClient, renderer ImageRenderer) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Catalog:  catalog,
		Renderer: renderer,
		AppURL:   "https://qr.example.com",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

package qrcodes

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/angelmondragon/shopqr-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopqr-backend/pkg/errors"
	"github.com/angelmondragon/shopqr-backend/pkg/shopify"
)

func validInput() QRCodeInput {
	return QRCodeInput{
		Title:             "Register sticker",
		ProductID:         "gid://shopify/Product/111",
		ProductHandle:     "griffin-mug",
		ProductVariantIDs: []string{"gid://shopify/ProductVariant/222"},
		Destination:       "product",
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*QRCodeInput)
		expected map[string]string
	}{
		{
			name:     "valid product input",
			mutate:   func(in *QRCodeInput) {},
			expected: map[string]string{},
		},
		{
			name: "valid cart input",
			mutate: func(in *QRCodeInput) {
				in.Destination = "cart"
			},
			expected: map[string]string{},
		},
		{
			name: "missing title",
			mutate: func(in *QRCodeInput) {
				in.Title = "  "
			},
			expected: map[string]string{"title": "Title is required"},
		},
		{
			name: "missing product",
			mutate: func(in *QRCodeInput) {
				in.ProductID = ""
			},
			expected: map[string]string{"product_id": "Product is required"},
		},
		{
			name: "missing destination",
			mutate: func(in *QRCodeInput) {
				in.Destination = ""
			},
			expected: map[string]string{"destination": "Destination is required"},
		},
		{
			name: "unknown destination",
			mutate: func(in *QRCodeInput) {
				in.Destination = "checkout"
			},
			expected: map[string]string{"destination": `Destination "checkout" is not recognized`},
		},
		{
			name: "cart without variants",
			mutate: func(in *QRCodeInput) {
				in.Destination = "cart"
				in.ProductVariantIDs = nil
			},
			expected: map[string]string{"product_variant_ids": "Cart destination requires a product variant"},
		},
		{
			name: "cart with malformed variant",
			mutate: func(in *QRCodeInput) {
				in.Destination = "cart"
				in.ProductVariantIDs = []string{"gid://shopify/ProductVariant/not-a-number"}
			},
			expected: map[string]string{"product_variant_ids": "Cart destination requires a product variant"},
		},
		{
			name: "all fields missing",
			mutate: func(in *QRCodeInput) {
				*in = QRCodeInput{}
			},
			expected: map[string]string{
				"title":       "Title is required",
				"product_id":  "Product is required",
				"destination": "Destination is required",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)

			problems := Validate(input)
			if len(problems) != len(tc.expected) {
				t.Fatalf("expected %d problems, got %v", len(tc.expected), problems)
			}
			for field, message := range tc.expected {
				if problems[field] != message {
					t.Fatalf("expected %q for field %s, got %q", message, field, problems[field])
				}
			}
		})
	}
}

func TestServiceCreateAndGet(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	catalog := &stubCatalog{product: &shopify.ProductSummary{Title: "Griffin Mug", ImageURL: "https://cdn.test/mug.png", ImageAlt: "a mug"}}
	renderer := &stubRenderer{}
	svc := newTestService(t, repo, catalog, renderer)

	created, err := svc.Create(context.Background(), "demo.myshopify.com", validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected generated id")
	}
	if created.DestinationURL != "https://demo.myshopify.com/products/griffin-mug" {
		t.Fatalf("unexpected destination url %q", created.DestinationURL)
	}
	if created.Image != "data:image/png;base64,stub" {
		t.Fatalf("unexpected image %q", created.Image)
	}
	if created.ProductDeleted {
		t.Fatal("product must not be marked deleted")
	}
	if created.ProductTitle != "Griffin Mug" || created.ProductImage != "https://cdn.test/mug.png" {
		t.Fatalf("catalog data not merged: %+v", created)
	}

	got, err := svc.Get(context.Background(), "demo.myshopify.com", created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Register sticker" || got.Scans != 0 {
		t.Fatalf("unexpected view %+v", got)
	}
	wantScanURL := "https://qr.example.com/qrcodes/" + strconv.FormatInt(created.ID, 10) + "/scan"
	if renderer.lastValue != wantScanURL {
		t.Fatalf("expected scan url %q encoded, got %q", wantScanURL, renderer.lastValue)
	}
}

func TestServiceCreateRejectsInvalidInput(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	catalog := &stubCatalog{}
	svc := newTestService(t, repo, catalog, &stubRenderer{})

	input := validInput()
	input.Title = ""
	_, err := svc.Create(context.Background(), "demo.myshopify.com", input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["title"] != "Title is required" {
		t.Fatalf("expected field-keyed details, got %v", typed.Details())
	}
	if catalog.calls != 0 {
		t.Fatalf("catalog must not be called for invalid input")
	}
}

func TestServiceGetMarksDeletedProduct(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc := newTestService(t, repo, &stubCatalog{product: nil}, &stubRenderer{})
	seeded := seedQRCode(t, repo, "demo.myshopify.com", enums.QRDestinationProduct)

	view, err := svc.Get(context.Background(), "demo.myshopify.com", seeded.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !view.ProductDeleted {
		t.Fatal("expected deleted product flag")
	}
	if view.ProductTitle != "" {
		t.Fatalf("unexpected product title %q", view.ProductTitle)
	}
}

func TestServiceGetScopesByShop(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc := newTestService(t, repo, &stubCatalog{}, &stubRenderer{})
	seeded := seedQRCode(t, repo, "demo.myshopify.com", enums.QRDestinationProduct)

	_, err := svc.Get(context.Background(), "other.myshopify.com", seeded.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign shop, got %v", err)
	}
}

func TestServiceListEmptySkipsCatalog(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	catalog := &stubCatalog{}
	renderer := &stubRenderer{}
	svc := newTestService(t, repo, catalog, renderer)

	views, err := svc.List(context.Background(), "empty.myshopify.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("expected empty list, got %d", len(views))
	}
	if catalog.calls != 0 {
		t.Fatalf("catalog must not be called for an empty shop")
	}
	if renderer.lastValue != "" {
		t.Fatalf("renderer must not be called for an empty shop")
	}
}

func TestServiceListNewestFirst(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	catalog := &stubCatalog{product: &shopify.ProductSummary{Title: "Griffin Mug"}}
	svc := newTestService(t, repo, catalog, &stubRenderer{})

	first := seedQRCode(t, repo, "demo.myshopify.com", enums.QRDestinationProduct)
	second := seedQRCode(t, repo, "demo.myshopify.com", enums.QRDestinationCart, "gid://shopify/ProductVariant/222")

	views, err := svc.List(context.Background(), "demo.myshopify.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	if views[0].ID != second.ID || views[1].ID != first.ID {
		t.Fatalf("expected newest first, got %d then %d", views[0].ID, views[1].ID)
	}
	if views[0].DestinationURL != "https://demo.myshopify.com/cart/222:1" {
		t.Fatalf("unexpected cart url %q", views[0].DestinationURL)
	}
	if catalog.calls != 2 {
		t.Fatalf("expected one catalog call per record, got %d", catalog.calls)
	}
}

func TestServiceUpdate(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc := newTestService(t, repo, &stubCatalog{product: &shopify.ProductSummary{Title: "Tanith Candle"}}, &stubRenderer{})
	seeded := seedQRCode(t, repo, "demo.myshopify.com", enums.QRDestinationProduct)

	input := validInput()
	input.Title = "Checkout counter"
	input.ProductHandle = "tanith-candle"
	input.Destination = "cart"
	input.ProductVariantIDs = []string{"gid://shopify/ProductVariant/333"}

	view, err := svc.Update(context.Background(), "demo.myshopify.com", seeded.ID, input)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if view.Title != "Checkout counter" || view.Destination != enums.QRDestinationCart {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.DestinationURL != "https://demo.myshopify.com/cart/333:1" {
		t.Fatalf("unexpected destination url %q", view.DestinationURL)
	}
}

func TestServiceUpdateForeignShop(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc := newTestService(t, repo, &stubCatalog{}, &stubRenderer{})
	seeded := seedQRCode(t, repo, "demo.myshopify.com", enums.QRDestinationProduct)

	_, err := svc.Update(context.Background(), "other.myshopify.com", seeded.ID, validInput())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceDelete(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc := newTestService(t, repo, &stubCatalog{}, &stubRenderer{})
	seeded := seedQRCode(t, repo, "demo.myshopify.com", enums.QRDestinationProduct)

	if err := svc.Delete(context.Background(), "demo.myshopify.com", seeded.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	record, err := repo.FindByID(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if record != nil {
		t.Fatalf("expected row gone, got %+v", record)
	}
}

func TestServiceScanProduct(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc := newTestService(t, repo, &stubCatalog{}, &stubRenderer{})
	seeded := seedQRCode(t, repo, "demo.myshopify.com", enums.QRDestinationProduct)

	url, err := svc.Scan(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if url != "https://demo.myshopify.com/products/griffin-mug" {
		t.Fatalf("unexpected redirect %q", url)
	}

	record, _ := repo.FindByID(context.Background(), seeded.ID)
	if record.Scans != 1 {
		t.Fatalf("expected 1 scan, got %d", record.Scans)
	}
}

func TestServiceScanCart(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc := newTestService(t, repo, &stubCatalog{}, &stubRenderer{})
	seeded := seedQRCode(t, repo, "demo.myshopify.com", enums.QRDestinationCart, "gid://shopify/ProductVariant/98765")

	url, err := svc.Scan(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if url != "https://demo.myshopify.com/cart/98765:1" {
		t.Fatalf("unexpected redirect %q", url)
	}
}

func TestServiceScanMissingRecord(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc := newTestService(t, repo, &stubCatalog{}, &stubRenderer{})

	_, err := svc.Scan(context.Background(), 424242)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if typed.Message() != "Could not find QR code destination" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestServiceScanMalformedVariantStillCounts(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc := newTestService(t, repo, &stubCatalog{}, &stubRenderer{})
	seeded := seedQRCode(t, repo, "demo.myshopify.com", enums.QRDestinationCart, "gid://shopify/Collection/1")

	_, err := svc.Scan(context.Background(), seeded.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if typed.Message() != "Unrecognized product variant ID" {
		t.Fatalf("unexpected message %q", typed.Message())
	}

	record, _ := repo.FindByID(context.Background(), seeded.ID)
	if record.Scans != 1 {
		t.Fatalf("scan must be counted before the redirect fails, got %d", record.Scans)
	}
}

func TestServiceScanCountsAreCumulative(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc := newTestService(t, repo, &stubCatalog{}, &stubRenderer{})
	seeded := seedQRCode(t, repo, "demo.myshopify.com", enums.QRDestinationProduct)

	for i := 0; i < 5; i++ {
		if _, err := svc.Scan(context.Background(), seeded.ID); err != nil {
			t.Fatalf("scan %d: %v", i, err)
		}
	}

	record, _ := repo.FindByID(context.Background(), seeded.ID)
	if record.Scans != 5 {
		t.Fatalf("expected 5 scans, got %d", record.Scans)
	}
}

func TestServiceGetFailsOnCorruptCartVariant(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	catalog := &stubCatalog{product: &shopify.ProductSummary{Title: "Griffin Mug"}}
	svc := newTestService(t, repo, catalog, &stubRenderer{})
	// Seeded through the repository, so validation never saw the bad GID.
	seeded := seedQRCode(t, repo, "demo.myshopify.com", enums.QRDestinationCart, "gid://shopify/Collection/1")

	view, err := svc.Get(context.Background(), "demo.myshopify.com", seeded.ID)
	if view != nil {
		t.Fatalf("expected no view for a corrupt record, got %+v", view)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
	if typed.Message() != "Unrecognized product variant ID" {
		t.Fatalf("unexpected message %q", typed.Message())
	}

	if _, err := svc.List(context.Background(), "demo.myshopify.com"); err == nil {
		t.Fatal("expected list to fail on the corrupt record")
	}
}

func TestServiceGetSurfacesCatalogFailure(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc := newTestService(t, repo, &stubCatalog{err: errors.New("admin api down")}, &stubRenderer{})
	seeded := seedQRCode(t, repo, "demo.myshopify.com", enums.QRDestinationProduct)

	_, err := svc.Get(context.Background(), "demo.myshopify.com", seeded.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

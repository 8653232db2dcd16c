package qrcodes

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/angelmondragon/shopqr-backend/pkg/db/models"
	"github.com/angelmondragon/shopqr-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopqr-backend/pkg/errors"
	"github.com/angelmondragon/shopqr-backend/pkg/metrics"
	"github.com/angelmondragon/shopqr-backend/pkg/shopify"
	"github.com/lib/pq"
	"go.uber.org/multierr"
)

var variantGIDPattern = regexp.MustCompile(`gid:\/\/shopify\/ProductVariant\/([0-9]+)`)

// CatalogClient fetches live product data for view enrichment.
type CatalogClient interface {
	Product(ctx context.Context, shop, productGID string) (*shopify.ProductSummary, error)
}

// ImageRenderer produces an inline QR image for a scan URL.
type ImageRenderer interface {
	DataURL(value string) (string, error)
}

// ServiceParams groups dependencies for the QR code service.
type ServiceParams struct {
	Repo     *Repository
	Catalog  CatalogClient
	Renderer ImageRenderer
	Metrics  *metrics.ScanMetrics
	AppURL   string
}

// Service exposes business rules for QR code management and scanning.
type Service interface {
	Get(ctx context.Context, shop string, id int64) (*QRCodeView, error)
	List(ctx context.Context, shop string) ([]QRCodeView, error)
	Create(ctx context.Context, shop string, input QRCodeInput) (*QRCodeView, error)
	Update(ctx context.Context, shop string, id int64, input QRCodeInput) (*QRCodeView, error)
	Delete(ctx context.Context, shop string, id int64) error
	Scan(ctx context.Context, id int64) (string, error)
}

type service struct {
	repo     *Repository
	catalog  CatalogClient
	renderer ImageRenderer
	metrics  *metrics.ScanMetrics
	appURL   string
}

// NewService builds a QR code service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qr code repo is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog client is required")
	}
	if params.Renderer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image renderer is required")
	}
	if strings.TrimSpace(params.AppURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "app URL is required")
	}
	return &service{
		repo:     params.Repo,
		catalog:  params.Catalog,
		renderer: params.Renderer,
		metrics:  params.Metrics,
		appURL:   strings.TrimRight(strings.TrimSpace(params.AppURL), "/"),
	}, nil
}

// Validate reports field-keyed messages for an invalid input. An empty map
// means the input is acceptable.
func Validate(input QRCodeInput) map[string]string {
	problems := make(map[string]string)
	if strings.TrimSpace(input.Title) == "" {
		problems["title"] = "Title is required"
	}
	if strings.TrimSpace(input.ProductID) == "" {
		problems["product_id"] = "Product is required"
	}
	if strings.TrimSpace(input.Destination) == "" {
		problems["destination"] = "Destination is required"
	} else if dest, err := enums.ParseQRDestination(input.Destination); err != nil {
		problems["destination"] = fmt.Sprintf("Destination %q is not recognized", input.Destination)
	} else if dest == enums.QRDestinationCart && !hasValidVariantGID(input.ProductVariantIDs) {
		problems["product_variant_ids"] = "Cart destination requires a product variant"
	}
	return problems
}

func hasValidVariantGID(ids []string) bool {
	return len(ids) > 0 && variantGIDPattern.MatchString(ids[0])
}

// DestinationURL computes the storefront URL a scan should redirect to.
// A cart record whose stored variant GID no longer parses is corrupt data,
// reported as an internal error rather than a validation problem.
func (s *service) DestinationURL(record *models.QRCode) (string, error) {
	if record.Destination == enums.QRDestinationProduct {
		return fmt.Sprintf("https://%s/products/%s", record.Shop, record.ProductHandle), nil
	}
	if len(record.ProductVariantIDs) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "Unrecognized product variant ID")
	}
	match := variantGIDPattern.FindStringSubmatch(record.ProductVariantIDs[0])
	if match == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "Unrecognized product variant ID")
	}
	return fmt.Sprintf("https://%s/cart/%s:1", record.Shop, match[1]), nil
}

// ScanURL is the public URL encoded into the QR image.
func (s *service) ScanURL(id int64) string {
	return fmt.Sprintf("%s/qrcodes/%d/scan", s.appURL, id)
}

// Get returns the enriched view of a single QR code owned by the shop.
func (s *service) Get(ctx context.Context, shop string, id int64) (*QRCodeView, error) {
	record, err := s.load(ctx, shop, id)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, record)
}

// List returns enriched views for every QR code owned by the shop, newest
// first. An empty shop yields an empty list without touching the catalog.
func (s *service) List(ctx context.Context, shop string) ([]QRCodeView, error) {
	records, err := s.repo.ListByShop(ctx, shop)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list qr codes")
	}
	if len(records) == 0 {
		return []QRCodeView{}, nil
	}

	views := make([]QRCodeView, len(records))
	errs := make([]error, len(records))
	var wg sync.WaitGroup
	for i := range records {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			view, err := s.enrich(ctx, &records[idx])
			if err != nil {
				errs[idx] = err
				return
			}
			views[idx] = *view
		}(i)
	}
	wg.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}
	return views, nil
}

// Create validates the input and stores a new QR code for the shop.
func (s *service) Create(ctx context.Context, shop string, input QRCodeInput) (*QRCodeView, error) {
	if problems := Validate(input); len(problems) > 0 {
		return nil, validationError(problems)
	}
	record := recordFromInput(shop, input)
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create qr code")
	}
	return s.enrich(ctx, record)
}

// Update validates the input and replaces the writable fields of an existing
// record owned by the shop.
func (s *service) Update(ctx context.Context, shop string, id int64, input QRCodeInput) (*QRCodeView, error) {
	if problems := Validate(input); len(problems) > 0 {
		return nil, validationError(problems)
	}
	record, err := s.load(ctx, shop, id)
	if err != nil {
		return nil, err
	}

	record.Title = strings.TrimSpace(input.Title)
	record.ProductID = strings.TrimSpace(input.ProductID)
	record.ProductHandle = strings.TrimSpace(input.ProductHandle)
	record.ProductVariantIDs = pq.StringArray(input.ProductVariantIDs)
	record.Destination, _ = enums.ParseQRDestination(input.Destination)

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update qr code")
	}

	updated, err := s.load(ctx, shop, id)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, updated)
}

// Delete removes a QR code owned by the shop.
func (s *service) Delete(ctx context.Context, shop string, id int64) error {
	record, err := s.load(ctx, shop, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, record.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete qr code")
	}
	return nil
}

// Scan records a scan and returns the redirect target. The counter is
// incremented before the destination is computed, so a scan of a corrupt
// cart record still counts even though no redirect is served.
func (s *service) Scan(ctx context.Context, id int64) (string, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.metrics.IncFailure("lookup")
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load qr code")
	}
	if record == nil {
		s.metrics.IncFailure("not_found")
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "Could not find QR code destination")
	}

	if err := s.repo.IncrementScans(ctx, record.ID); err != nil {
		s.metrics.IncFailure("increment")
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment scan count")
	}

	url, err := s.DestinationURL(record)
	if err != nil {
		s.metrics.IncFailure("bad_variant")
		return "", err
	}

	s.metrics.IncScan(record.Destination.String())
	return url, nil
}

func (s *service) load(ctx context.Context, shop string, id int64) (*models.QRCode, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load qr code")
	}
	if record == nil || record.Shop != shop {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "qr code not found")
	}
	return record, nil
}

// enrich renders the QR image concurrently with the catalog lookup, then
// joins the results into the view. A product the catalog no longer knows
// about marks the view deleted instead of failing it.
func (s *service) enrich(ctx context.Context, record *models.QRCode) (*QRCodeView, error) {
	scanURL := s.ScanURL(record.ID)

	type renderResult struct {
		image string
		err   error
	}
	rendered := make(chan renderResult, 1)
	go func() {
		image, err := s.renderer.DataURL(scanURL)
		rendered <- renderResult{image: image, err: err}
	}()

	product, err := s.catalog.Product(ctx, record.Shop, record.ProductID)
	if err != nil {
		<-rendered
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch product")
	}

	render := <-rendered
	if render.err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, render.err, "render qr image")
	}

	view := &QRCodeView{
		ID:                record.ID,
		Shop:              record.Shop,
		Title:             record.Title,
		ProductID:         record.ProductID,
		ProductHandle:     record.ProductHandle,
		ProductVariantIDs: record.ProductVariantIDs,
		Destination:       record.Destination,
		Scans:             record.Scans,
		ProductDeleted:    true,
		Image:             render.image,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}
	if view.ProductVariantIDs == nil {
		view.ProductVariantIDs = []string{}
	}
	if product != nil {
		view.ProductDeleted = product.Title == ""
		view.ProductTitle = product.Title
		view.ProductImage = product.ImageURL
		view.ProductAlt = product.ImageAlt
	}

	url, err := s.DestinationURL(record)
	if err != nil {
		return nil, err
	}
	view.DestinationURL = url

	return view, nil
}

func recordFromInput(shop string, input QRCodeInput) *models.QRCode {
	destination, _ := enums.ParseQRDestination(input.Destination)
	return &models.QRCode{
		Shop:              shop,
		Title:             strings.TrimSpace(input.Title),
		ProductID:         strings.TrimSpace(input.ProductID),
		ProductHandle:     strings.TrimSpace(input.ProductHandle),
		ProductVariantIDs: pq.StringArray(input.ProductVariantIDs),
		Destination:       destination,
	}
}

func validationError(problems map[string]string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "qr code input is invalid").WithDetails(problems)
}

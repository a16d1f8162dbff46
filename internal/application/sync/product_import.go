package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/catalog"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/woocommerce"
)

// ErrProductCreationDisabled indicates a product that has no local template
// while the instance forbids creating one
var ErrProductCreationDisabled = errors.New("sync: product not found and creation is disabled")

// ProductImportService mirrors storefront products into listings and the
// local product catalog, including the variant matrix of variable products.
type ProductImportService struct {
	listings   catalog.ListingRepository
	categories catalog.CategoryRepository
	tags       catalog.TagRepository
	images     catalog.ImageRepository
	instances  store.InstanceRepository
	erp        catalog.ErpCatalog
	engine     *Engine
	clients    ClientFactory
	pageSize   int
	logger     *zap.Logger
}

// NewProductImportService creates a new ProductImportService
func NewProductImportService(
	listings catalog.ListingRepository,
	categories catalog.CategoryRepository,
	tags catalog.TagRepository,
	images catalog.ImageRepository,
	instances store.InstanceRepository,
	erp catalog.ErpCatalog,
	engine *Engine,
	clients ClientFactory,
	pageSize int,
	logger *zap.Logger,
) *ProductImportService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &ProductImportService{
		listings:   listings,
		categories: categories,
		tags:       tags,
		images:     images,
		instances:  instances,
		erp:        erp,
		engine:     engine,
		clients:    clients,
		pageSize:   pageSize,
		logger:     logger.Named("product-import"),
	}
}

// ImportAll fetches every product modified since the last pass, queues them
// and processes the resulting batches
func (s *ProductImportService) ImportAll(ctx context.Context, instance *store.Instance, trigger queue.Trigger) error {
	client := s.clients(instance)
	started := time.Now()

	var records []Record
	err := client.ListProducts(ctx, instance.LastProductSyncAt, s.pageSize, func(page []woocommerce.Product) error {
		for _, p := range page {
			payload, err := json.Marshal(p)
			if err != nil {
				return err
			}
			records = append(records, Record{
				ExternalID: woocommerce.FormatID(p.ID),
				Name:       p.Name,
				Payload:    payload,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	if _, err := s.engine.Enqueue(ctx, instance, queue.KindProduct, trigger, records); err != nil {
		return err
	}
	if err := s.engine.ProcessPending(ctx, instance, queue.KindProduct, trigger,
		queue.OperationProduct, queue.OperationTypeImport, s.ResolveLine); err != nil {
		return err
	}

	instance.MarkProductsSynced(started)
	return s.instances.Save(ctx, instance)
}

// ResolveLine mirrors one queued product snapshot
func (s *ProductImportService) ResolveLine(ctx context.Context, instance *store.Instance, line *queue.Line) LineOutcome {
	var remote woocommerce.Product
	if err := json.Unmarshal(line.Payload, &remote); err != nil {
		return LineOutcome{Message: "malformed product payload: " + err.Error(), Fault: true, Failed: true}
	}
	client := s.clients(instance)
	if remote.ID == 0 {
		// thin webhook payloads carry only the identifier in the line
		fetched, err := s.fetchByExternalID(ctx, client, line.ExternalID)
		if err != nil {
			return LineOutcome{Message: fmt.Sprintf("product %s: %v", line.ExternalID, err), Fault: true, Failed: true}
		}
		remote = *fetched
	}
	listing, skipped, err := s.importProduct(ctx, instance, client, &remote)
	if err != nil {
		return LineOutcome{Message: fmt.Sprintf("product %s: %v", line.ExternalID, err), Fault: true, Failed: true}
	}
	message := fmt.Sprintf("product %s mirrored as %q with %d variants", line.ExternalID, listing.Name, len(listing.Items))
	if skipped > 0 {
		message += fmt.Sprintf(", %d variations without SKU skipped", skipped)
	}
	return LineOutcome{RecordID: &listing.ID, Message: message}
}

// ImportByRemoteID mirrors a single product fetched on demand
func (s *ProductImportService) ImportByRemoteID(ctx context.Context, instance *store.Instance, client *woocommerce.Client, remoteID int64) error {
	remote, err := client.GetProduct(ctx, remoteID)
	if err != nil {
		return err
	}
	_, _, err = s.importProduct(ctx, instance, client, remote)
	return err
}

func (s *ProductImportService) fetchByExternalID(ctx context.Context, client *woocommerce.Client, externalID string) (*woocommerce.Product, error) {
	var id int64
	if _, err := fmt.Sscanf(externalID, "%d", &id); err != nil {
		return nil, fmt.Errorf("invalid product identifier %q", externalID)
	}
	return client.GetProduct(ctx, id)
}

// ---------------------------------------------------------------------------
// Import Pipeline
// ---------------------------------------------------------------------------

// importProduct mirrors one product into a listing. It returns the listing
// and the number of variations skipped for lacking a SKU.
func (s *ProductImportService) importProduct(ctx context.Context, instance *store.Instance, client *woocommerce.Client, remote *woocommerce.Product) (*catalog.Listing, int, error) {
	templateID, err := s.resolveTemplate(ctx, instance, remote)
	if err != nil {
		return nil, 0, err
	}

	listing, err := s.upsertListing(ctx, instance, remote, templateID)
	if err != nil {
		return nil, 0, err
	}

	if err := s.attachCategories(ctx, instance, remote, listing); err != nil {
		return nil, 0, err
	}
	if err := s.attachTags(ctx, instance, remote, listing); err != nil {
		return nil, 0, err
	}

	var skipped int
	if remote.IsVariable() {
		skipped, err = s.importVariants(ctx, instance, client, remote, listing, templateID)
		if err != nil {
			return nil, 0, err
		}
	} else {
		if err := s.importSimple(ctx, remote, listing, templateID); err != nil {
			return nil, 0, err
		}
	}

	if price := woocommerce.ParseDecimal(remote.Price); !price.IsZero() {
		if err := s.erp.SetListPrice(ctx, templateID, price); err != nil {
			return nil, 0, err
		}
	}

	if err := s.listings.Save(ctx, listing); err != nil {
		return nil, 0, err
	}

	if instance.SyncImages {
		if err := s.mirrorImages(ctx, remote, listing); err != nil {
			s.logger.Warn("image mirror failed",
				zap.String("listing", listing.Name), zap.Error(err))
		}
	}
	return listing, skipped, nil
}

// resolveTemplate runs the template cascade: variant SKU, template SKU,
// template name, then creation when the instance allows it
func (s *ProductImportService) resolveTemplate(ctx context.Context, instance *store.Instance, remote *woocommerce.Product) (uuid.UUID, error) {
	if remote.SKU != "" {
		if id, err := s.erp.FindTemplateBySKU(ctx, remote.SKU); err == nil {
			return id, nil
		} else if !errors.Is(err, shared.ErrNotFound) {
			return uuid.Nil, err
		}
	}
	if id, err := s.erp.FindTemplateByName(ctx, remote.Name); err == nil {
		return id, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return uuid.Nil, err
	}
	if !instance.CreateProductIfNotFound {
		return uuid.Nil, ErrProductCreationDisabled
	}
	return s.erp.CreateTemplate(ctx, remote.Name)
}

func (s *ProductImportService) upsertListing(ctx context.Context, instance *store.Instance, remote *woocommerce.Product, templateID uuid.UUID) (*catalog.Listing, error) {
	remoteID := woocommerce.FormatID(remote.ID)
	listing, err := s.listings.FindByRemoteID(ctx, instance.ID, remoteID)
	switch {
	case err == nil:
		listing.Name = remote.Name
	case errors.Is(err, shared.ErrNotFound):
		listing, err = catalog.NewListing(instance.ID, templateID, remote.Name)
		if err != nil {
			return nil, err
		}
		listing.MarkExported(remoteID)
	default:
		return nil, err
	}
	listing.Description = remote.Description
	listing.ShortDescription = remote.ShortDescription
	return listing, nil
}

// attachCategories files the listing under the mirror of its first remote
// category, creating the mirror on first sight. Matching is by remote term
// first, then case-insensitive slug.
func (s *ProductImportService) attachCategories(ctx context.Context, instance *store.Instance, remote *woocommerce.Product, listing *catalog.Listing) error {
	if len(remote.Categories) == 0 {
		return nil
	}
	term := remote.Categories[0]
	category, err := s.ensureCategory(ctx, instance, term)
	if err != nil {
		return err
	}
	listing.CategoryIDs = []uuid.UUID{category.ID}
	return nil
}

func (s *ProductImportService) ensureCategory(ctx context.Context, instance *store.Instance, term woocommerce.TermRef) (*catalog.Category, error) {
	remoteID := woocommerce.FormatID(term.ID)
	category, err := s.categories.FindByRemoteID(ctx, instance.ID, remoteID)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	category, err = s.categories.FindBySlug(ctx, instance.ID, strings.ToLower(term.Slug))
	if err == nil {
		category.AdoptRemote(remoteID)
		if err := s.categories.Save(ctx, category); err != nil {
			return nil, err
		}
		return category, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	category, err = catalog.NewCategory(instance.ID, term.Name, strings.ToLower(term.Slug), nil)
	if err != nil {
		return nil, err
	}
	category.AdoptRemote(remoteID)
	if err := s.categories.Save(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// attachTags mirrors the product tags, assigning a running sequence to
// first-seen tags
func (s *ProductImportService) attachTags(ctx context.Context, instance *store.Instance, remote *woocommerce.Product, listing *catalog.Listing) error {
	if len(remote.Tags) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(remote.Tags))
	for sequence, term := range remote.Tags {
		remoteID := woocommerce.FormatID(term.ID)
		tag, err := s.tags.FindByRemoteID(ctx, instance.ID, remoteID)
		if errors.Is(err, shared.ErrNotFound) {
			tag = &catalog.Tag{
				BaseEntity: shared.NewBaseEntity(),
				InstanceID: instance.ID,
				Name:       term.Name,
				Slug:       strings.ToLower(term.Slug),
				RemoteID:   remoteID,
				Sequence:   sequence,
			}
			err = s.tags.Save(ctx, tag)
		}
		if err != nil {
			return err
		}
		ids = append(ids, tag.ID)
	}
	listing.TagIDs = ids
	return nil
}

// importSimple links the single variant of a simple product
func (s *ProductImportService) importSimple(ctx context.Context, remote *woocommerce.Product, listing *catalog.Listing, templateID uuid.UUID) error {
	if remote.SKU == "" {
		return catalog.ErrItemInvalidSKU
	}
	variantID, err := s.erp.FindVariantBySKU(ctx, remote.SKU)
	if errors.Is(err, shared.ErrNotFound) {
		variantID, err = s.erp.FindVariantByAttributes(ctx, templateID, map[string]string{})
		if err != nil {
			return fmt.Errorf("template has no base variant: %w", err)
		}
		if err := s.erp.SetVariantSKU(ctx, variantID, remote.SKU); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	return s.linkItem(listing, variantID, remote.SKU, remote.Price, woocommerce.FormatID(remote.ID))
}

// importVariants syncs the attribute matrix and links every variation that
// carries a SKU. Returns how many variations were skipped.
func (s *ProductImportService) importVariants(ctx context.Context, instance *store.Instance, client *woocommerce.Client, remote *woocommerce.Product, listing *catalog.Listing, templateID uuid.UUID) (int, error) {
	var lines []catalog.AttributeLine
	for _, attr := range remote.Attributes {
		if !attr.Variation {
			continue
		}
		lines = append(lines, catalog.AttributeLine{Name: attr.Name, Values: attr.Options})
	}
	if len(lines) > 0 {
		if err := s.erp.SyncAttributeLines(ctx, templateID, lines); err != nil {
			return 0, err
		}
	}

	skipped := 0
	err := client.ListVariations(ctx, remote.ID, s.pageSize, func(page []woocommerce.Variation) error {
		for _, variation := range page {
			if variation.SKU == "" {
				skipped++
				s.logger.Info("skipping variation without SKU",
					zap.Int64("variation_id", variation.ID),
					zap.String("product", remote.Name))
				continue
			}
			values := make(map[string]string, len(variation.Attributes))
			for _, attr := range variation.Attributes {
				values[attr.Name] = attr.Option
			}
			variantID, err := s.erp.FindVariantByAttributes(ctx, templateID, values)
			if err != nil {
				return fmt.Errorf("variation %s: no matching variant: %w", variation.SKU, err)
			}
			if err := s.erp.SetVariantSKU(ctx, variantID, variation.SKU); err != nil {
				return err
			}
			if err := s.linkItem(listing, variantID, variation.SKU, variation.Price, woocommerce.FormatID(variation.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	return skipped, err
}

// linkItem upserts a per-variant row on the listing
func (s *ProductImportService) linkItem(listing *catalog.Listing, variantID uuid.UUID, sku, price, remoteID string) error {
	if item := listing.ItemBySKU(sku); item != nil {
		item.ProductID = variantID
		item.Price = woocommerce.ParseDecimal(price)
		item.MarkExported(remoteID)
		return nil
	}
	item, err := listing.AddItem(variantID, sku, woocommerce.ParseDecimal(price))
	if err != nil {
		return err
	}
	item.MarkExported(remoteID)
	return nil
}

// mirrorImages stores the product gallery, deduplicating by remote media
// identifier
func (s *ProductImportService) mirrorImages(ctx context.Context, remote *woocommerce.Product, listing *catalog.Listing) error {
	existing, err := s.images.FindByListing(ctx, listing.ID)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for i := range existing {
		seen[existing[i].RemoteID] = true
	}
	for _, img := range remote.Images {
		remoteID := woocommerce.FormatID(img.ID)
		if seen[remoteID] {
			continue
		}
		record := &catalog.ProductImage{
			BaseEntity: shared.NewBaseEntity(),
			ListingID:  listing.ID,
			RemoteID:   remoteID,
			URL:        img.Src,
			Sequence:   img.Position,
		}
		if err := s.images.Save(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

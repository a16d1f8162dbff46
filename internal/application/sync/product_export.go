package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/catalog"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/woocommerce"
)

// ProductExportService pushes listings to the store: product payload build,
// create-or-update, and persistence of the identifiers the store assigns.
type ProductExportService struct {
	listings   catalog.ListingRepository
	categories catalog.CategoryRepository
	tags       catalog.TagRepository
	recorder   *Recorder
	clients    ClientFactory
	logger     *zap.Logger
}

// NewProductExportService creates a new ProductExportService
func NewProductExportService(
	listings catalog.ListingRepository,
	categories catalog.CategoryRepository,
	tags catalog.TagRepository,
	recorder *Recorder,
	clients ClientFactory,
	logger *zap.Logger,
) *ProductExportService {
	return &ProductExportService{
		listings:   listings,
		categories: categories,
		tags:       tags,
		recorder:   recorder,
		clients:    clients,
		logger:     logger.Named("product-export"),
	}
}

// ExportListing pushes one listing. An unexported listing is created and
// adopts the remote identifiers; an exported one is updated in place.
func (s *ProductExportService) ExportListing(ctx context.Context, instance *store.Instance, listing *catalog.Listing) error {
	client := s.clients(instance)
	log := s.recorder.Open(ctx, instance.ID, queue.OperationProduct, queue.OperationTypeExport)
	defer s.recorder.Close(ctx, log)

	payload, err := s.buildPayload(ctx, listing)
	if err != nil {
		return err
	}

	var result *woocommerce.Result
	if listing.RemoteID == "" {
		result, err = client.CreateProduct(ctx, payload)
	} else {
		remoteID, convErr := strconv.ParseInt(listing.RemoteID, 10, 64)
		if convErr != nil {
			return fmt.Errorf("listing %q has malformed remote id %q", listing.Name, listing.RemoteID)
		}
		result, err = client.UpdateProduct(ctx, remoteID, payload)
	}
	if err != nil {
		return err
	}
	if !result.OK {
		body, _ := json.Marshal(payload)
		s.recorder.Exchange(ctx, log, "product "+listing.Name+" refused: "+result.Error(), true, nil, string(body), result.Raw)
		return fmt.Errorf("product export refused: %s", result.Error())
	}

	var remote woocommerce.Product
	if err := result.Decode(&remote); err != nil {
		return err
	}
	listing.MarkExported(woocommerce.FormatID(remote.ID))

	if err := s.exportVariations(ctx, client, log, listing, remote.ID); err != nil {
		return err
	}
	if err := s.listings.Save(ctx, listing); err != nil {
		return err
	}
	s.recorder.Line(ctx, log, fmt.Sprintf("product %s exported as %d", listing.Name, remote.ID), false, nil)
	return nil
}

// ExportAll re-pushes every exported listing of the instance
func (s *ProductExportService) ExportAll(ctx context.Context, instance *store.Instance) error {
	listings, err := s.listings.FindExported(ctx, instance.ID)
	if err != nil {
		return err
	}
	for i := range listings {
		if err := s.ExportListing(ctx, instance, &listings[i]); err != nil {
			s.logger.Warn("listing export failed",
				zap.String("listing", listings[i].Name), zap.Error(err))
		}
	}
	return nil
}

// buildPayload assembles the product body the store expects
func (s *ProductExportService) buildPayload(ctx context.Context, listing *catalog.Listing) (map[string]any, error) {
	payload := map[string]any{
		"name":              listing.Name,
		"description":       listing.Description,
		"short_description": listing.ShortDescription,
	}
	if len(listing.Items) == 1 {
		payload["type"] = "simple"
		payload["sku"] = listing.Items[0].SKU
		payload["regular_price"] = listing.Items[0].Price.String()
	} else if len(listing.Items) > 1 {
		payload["type"] = "variable"
	}

	if len(listing.CategoryIDs) > 0 {
		categories, err := s.categories.FindByIDs(ctx, listing.CategoryIDs)
		if err != nil {
			return nil, err
		}
		refs := make([]map[string]any, 0, len(categories))
		for i := range categories {
			if id, err := strconv.ParseInt(categories[i].RemoteID, 10, 64); err == nil {
				refs = append(refs, map[string]any{"id": id})
			}
		}
		if len(refs) > 0 {
			payload["categories"] = refs
		}
	}

	if len(listing.TagIDs) > 0 {
		tags, err := s.tags.FindByIDs(ctx, listing.TagIDs)
		if err != nil {
			return nil, err
		}
		refs := make([]map[string]any, 0, len(tags))
		for i := range tags {
			if id, err := strconv.ParseInt(tags[i].RemoteID, 10, 64); err == nil {
				refs = append(refs, map[string]any{"id": id})
			}
		}
		if len(refs) > 0 {
			payload["tags"] = refs
		}
	}
	return payload, nil
}

// exportVariations pushes the per-variant rows of a variable listing
func (s *ProductExportService) exportVariations(ctx context.Context, client *woocommerce.Client, log *queue.OperationLog, listing *catalog.Listing, productRemoteID int64) error {
	if len(listing.Items) <= 1 {
		if len(listing.Items) == 1 && listing.Items[0].RemoteID == "" {
			// simple products carry their variant on the product itself
			listing.Items[0].MarkExported(listing.RemoteID)
		}
		return nil
	}
	for i := range listing.Items {
		item := &listing.Items[i]
		payload := map[string]any{
			"sku":           item.SKU,
			"regular_price": item.Price.String(),
		}
		var result *woocommerce.Result
		var err error
		if item.RemoteID == "" {
			result, err = client.CreateVariation(ctx, productRemoteID, payload)
		} else {
			variationID, convErr := strconv.ParseInt(item.RemoteID, 10, 64)
			if convErr != nil {
				continue
			}
			result, err = client.UpdateVariation(ctx, productRemoteID, variationID, payload)
		}
		if err != nil {
			return err
		}
		if !result.OK {
			body, _ := json.Marshal(payload)
			s.recorder.Exchange(ctx, log, "variation "+item.SKU+" refused: "+result.Error(), true, nil, string(body), result.Raw)
			continue
		}
		var remote woocommerce.Variation
		if err := result.Decode(&remote); err != nil {
			return err
		}
		item.MarkExported(woocommerce.FormatID(remote.ID))
	}
	return nil
}

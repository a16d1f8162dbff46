package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/catalog"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
)

// inventoryRecord is the queue payload for one stock push
type inventoryRecord struct {
	ItemID          uuid.UUID `json:"item_id"`
	ProductID       uuid.UUID `json:"product_id"`
	SKU             string    `json:"sku"`
	ListingRemoteID string    `json:"listing_remote_id"`
	ItemRemoteID    string    `json:"item_remote_id"`
	Variation       bool      `json:"variation"`
}

// InventoryExportService queues stock levels for exported listing items and
// pushes them to the store in batch update calls.
type InventoryExportService struct {
	listings catalog.ListingRepository
	erp      catalog.ErpCatalog
	engine   *Engine
	clients  ClientFactory
	logger   *zap.Logger
}

// NewInventoryExportService creates a new InventoryExportService
func NewInventoryExportService(
	listings catalog.ListingRepository,
	erp catalog.ErpCatalog,
	engine *Engine,
	clients ClientFactory,
	logger *zap.Logger,
) *InventoryExportService {
	return &InventoryExportService{
		listings: listings,
		erp:      erp,
		engine:   engine,
		clients:  clients,
		logger:   logger.Named("inventory-export"),
	}
}

// ExportAll enqueues a stock push for every exported listing item of the
// instance and drains the resulting batches.
func (s *InventoryExportService) ExportAll(ctx context.Context, instance *store.Instance) error {
	listings, err := s.listings.FindExported(ctx, instance.ID)
	if err != nil {
		return err
	}

	var records []Record
	for i := range listings {
		listing := &listings[i]
		variable := len(listing.Items) > 1
		for j := range listing.Items {
			item := &listing.Items[j]
			if item.RemoteID == "" || item.SKU == "" {
				continue
			}
			rec := inventoryRecord{
				ItemID:          item.ID,
				ProductID:       item.ProductID,
				SKU:             item.SKU,
				ListingRemoteID: listing.RemoteID,
				ItemRemoteID:    item.RemoteID,
				Variation:       variable,
			}
			payload, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			records = append(records, Record{
				ExternalID: item.RemoteID,
				Name:       item.SKU,
				Payload:    payload,
			})
		}
	}
	if len(records) == 0 {
		return nil
	}
	if _, err := s.engine.Enqueue(ctx, instance, queue.KindInventory, queue.TriggerScheduled, records); err != nil {
		return err
	}
	return s.engine.ProcessPending(ctx, instance, queue.KindInventory, queue.TriggerScheduled,
		queue.OperationInventory, queue.OperationTypeUpdate, s.ResolveLine)
}

// ResolveLine pushes the stock level for one queued item
func (s *InventoryExportService) ResolveLine(ctx context.Context, instance *store.Instance, line *queue.Line) LineOutcome {
	var rec inventoryRecord
	if err := json.Unmarshal([]byte(line.Payload), &rec); err != nil {
		return LineOutcome{Message: "malformed inventory payload: " + err.Error(), Fault: true, Failed: true}
	}

	qty, err := s.erp.AvailableQuantity(ctx, rec.ProductID, instance.WarehouseID)
	if err != nil {
		return LineOutcome{Message: "stock lookup failed for " + rec.SKU + ": " + err.Error(), Fault: true, Failed: true}
	}

	client := s.clients(instance)
	update := map[string]any{
		"manage_stock":   true,
		"stock_quantity": qty.IntPart(),
	}
	if rec.Variation {
		productID, convErr := strconv.ParseInt(rec.ListingRemoteID, 10, 64)
		variationID, convErr2 := strconv.ParseInt(rec.ItemRemoteID, 10, 64)
		if convErr != nil || convErr2 != nil {
			return LineOutcome{Message: "malformed remote identifiers for " + rec.SKU, Fault: true, Failed: true}
		}
		update["id"] = variationID
		result, err := client.BatchUpdateVariations(ctx, productID, []map[string]any{update})
		if err != nil {
			return LineOutcome{Message: "stock push failed for " + rec.SKU + ": " + err.Error(), Fault: true, Failed: true}
		}
		if !result.OK {
			return LineOutcome{Message: "stock push refused for " + rec.SKU + ": " + result.Error(), Fault: true, Failed: true}
		}
	} else {
		productID, convErr := strconv.ParseInt(rec.ItemRemoteID, 10, 64)
		if convErr != nil {
			return LineOutcome{Message: "malformed remote identifier for " + rec.SKU, Fault: true, Failed: true}
		}
		update["id"] = productID
		result, err := client.BatchUpdateProducts(ctx, []map[string]any{update})
		if err != nil {
			return LineOutcome{Message: "stock push failed for " + rec.SKU + ": " + err.Error(), Fault: true, Failed: true}
		}
		if !result.OK {
			return LineOutcome{Message: "stock push refused for " + rec.SKU + ": " + result.Error(), Fault: true, Failed: true}
		}
	}
	return LineOutcome{Message: fmt.Sprintf("stock for %s set to %s", rec.SKU, qty.String())}
}

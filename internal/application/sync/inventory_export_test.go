package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/catalog"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/erp"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence"
)

type inventoryExportEnv struct {
	db       *gorm.DB
	mux      *http.ServeMux
	instance *store.Instance
	listings catalog.ListingRepository
	erpCat   *erp.GormErpCatalog
	queues   queue.Repository
	service  *InventoryExportService
}

func newInventoryExportEnv(t *testing.T) *inventoryExportEnv {
	t.Helper()
	db := setupSyncDB(t)
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	instance := testInstance(t, server.URL)
	listings := persistence.NewGormListingRepository(db)
	queues := persistence.NewGormQueueRepository(db)
	logs := persistence.NewGormOperationLogRepository(db)
	recorder := NewRecorder(logs, zap.NewNop())
	engine := NewEngine(queues, recorder, queue.DefaultRetryPolicy(), 50, zap.NewNop())
	erpCat := erp.NewGormErpCatalog(db)

	return &inventoryExportEnv{
		db:       db,
		mux:      mux,
		instance: instance,
		listings: listings,
		erpCat:   erpCat,
		queues:   queues,
		service:  NewInventoryExportService(listings, erpCat, engine, testClients(), zap.NewNop()),
	}
}

// seedExportedListing mirrors a listing that already lives on the store,
// returning the variant identifier of its single item
func (e *inventoryExportEnv) seedExportedListing(t *testing.T, name, sku, remoteID string) uuid.UUID {
	t.Helper()
	listing, err := catalog.NewListing(e.instance.ID, uuid.New(), name)
	require.NoError(t, err)
	item, err := listing.AddItem(uuid.New(), sku, decimal.NewFromInt(20))
	require.NoError(t, err)
	listing.MarkExported(remoteID)
	item.MarkExported(remoteID)
	require.NoError(t, e.listings.Save(context.Background(), listing))
	return item.ProductID
}

func TestInventoryExportService_ExportAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Pushes the on-hand quantity of a simple product", func(t *testing.T) {
		env := newInventoryExportEnv(t)
		variantID := env.seedExportedListing(t, "Widget", "WIDGET-1", "501")
		require.NoError(t, env.erpCat.SetQuantity(ctx, variantID, env.instance.WarehouseID, decimal.NewFromInt(7)))

		var updates []map[string]any
		env.mux.HandleFunc("/wp-json/wc/v3/products/batch", func(w http.ResponseWriter, r *http.Request) {
			var body map[string][]map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			updates = append(updates, body["update"]...)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"update":[{"id":501}]}`)
		})

		require.NoError(t, env.service.ExportAll(ctx, env.instance))

		require.Len(t, updates, 1)
		assert.Equal(t, float64(501), updates[0]["id"])
		assert.Equal(t, true, updates[0]["manage_stock"])
		assert.Equal(t, float64(7), updates[0]["stock_quantity"])

		line, err := env.queues.FindLineByExternalID(ctx, env.instance.ID, queue.KindInventory, "501")
		require.NoError(t, err)
		assert.Equal(t, queue.LineStateCompleted, line.State)
	})

	t.Run("A product without a stock row reports zero", func(t *testing.T) {
		env := newInventoryExportEnv(t)
		env.seedExportedListing(t, "Widget", "WIDGET-1", "501")

		var quantity any
		env.mux.HandleFunc("/wp-json/wc/v3/products/batch", func(w http.ResponseWriter, r *http.Request) {
			var body map[string][]map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			quantity = body["update"][0]["stock_quantity"]
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"update":[{"id":501}]}`)
		})

		require.NoError(t, env.service.ExportAll(ctx, env.instance))
		assert.Equal(t, float64(0), quantity)
	})

	t.Run("Variations go through the per-product batch endpoint", func(t *testing.T) {
		env := newInventoryExportEnv(t)
		listing, err := catalog.NewListing(env.instance.ID, uuid.New(), "Tee")
		require.NoError(t, err)
		small, err := listing.AddItem(uuid.New(), "TEE-S", decimal.NewFromInt(15))
		require.NoError(t, err)
		medium, err := listing.AddItem(uuid.New(), "TEE-M", decimal.NewFromInt(15))
		require.NoError(t, err)
		listing.MarkExported("600")
		small.MarkExported("601")
		medium.MarkExported("602")
		require.NoError(t, env.listings.Save(ctx, listing))
		require.NoError(t, env.erpCat.SetQuantity(ctx, small.ProductID, env.instance.WarehouseID, decimal.NewFromInt(3)))
		require.NoError(t, env.erpCat.SetQuantity(ctx, medium.ProductID, env.instance.WarehouseID, decimal.NewFromInt(4)))

		quantities := map[float64]float64{}
		env.mux.HandleFunc("/wp-json/wc/v3/products/600/variations/batch", func(w http.ResponseWriter, r *http.Request) {
			var body map[string][]map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			for _, update := range body["update"] {
				quantities[update["id"].(float64)] = update["stock_quantity"].(float64)
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"update":[]}`)
		})

		require.NoError(t, env.service.ExportAll(ctx, env.instance))
		assert.Equal(t, map[float64]float64{601: 3, 602: 4}, quantities)
	})

	t.Run("A refused push fails the line and counts the attempt", func(t *testing.T) {
		env := newInventoryExportEnv(t)
		env.seedExportedListing(t, "Widget", "WIDGET-1", "501")

		env.mux.HandleFunc("/wp-json/wc/v3/products/batch", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"code":"woocommerce_rest_invalid_product","message":"Invalid product."}`)
		})

		require.NoError(t, env.service.ExportAll(ctx, env.instance))

		line, err := env.queues.FindLineByExternalID(ctx, env.instance.ID, queue.KindInventory, "501")
		require.NoError(t, err)
		assert.Equal(t, queue.LineStateFailed, line.State)
		assert.Equal(t, 1, line.FailCount)
		assert.Contains(t, line.LastError, "refused")
	})
}

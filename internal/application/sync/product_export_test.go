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
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence"
)

type productExportEnv struct {
	db       *gorm.DB
	mux      *http.ServeMux
	instance *store.Instance
	listings catalog.ListingRepository
	service  *ProductExportService
}

func newProductExportEnv(t *testing.T) *productExportEnv {
	t.Helper()
	db := setupSyncDB(t)
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	instance := testInstance(t, server.URL)
	listings := persistence.NewGormListingRepository(db)
	categories := persistence.NewGormCategoryRepository(db)
	tags := persistence.NewGormTagRepository(db)
	logs := persistence.NewGormOperationLogRepository(db)
	recorder := NewRecorder(logs, zap.NewNop())

	return &productExportEnv{
		db:       db,
		mux:      mux,
		instance: instance,
		listings: listings,
		service:  NewProductExportService(listings, categories, tags, recorder, testClients(), zap.NewNop()),
	}
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestProductExportService_ExportListing(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates a simple product and adopts its identifier", func(t *testing.T) {
		env := newProductExportEnv(t)
		listing, err := catalog.NewListing(env.instance.ID, uuid.New(), "Widget")
		require.NoError(t, err)
		listing.Description = "A fine widget"
		_, err = listing.AddItem(uuid.New(), "WIDGET-1", decimal.NewFromFloat(19.98))
		require.NoError(t, err)

		env.mux.HandleFunc("/wp-json/wc/v3/products", func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			body := decodeBody(t, r)
			assert.Equal(t, "Widget", body["name"])
			assert.Equal(t, "simple", body["type"])
			assert.Equal(t, "WIDGET-1", body["sku"])
			assert.Equal(t, "19.98", body["regular_price"])
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":501,"name":"Widget"}`)
		})

		require.NoError(t, env.service.ExportListing(ctx, env.instance, listing))

		saved, err := env.listings.FindByRemoteID(ctx, env.instance.ID, "501")
		require.NoError(t, err)
		assert.Equal(t, "501", saved.RemoteID)
		require.Len(t, saved.Items, 1)
		assert.Equal(t, "501", saved.Items[0].RemoteID)
	})

	t.Run("Creates variations for a variable product", func(t *testing.T) {
		env := newProductExportEnv(t)
		listing, err := catalog.NewListing(env.instance.ID, uuid.New(), "Tee")
		require.NoError(t, err)
		_, err = listing.AddItem(uuid.New(), "TEE-S", decimal.NewFromInt(15))
		require.NoError(t, err)
		_, err = listing.AddItem(uuid.New(), "TEE-M", decimal.NewFromInt(15))
		require.NoError(t, err)

		env.mux.HandleFunc("/wp-json/wc/v3/products", func(w http.ResponseWriter, r *http.Request) {
			body := decodeBody(t, r)
			assert.Equal(t, "variable", body["type"])
			assert.NotContains(t, body, "sku")
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":600,"name":"Tee"}`)
		})
		variationID := int64(601)
		env.mux.HandleFunc("/wp-json/wc/v3/products/600/variations", func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			body := decodeBody(t, r)
			assert.Contains(t, []any{"TEE-S", "TEE-M"}, body["sku"])
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"id":%d}`, variationID)
			variationID++
		})

		require.NoError(t, env.service.ExportListing(ctx, env.instance, listing))

		saved, err := env.listings.FindByRemoteID(ctx, env.instance.ID, "600")
		require.NoError(t, err)
		require.Len(t, saved.Items, 2)
		assert.Equal(t, "601", saved.ItemBySKU("TEE-S").RemoteID)
		assert.Equal(t, "602", saved.ItemBySKU("TEE-M").RemoteID)
	})

	t.Run("References exported categories by their remote term", func(t *testing.T) {
		env := newProductExportEnv(t)
		category, err := catalog.NewCategory(env.instance.ID, "Apparel", "apparel", nil)
		require.NoError(t, err)
		category.AdoptRemote("10")
		require.NoError(t, persistence.NewGormCategoryRepository(env.db).Save(ctx, category))

		listing, err := catalog.NewListing(env.instance.ID, uuid.New(), "Tee")
		require.NoError(t, err)
		_, err = listing.AddItem(uuid.New(), "TEE-S", decimal.NewFromInt(15))
		require.NoError(t, err)
		listing.CategoryIDs = []uuid.UUID{category.ID}

		env.mux.HandleFunc("/wp-json/wc/v3/products", func(w http.ResponseWriter, r *http.Request) {
			body := decodeBody(t, r)
			refs, ok := body["categories"].([]any)
			require.True(t, ok)
			require.Len(t, refs, 1)
			assert.Equal(t, float64(10), refs[0].(map[string]any)["id"])
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":700}`)
		})

		require.NoError(t, env.service.ExportListing(ctx, env.instance, listing))
	})

	t.Run("A refused create leaves the listing unexported", func(t *testing.T) {
		env := newProductExportEnv(t)
		listing, err := catalog.NewListing(env.instance.ID, uuid.New(), "Widget")
		require.NoError(t, err)
		_, err = listing.AddItem(uuid.New(), "WIDGET-1", decimal.NewFromInt(20))
		require.NoError(t, err)

		env.mux.HandleFunc("/wp-json/wc/v3/products", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"code":"product_invalid_sku","message":"Invalid or duplicated SKU."}`)
		})

		err = env.service.ExportListing(ctx, env.instance, listing)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "refused")
		assert.Empty(t, listing.RemoteID)
	})

	t.Run("An exported listing is updated in place", func(t *testing.T) {
		env := newProductExportEnv(t)
		listing, err := catalog.NewListing(env.instance.ID, uuid.New(), "Widget")
		require.NoError(t, err)
		item, err := listing.AddItem(uuid.New(), "WIDGET-1", decimal.NewFromInt(25))
		require.NoError(t, err)
		listing.MarkExported("501")
		item.MarkExported("501")
		require.NoError(t, env.listings.Save(ctx, listing))

		env.mux.HandleFunc("/wp-json/wc/v3/products/501", func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPut, r.Method)
			body := decodeBody(t, r)
			assert.Equal(t, "25", body["regular_price"])
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":501}`)
		})

		require.NoError(t, env.service.ExportAll(ctx, env.instance))
	})
}

package sync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

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
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence/models"
)

type productImportEnv struct {
	db         *gorm.DB
	mux        *http.ServeMux
	instance   *store.Instance
	instances  store.InstanceRepository
	listings   catalog.ListingRepository
	categories catalog.CategoryRepository
	erpCat     *erp.GormErpCatalog
	queues     queue.Repository
	service    *ProductImportService
}

func newProductImportEnv(t *testing.T) *productImportEnv {
	t.Helper()
	db := setupSyncDB(t)
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	instance := testInstance(t, server.URL)
	instance.CreateProductIfNotFound = true
	instances := persistence.NewGormInstanceRepository(db)
	require.NoError(t, instances.Save(context.Background(), instance))

	listings := persistence.NewGormListingRepository(db)
	categories := persistence.NewGormCategoryRepository(db)
	tags := persistence.NewGormTagRepository(db)
	images := persistence.NewGormImageRepository(db)
	queues := persistence.NewGormQueueRepository(db)
	logs := persistence.NewGormOperationLogRepository(db)
	recorder := NewRecorder(logs, zap.NewNop())
	engine := NewEngine(queues, recorder, queue.DefaultRetryPolicy(), 50, zap.NewNop())
	erpCat := erp.NewGormErpCatalog(db)

	return &productImportEnv{
		db:         db,
		mux:        mux,
		instance:   instance,
		instances:  instances,
		listings:   listings,
		categories: categories,
		erpCat:     erpCat,
		queues:     queues,
		service: NewProductImportService(listings, categories, tags, images,
			instances, erpCat, engine, testClients(), 100, zap.NewNop()),
	}
}

const simpleProductJSON = `{
	"id": 501, "name": "Widget", "slug": "widget", "type": "simple", "status": "publish",
	"sku": "WIDGET-1", "price": "19.98", "regular_price": "19.98",
	"description": "A fine widget", "short_description": "Widget",
	"categories": [{"id":10,"name":"Apparel","slug":"APPAREL"}],
	"tags": [{"id":21,"name":"Summer","slug":"summer"}]
}`

func TestProductImportService_ImportAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Mirrors a simple product into a listing and the catalog", func(t *testing.T) {
		env := newProductImportEnv(t)
		env.mux.HandleFunc("/wp-json/wc/v3/products", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, "["+simpleProductJSON+"]")
		})

		require.NoError(t, env.service.ImportAll(ctx, env.instance, queue.TriggerScheduled))

		listing, err := env.listings.FindByRemoteID(ctx, env.instance.ID, "501")
		require.NoError(t, err)
		assert.Equal(t, "Widget", listing.Name)
		assert.Equal(t, "A fine widget", listing.Description)
		require.Len(t, listing.Items, 1)
		assert.Equal(t, "WIDGET-1", listing.Items[0].SKU)
		assert.True(t, listing.Items[0].Price.Equal(decimal.NewFromFloat(19.98)))
		assert.Equal(t, "501", listing.Items[0].RemoteID)

		// the template was created with its base variant carrying the SKU
		var templates int64
		require.NoError(t, env.db.Model(&erp.TemplateModel{}).Count(&templates).Error)
		assert.Equal(t, int64(1), templates)
		variantID, err := env.erpCat.FindVariantBySKU(ctx, "WIDGET-1")
		require.NoError(t, err)
		assert.Equal(t, listing.Items[0].ProductID, variantID)

		category, err := env.categories.FindByRemoteID(ctx, env.instance.ID, "10")
		require.NoError(t, err)
		assert.Equal(t, "apparel", category.Slug)
		require.Len(t, listing.CategoryIDs, 1)
		assert.Equal(t, category.ID, listing.CategoryIDs[0])

		line, err := env.queues.FindLineByExternalID(ctx, env.instance.ID, queue.KindProduct, "501")
		require.NoError(t, err)
		assert.Equal(t, queue.LineStateCompleted, line.State)

		reloaded, err := env.instances.FindByID(ctx, env.instance.ID)
		require.NoError(t, err)
		assert.NotNil(t, reloaded.LastProductSyncAt)
	})

	t.Run("An unknown product fails when creation is disabled", func(t *testing.T) {
		env := newProductImportEnv(t)
		env.instance.CreateProductIfNotFound = false
		require.NoError(t, env.instances.Save(ctx, env.instance))
		env.mux.HandleFunc("/wp-json/wc/v3/products", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, "["+simpleProductJSON+"]")
		})

		require.NoError(t, env.service.ImportAll(ctx, env.instance, queue.TriggerScheduled))

		line, err := env.queues.FindLineByExternalID(ctx, env.instance.ID, queue.KindProduct, "501")
		require.NoError(t, err)
		assert.Equal(t, queue.LineStateFailed, line.State)
		assert.Contains(t, line.LastError, "creation is disabled")

		var listings int64
		require.NoError(t, env.db.Model(&models.ListingModel{}).Count(&listings).Error)
		assert.Equal(t, int64(0), listings)
	})

	t.Run("Matches an existing template by name instead of creating one", func(t *testing.T) {
		env := newProductImportEnv(t)
		env.instance.CreateProductIfNotFound = false
		require.NoError(t, env.instances.Save(ctx, env.instance))
		templateID, err := env.erpCat.CreateTemplate(ctx, "Widget")
		require.NoError(t, err)

		env.mux.HandleFunc("/wp-json/wc/v3/products", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, "["+simpleProductJSON+"]")
		})

		require.NoError(t, env.service.ImportAll(ctx, env.instance, queue.TriggerScheduled))

		var templates int64
		require.NoError(t, env.db.Model(&erp.TemplateModel{}).Count(&templates).Error)
		assert.Equal(t, int64(1), templates)

		variantID, err := env.erpCat.FindVariantBySKU(ctx, "WIDGET-1")
		require.NoError(t, err)
		listing, err := env.listings.FindByRemoteID(ctx, env.instance.ID, "501")
		require.NoError(t, err)
		assert.Equal(t, variantID, listing.Items[0].ProductID)
		assert.Equal(t, templateID, listing.TemplateID)
	})

	t.Run("A variable product links variations by attribute values", func(t *testing.T) {
		env := newProductImportEnv(t)
		env.mux.HandleFunc("/wp-json/wc/v3/products", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[{
				"id": 700, "name": "Tee", "type": "variable", "status": "publish",
				"attributes": [{"id":1,"name":"Size","variation":true,"options":["S","M"]}]
			}]`)
		})
		env.mux.HandleFunc("/wp-json/wc/v3/products/700/variations", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[
				{"id":701,"sku":"TEE-S","price":"15.00","attributes":[{"name":"Size","option":"S"}]},
				{"id":702,"sku":"","price":"15.00","attributes":[{"name":"Size","option":"M"}]}
			]`)
		})

		require.NoError(t, env.service.ImportAll(ctx, env.instance, queue.TriggerScheduled))

		listing, err := env.listings.FindByRemoteID(ctx, env.instance.ID, "700")
		require.NoError(t, err)
		require.Len(t, listing.Items, 1)
		assert.Equal(t, "TEE-S", listing.Items[0].SKU)
		assert.Equal(t, "701", listing.Items[0].RemoteID)

		variantID, err := env.erpCat.FindVariantBySKU(ctx, "TEE-S")
		require.NoError(t, err)
		assert.Equal(t, variantID, listing.Items[0].ProductID)

		line, err := env.queues.FindLineByExternalID(ctx, env.instance.ID, queue.KindProduct, "700")
		require.NoError(t, err)
		assert.Equal(t, queue.LineStateCompleted, line.State)
	})
}

package sync

import (
	"context"
	"encoding/json"
	"errors"
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
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/partner"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/sales"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/erp"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence/models"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/woocommerce"
)

// stubProductImporter stands in for the on-demand product import when the
// store side of the catalog is not part of the test
type stubProductImporter struct {
	err error
}

func (s stubProductImporter) ImportByRemoteID(ctx context.Context, instance *store.Instance, client *woocommerce.Client, remoteID int64) error {
	return s.err
}

type orderImportEnv struct {
	db        *gorm.DB
	mux       *http.ServeMux
	instance  *store.Instance
	instances store.InstanceRepository
	orders    sales.OrderRepository
	statuses  sales.FinancialStatusRepository
	policies  sales.WorkflowPolicyRepository
	carriers  sales.CarrierRepository
	customers partner.Repository
	listings  catalog.ListingRepository
	queues    queue.Repository
	workflow  sales.ErpSalesWorkflow
	provision *ProvisionService
	service   *OrderImportService
}

func newOrderImportEnv(t *testing.T) *orderImportEnv {
	t.Helper()
	db := setupSyncDB(t)
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	ctx := context.Background()
	instance := testInstance(t, server.URL)
	instances := persistence.NewGormInstanceRepository(db)
	require.NoError(t, instances.Save(ctx, instance))

	orders := persistence.NewGormOrderRepository(db)
	gateways := persistence.NewGormGatewayRepository(db)
	statuses := persistence.NewGormFinancialStatusRepository(db)
	policies := persistence.NewGormWorkflowPolicyRepository(db)
	carriers := persistence.NewGormCarrierRepository(db)
	customers := persistence.NewGormCustomerRepository(db)
	taxes := persistence.NewGormTaxRepository(db)
	listings := persistence.NewGormListingRepository(db)
	queues := persistence.NewGormQueueRepository(db)
	logs := persistence.NewGormOperationLogRepository(db)

	recorder := NewRecorder(logs, zap.NewNop())
	engine := NewEngine(queues, recorder, queue.DefaultRetryPolicy(), 50, zap.NewNop())
	provision := NewProvisionService(gateways, statuses, policies, recorder, zap.NewNop())
	customerImport := NewCustomerImportService(customers, engine, 100, zap.NewNop())
	workflow := erp.NewGormSalesWorkflow(db, orders)

	priceLists := erp.NewGormPriceLists(db)

	service := NewOrderImportService(orders, carriers, policies, statuses, taxes, listings,
		instances, customerImport, provision, stubProductImporter{err: errors.New("product feed unavailable")},
		priceLists, workflow, engine, testClients(), 100, zap.NewNop())

	return &orderImportEnv{
		db:        db,
		mux:       mux,
		instance:  instance,
		instances: instances,
		orders:    orders,
		statuses:  statuses,
		policies:  policies,
		carriers:  carriers,
		customers: customers,
		listings:  listings,
		queues:    queues,
		workflow:  workflow,
		provision: provision,
		service:   service,
	}
}

// serveOrders answers the order feed with a fixed page per status filter
func (e *orderImportEnv) serveOrders(byStatus map[string]string) {
	e.mux.HandleFunc("/wp-json/wc/v3/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if body, ok := byStatus[r.URL.Query().Get("status")]; ok {
			fmt.Fprint(w, body)
			return
		}
		fmt.Fprint(w, "[]")
	})
}

func (e *orderImportEnv) serveCustomer(id int64, body string) {
	e.mux.HandleFunc(fmt.Sprintf("/wp-json/wc/v3/customers/%d", id), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
}

// seedListing mirrors an already-exported product so order lines can
// resolve by SKU, returning the local variant identifier
func (e *orderImportEnv) seedListing(t *testing.T, sku, remoteID string) uuid.UUID {
	t.Helper()
	listing, err := catalog.NewListing(e.instance.ID, uuid.New(), "Widget")
	require.NoError(t, err)
	item, err := listing.AddItem(uuid.New(), sku, decimal.NewFromFloat(19.98))
	require.NoError(t, err)
	listing.MarkExported(remoteID)
	item.MarkExported(remoteID)
	require.NoError(t, e.listings.Save(context.Background(), listing))
	return item.ProductID
}

func (e *orderImportEnv) orderCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&models.SalesOrderModel{}).Count(&count).Error)
	return count
}

const liveStatuses = "processing,completed,on-hold"

const customer5JSON = `{
	"id": 5, "email": "jane@example.com", "first_name": "Jane", "last_name": "Smith",
	"billing": {"first_name":"Jane","last_name":"Smith","address_1":"1 Main St","city":"Springfield","postcode":"62704","country":"US","email":"jane@example.com"},
	"shipping": {"first_name":"Jane","last_name":"Smith","address_1":"1 Main St","city":"Springfield","postcode":"62704","country":"US"}
}`

func orderJSON(id int64, number, status, extra string) string {
	return fmt.Sprintf(`{
		"id": %d, "number": %q, "status": %q, "currency": "USD",
		"date_created": "2024-05-02T10:15:00", "date_paid": "2024-05-02T10:16:00",
		"total": "39.96", "payment_method": "stripe", "payment_method_title": "Credit Card (Stripe)",
		"transaction_id": "pi_3OaX", "customer_id": 5,
		"billing": {"first_name":"Jane","last_name":"Smith","address_1":"1 Main St","city":"Springfield","postcode":"62704","country":"US","email":"jane@example.com"},
		"shipping": {"first_name":"Jane","last_name":"Smith","address_1":"1 Main St","city":"Springfield","postcode":"62704","country":"US"},
		"line_items": [{"id":11,"name":"Widget","product_id":77,"variation_id":0,"sku":"WIDGET-1","quantity":2,"subtotal":"39.96","total":"39.96","price":19.98}]%s
	}`, id, number, status, extra)
}

// ---------------------------------------------------------------------------
// Import Tests
// ---------------------------------------------------------------------------

func TestOrderImportService_ImportOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("Imports a storefront order end to end", func(t *testing.T) {
		env := newOrderImportEnv(t)
		productID := env.seedListing(t, "WIDGET-1", "77")
		env.serveOrders(map[string]string{liveStatuses: "[" + orderJSON(1001, "1001", "processing", "") + "]"})
		env.serveCustomer(5, customer5JSON)

		require.NoError(t, env.service.ImportOrders(ctx, env.instance, queue.TriggerScheduled))

		order, err := env.orders.FindByExternalNumber(ctx, env.instance.ID, "1001")
		require.NoError(t, err)
		assert.Equal(t, "1001", order.ExternalID)
		assert.Equal(t, sales.OrderStateDraft, order.State)
		assert.True(t, order.AmountTotal.Equal(decimal.NewFromFloat(39.96)))
		assert.False(t, order.SkipAutoWorkflow)
		assert.NotNil(t, order.DeliveryAddressID)
		assert.NotNil(t, order.InvoiceAddressID)

		require.Len(t, order.Lines, 1)
		assert.Equal(t, productID, order.Lines[0].ProductID)
		assert.True(t, order.Lines[0].Quantity.Equal(decimal.NewFromInt(2)))
		assert.True(t, order.Lines[0].UnitPrice.Equal(decimal.NewFromFloat(19.98)))
		assert.Equal(t, "11", order.Lines[0].ExternalLineID)

		customer, err := env.customers.FindByExternalID(ctx, env.instance.ID, "5")
		require.NoError(t, err)
		assert.Equal(t, "Jane Smith", customer.Name)

		line, err := env.queues.FindLineByExternalID(ctx, env.instance.ID, queue.KindOrder, "1001")
		require.NoError(t, err)
		assert.Equal(t, queue.LineStateCompleted, line.State)
		require.NotNil(t, line.ResolvedRecordID)
		assert.Equal(t, order.ID, *line.ResolvedRecordID)

		reloaded, err := env.instances.FindByID(ctx, env.instance.ID)
		require.NoError(t, err)
		assert.NotNil(t, reloaded.LastOrderSyncAt)
	})

	t.Run("Importing the same order twice keeps one mirror", func(t *testing.T) {
		env := newOrderImportEnv(t)
		env.seedListing(t, "WIDGET-1", "77")
		env.serveOrders(map[string]string{liveStatuses: "[" + orderJSON(1001, "1001", "processing", "") + "]"})
		env.serveCustomer(5, customer5JSON)

		require.NoError(t, env.service.ImportOrders(ctx, env.instance, queue.TriggerScheduled))
		require.NoError(t, env.service.ImportOrders(ctx, env.instance, queue.TriggerScheduled))

		assert.Equal(t, int64(1), env.orderCount(t))
		line, err := env.queues.FindLineByExternalID(ctx, env.instance.ID, queue.KindOrder, "1001")
		require.NoError(t, err)
		assert.Equal(t, queue.LineStateCompleted, line.State)
	})

	t.Run("A deactivated financial status blocks the import entirely", func(t *testing.T) {
		env := newOrderImportEnv(t)
		env.seedListing(t, "WIDGET-1", "77")
		env.serveOrders(map[string]string{liveStatuses: "[" + orderJSON(1001, "1001", "processing", "") + "]"})
		env.serveCustomer(5, customer5JSON)

		_, err := env.provision.EnsureGateway(ctx, env.instance.ID, "stripe", "Stripe")
		require.NoError(t, err)
		require.NoError(t, env.db.Model(&models.FinancialStatusModel{}).
			Where("instance_id = ?", env.instance.ID).
			Update("active", false).Error)

		require.NoError(t, env.service.ImportOrders(ctx, env.instance, queue.TriggerScheduled))

		assert.Equal(t, int64(0), env.orderCount(t))
		line, err := env.queues.FindLineByExternalID(ctx, env.instance.ID, queue.KindOrder, "1001")
		require.NoError(t, err)
		assert.Equal(t, queue.LineStateFailed, line.State)
		assert.Contains(t, line.LastError, "no financial status")
	})

	t.Run("An unresolvable product skips the line but not the order", func(t *testing.T) {
		env := newOrderImportEnv(t)
		env.serveOrders(map[string]string{liveStatuses: "[" + orderJSON(3003, "3003", "processing", "") + "]"})
		env.serveCustomer(5, customer5JSON)

		// the policy would confirm, but a degraded order never enters the
		// automatic workflow
		policy, err := env.provision.EnsureDefaultPolicy(ctx)
		require.NoError(t, err)
		policy.ConfirmSaleOrder = true
		require.NoError(t, env.policies.Save(ctx, policy))

		require.NoError(t, env.service.ImportOrders(ctx, env.instance, queue.TriggerScheduled))

		order, err := env.orders.FindByExternalNumber(ctx, env.instance.ID, "3003")
		require.NoError(t, err)
		assert.Equal(t, sales.OrderStateDraft, order.State)
		assert.True(t, order.SkipAutoWorkflow)
		require.NotEmpty(t, order.Notes)
		assert.Contains(t, order.Notes[0], "skipped")
		assert.Empty(t, order.Lines)

		line, err := env.queues.FindLineByExternalID(ctx, env.instance.ID, queue.KindOrder, "3003")
		require.NoError(t, err)
		assert.Equal(t, queue.LineStateCompleted, line.State)
	})

	t.Run("A paid order runs the full workflow", func(t *testing.T) {
		env := newOrderImportEnv(t)
		env.seedListing(t, "WIDGET-1", "77")
		env.serveOrders(map[string]string{liveStatuses: "[" + orderJSON(1001, "1001", "processing", "") + "]"})
		env.serveCustomer(5, customer5JSON)

		journalID := uuid.New()
		policy, err := env.provision.EnsureDefaultPolicy(ctx)
		require.NoError(t, err)
		policy.ConfirmSaleOrder = true
		policy.ValidateDeliveryOrder = true
		policy.CreateInvoice = true
		policy.JournalID = &journalID
		require.NoError(t, env.policies.Save(ctx, policy))

		require.NoError(t, env.service.ImportOrders(ctx, env.instance, queue.TriggerScheduled))

		order, err := env.orders.FindByExternalNumber(ctx, env.instance.ID, "1001")
		require.NoError(t, err)
		assert.Equal(t, sales.OrderStateSale, order.State)

		deliveries, err := env.workflow.OpenDeliveries(ctx, order.ID)
		require.NoError(t, err)
		assert.Empty(t, deliveries)

		var payments int64
		require.NoError(t, env.db.Model(&erp.PaymentModel{}).Count(&payments).Error)
		assert.Equal(t, int64(1), payments)
	})

	t.Run("The order carries a price list", func(t *testing.T) {
		env := newOrderImportEnv(t)
		env.seedListing(t, "WIDGET-1", "77")
		env.serveOrders(map[string]string{liveStatuses: "[" + orderJSON(1001, "1001", "processing", "") + "]"})
		env.serveCustomer(5, customer5JSON)

		lists := erp.NewGormPriceLists(env.db)
		usdList, err := lists.CreatePriceList(ctx, "Retail USD", "USD")
		require.NoError(t, err)
		_, err = lists.CreatePriceList(ctx, "Retail EUR", "EUR")
		require.NoError(t, err)

		require.NoError(t, env.service.ImportOrders(ctx, env.instance, queue.TriggerScheduled))

		order, err := env.orders.FindByExternalNumber(ctx, env.instance.ID, "1001")
		require.NoError(t, err)
		require.NotNil(t, order.PriceListID)
		assert.Equal(t, usdList, *order.PriceListID)
	})

	t.Run("An instance price list overrides the currency match", func(t *testing.T) {
		env := newOrderImportEnv(t)
		env.seedListing(t, "WIDGET-1", "77")
		env.serveOrders(map[string]string{liveStatuses: "[" + orderJSON(1001, "1001", "processing", "") + "]"})
		env.serveCustomer(5, customer5JSON)

		lists := erp.NewGormPriceLists(env.db)
		_, err := lists.CreatePriceList(ctx, "Retail USD", "USD")
		require.NoError(t, err)
		override, err := lists.CreatePriceList(ctx, "Wholesale", "USD")
		require.NoError(t, err)
		env.instance.PriceListID = &override
		require.NoError(t, env.instances.Save(ctx, env.instance))

		require.NoError(t, env.service.ImportOrders(ctx, env.instance, queue.TriggerScheduled))

		order, err := env.orders.FindByExternalNumber(ctx, env.instance.ID, "1001")
		require.NoError(t, err)
		require.NotNil(t, order.PriceListID)
		assert.Equal(t, override, *order.PriceListID)
	})

	t.Run("Invoicing without confirmation leaves the draft untouched", func(t *testing.T) {
		env := newOrderImportEnv(t)
		env.seedListing(t, "WIDGET-1", "77")
		env.serveOrders(map[string]string{liveStatuses: "[" + orderJSON(1001, "1001", "processing", "") + "]"})
		env.serveCustomer(5, customer5JSON)

		journalID := uuid.New()
		policy, err := env.provision.EnsureDefaultPolicy(ctx)
		require.NoError(t, err)
		policy.ConfirmSaleOrder = false
		policy.ValidateDeliveryOrder = true
		policy.CreateInvoice = true
		policy.JournalID = &journalID
		require.NoError(t, env.policies.Save(ctx, policy))

		require.NoError(t, env.service.ImportOrders(ctx, env.instance, queue.TriggerScheduled))

		order, err := env.orders.FindByExternalNumber(ctx, env.instance.ID, "1001")
		require.NoError(t, err)
		assert.Equal(t, sales.OrderStateDraft, order.State)

		var invoices int64
		require.NoError(t, env.db.Model(&erp.InvoiceModel{}).Count(&invoices).Error)
		assert.Equal(t, int64(0), invoices)

		line, err := env.queues.FindLineByExternalID(ctx, env.instance.ID, queue.KindOrder, "1001")
		require.NoError(t, err)
		assert.Equal(t, queue.LineStateCompleted, line.State)
	})

	t.Run("Shipping and fee charges become their own lines", func(t *testing.T) {
		env := newOrderImportEnv(t)
		productID := env.seedListing(t, "WIDGET-1", "77")
		extra := `,
			"shipping_lines": [{"id":21,"method_title":"Flat rate","method_id":"flat_rate","total":"5.00"}],
			"fee_lines": [{"id":31,"name":"Gift wrap","total":"2.50"},{"id":32,"name":"Waived","total":"0.00"}]`
		env.serveOrders(map[string]string{liveStatuses: "[" + orderJSON(6006, "6006", "processing", extra) + "]"})
		env.serveCustomer(5, customer5JSON)

		require.NoError(t, env.service.ImportOrders(ctx, env.instance, queue.TriggerScheduled))

		order, err := env.orders.FindByExternalNumber(ctx, env.instance.ID, "6006")
		require.NoError(t, err)
		require.Len(t, order.Lines, 3)

		var product, delivery, fee *sales.OrderLine
		for i := range order.Lines {
			switch {
			case order.Lines[i].IsDelivery:
				delivery = &order.Lines[i]
			case order.Lines[i].IsFee:
				fee = &order.Lines[i]
			default:
				product = &order.Lines[i]
			}
		}
		require.NotNil(t, product)
		assert.Equal(t, productID, product.ProductID)
		require.NotNil(t, delivery)
		assert.Equal(t, env.instance.ShippingProductID, delivery.ProductID)
		assert.True(t, delivery.UnitPrice.Equal(decimal.NewFromInt(5)))
		require.NotNil(t, fee)
		assert.Equal(t, "Gift wrap", fee.Description)
		assert.True(t, fee.UnitPrice.Equal(decimal.NewFromFloat(2.50)))

		carrier, err := env.carriers.FindByCode(ctx, env.instance.ID, "flat_rate")
		require.NoError(t, err)
		assert.Equal(t, "Flat rate", carrier.Name)
		require.NotNil(t, order.CarrierID)
		assert.Equal(t, carrier.ID, *order.CarrierID)
	})

	t.Run("A coupon-covered zero total routes to the no-payment gateway", func(t *testing.T) {
		env := newOrderImportEnv(t)
		env.seedListing(t, "WIDGET-1", "77")
		free := `{
			"id": 7007, "number": "7007", "status": "processing", "currency": "USD",
			"date_created": "2024-05-02T10:15:00", "total": "0.00", "discount_total": "39.96",
			"payment_method": "bacs", "payment_method_title": "Direct bank transfer",
			"customer_id": 5,
			"coupon_lines": [{"id":61,"code":"FREEBIE","discount":"39.96"}],
			"billing": {"first_name":"Jane","last_name":"Smith","address_1":"1 Main St","city":"Springfield","postcode":"62704","country":"US","email":"jane@example.com"},
			"shipping": {"first_name":"Jane","last_name":"Smith","address_1":"1 Main St","city":"Springfield","postcode":"62704","country":"US"},
			"line_items": [{"id":71,"name":"Widget","product_id":77,"sku":"WIDGET-1","quantity":2,"subtotal":"39.96","total":"0.00","price":19.98}]
		}`
		env.serveOrders(map[string]string{liveStatuses: "[" + free + "]"})
		env.serveCustomer(5, customer5JSON)

		require.NoError(t, env.service.ImportOrders(ctx, env.instance, queue.TriggerScheduled))

		order, err := env.orders.FindByExternalNumber(ctx, env.instance.ID, "7007")
		require.NoError(t, err)
		require.NotNil(t, order.GatewayID)

		gateways := persistence.NewGormGatewayRepository(env.db)
		gateway, err := gateways.FindByCode(ctx, env.instance.ID, sales.NoPaymentGatewayCode)
		require.NoError(t, err)
		assert.Equal(t, gateway.ID, *order.GatewayID)
		assert.Equal(t, "No Payment Method", gateway.Name)
	})

	t.Run("An unmapped tax leaves the order behind but fails the line", func(t *testing.T) {
		env := newOrderImportEnv(t)
		env.seedListing(t, "WIDGET-1", "77")
		env.instance.TaxBehaviour = store.TaxBehaviourCreateRemote
		require.NoError(t, env.instances.Save(ctx, env.instance))

		taxed := `{
			"id": 4004, "number": "4004", "status": "processing", "currency": "GBP",
			"date_created": "2024-05-02T10:15:00", "total": "47.95",
			"payment_method": "stripe", "payment_method_title": "Stripe", "transaction_id": "pi_44",
			"customer_id": 5,
			"billing": {"first_name":"Jane","last_name":"Smith","address_1":"1 Main St","city":"Springfield","postcode":"62704","country":"US","email":"jane@example.com"},
			"shipping": {},
			"line_items": [{"id":41,"name":"Widget","product_id":77,"sku":"WIDGET-1","quantity":2,"subtotal":"39.96","total":"39.96","price":19.98,"taxes":[{"id":9,"total":"7.99"}]}]
		}`
		env.serveOrders(map[string]string{liveStatuses: "[" + taxed + "]"})
		env.serveCustomer(5, customer5JSON)
		env.mux.HandleFunc("/wp-json/wc/v3/taxes/9", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":9,"country":"GB","rate":"20.0000","name":"VAT","class":"standard"}`)
		})

		require.NoError(t, env.service.ImportOrders(ctx, env.instance, queue.TriggerScheduled))

		order, err := env.orders.FindByExternalNumber(ctx, env.instance.ID, "4004")
		require.NoError(t, err)
		assert.True(t, order.SkipAutoWorkflow)

		line, err := env.queues.FindLineByExternalID(ctx, env.instance.ID, queue.KindOrder, "4004")
		require.NoError(t, err)
		assert.Equal(t, queue.LineStateFailed, line.State)
		assert.Contains(t, line.LastError, "not mapped")
	})

	t.Run("An order without a customer id fails its line", func(t *testing.T) {
		env := newOrderImportEnv(t)
		env.seedListing(t, "WIDGET-1", "77")
		anonymous := `{
			"id": 5005, "number": "5005", "status": "processing",
			"date_created": "2024-05-02T10:15:00", "total": "39.96",
			"payment_method": "cod", "payment_method_title": "Cash on delivery",
			"customer_id": 0,
			"billing": {"first_name":"Guy","last_name":"Fox","address_1":"5 Elm St","city":"Springfield","postcode":"62704","country":"US","email":"guy@example.com"},
			"shipping": {"first_name":"Guy","last_name":"Fox","address_1":"5 Elm St","city":"Springfield","postcode":"62704","country":"US"},
			"line_items": [{"id":51,"name":"Widget","product_id":77,"sku":"WIDGET-1","quantity":2,"subtotal":"39.96","total":"39.96","price":19.98}]
		}`
		env.serveOrders(map[string]string{liveStatuses: "[" + anonymous + "]"})

		require.NoError(t, env.service.ImportOrders(ctx, env.instance, queue.TriggerScheduled))

		assert.Equal(t, int64(0), env.orderCount(t))
		var customers int64
		require.NoError(t, env.db.Model(&models.CustomerModel{}).Count(&customers).Error)
		assert.Equal(t, int64(0), customers)

		line, err := env.queues.FindLineByExternalID(ctx, env.instance.ID, queue.KindOrder, "5005")
		require.NoError(t, err)
		assert.Equal(t, queue.LineStateFailed, line.State)
		assert.Contains(t, line.LastError, "no customer id")
	})
}

// ---------------------------------------------------------------------------
// Cancellation Tests
// ---------------------------------------------------------------------------

func TestOrderImportService_ImportCancelled(t *testing.T) {
	ctx := context.Background()

	importLive := func(t *testing.T, env *orderImportEnv) *sales.SalesOrder {
		t.Helper()
		require.NoError(t, env.service.ImportOrders(ctx, env.instance, queue.TriggerScheduled))
		order, err := env.orders.FindByExternalNumber(ctx, env.instance.ID, "1001")
		require.NoError(t, err)
		return order
	}

	t.Run("A never-imported order cannot be cancelled", func(t *testing.T) {
		env := newOrderImportEnv(t)
		env.serveOrders(map[string]string{"cancelled": "[" + orderJSON(2002, "2002", "cancelled", "") + "]"})

		require.NoError(t, env.service.ImportCancelled(ctx, env.instance, queue.TriggerScheduled))

		line, err := env.queues.FindLineByExternalID(ctx, env.instance.ID, queue.KindOrder, "2002")
		require.NoError(t, err)
		assert.Equal(t, queue.LineStateFailed, line.State)
		assert.Contains(t, line.LastError, "never imported")
	})

	t.Run("A draft order is cancelled and stays cancelled", func(t *testing.T) {
		env := newOrderImportEnv(t)
		env.seedListing(t, "WIDGET-1", "77")
		env.serveOrders(map[string]string{
			liveStatuses: "[" + orderJSON(1001, "1001", "processing", "") + "]",
			"cancelled":  "[" + orderJSON(1001, "1001", "cancelled", "") + "]",
		})
		env.serveCustomer(5, customer5JSON)
		order := importLive(t, env)

		require.NoError(t, env.service.ImportCancelled(ctx, env.instance, queue.TriggerScheduled))
		cancelled, err := env.orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, sales.OrderStateCancel, cancelled.State)

		// the feed repeats; cancelling again settles without a failure
		require.NoError(t, env.service.ImportCancelled(ctx, env.instance, queue.TriggerScheduled))
		line, err := env.queues.FindLineByExternalID(ctx, env.instance.ID, queue.KindOrder, "1001")
		require.NoError(t, err)
		assert.Equal(t, queue.LineStateCompleted, line.State)
	})

	t.Run("A locked order refuses cancellation", func(t *testing.T) {
		env := newOrderImportEnv(t)
		env.seedListing(t, "WIDGET-1", "77")
		env.serveOrders(map[string]string{
			liveStatuses: "[" + orderJSON(1001, "1001", "processing", "") + "]",
			"cancelled":  "[" + orderJSON(1001, "1001", "cancelled", "") + "]",
		})
		env.serveCustomer(5, customer5JSON)
		order := importLive(t, env)

		order.State = sales.OrderStateDone
		require.NoError(t, env.orders.Save(ctx, order))

		require.NoError(t, env.service.ImportCancelled(ctx, env.instance, queue.TriggerScheduled))
		line, err := env.queues.FindLineByExternalID(ctx, env.instance.ID, queue.KindOrder, "1001")
		require.NoError(t, err)
		assert.Equal(t, queue.LineStateFailed, line.State)
		assert.Contains(t, line.LastError, "locked")

		kept, err := env.orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, sales.OrderStateDone, kept.State)
	})
}

// guards against accidental fixture drift
func TestOrderFixtureParses(t *testing.T) {
	var order woocommerce.Order
	require.NoError(t, json.Unmarshal([]byte(orderJSON(1001, "1001", "processing", "")), &order))
	assert.Equal(t, int64(1001), order.ID)
	require.Len(t, order.LineItems, 1)
	assert.Equal(t, 2, order.LineItems[0].Quantity)
}

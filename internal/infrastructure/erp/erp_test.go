package erp

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/catalog"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/sales"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/persistence/models"
)

func setupErpDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	migrations := append(Models(), &models.SalesOrderModel{}, &models.OrderLineModel{})
	require.NoError(t, db.AutoMigrate(migrations...))
	return db
}

func TestGormErpCatalog_TemplateAndVariants(t *testing.T) {
	db := setupErpDB(t)
	cat := NewGormErpCatalog(db)
	ctx := context.Background()

	templateID, err := cat.CreateTemplate(ctx, "Classic Tee")
	require.NoError(t, err)

	count, err := cat.VariantCount(ctx, templateID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	found, err := cat.FindTemplateByName(ctx, "Classic Tee")
	require.NoError(t, err)
	assert.Equal(t, templateID, found)

	err = cat.SyncAttributeLines(ctx, templateID, []catalog.AttributeLine{
		{Name: "Color", Values: []string{"Red", "Blue"}},
		{Name: "Size", Values: []string{"S", "M", "L"}},
	})
	require.NoError(t, err)

	count, err = cat.VariantCount(ctx, templateID)
	require.NoError(t, err)
	// six combinations plus the initial attribute-less variant
	assert.Equal(t, 7, count)

	variantID, err := cat.FindVariantByAttributes(ctx, templateID, map[string]string{"Color": "Blue", "Size": "M"})
	require.NoError(t, err)

	require.NoError(t, cat.SetVariantSKU(ctx, variantID, "TEE-BLU-M"))
	bySKU, err := cat.FindVariantBySKU(ctx, "TEE-BLU-M")
	require.NoError(t, err)
	assert.Equal(t, variantID, bySKU)

	_, err = cat.FindVariantByAttributes(ctx, templateID, map[string]string{"Color": "Green", "Size": "M"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormErpCatalog_SyncIsIdempotent(t *testing.T) {
	db := setupErpDB(t)
	cat := NewGormErpCatalog(db)
	ctx := context.Background()

	templateID, err := cat.CreateTemplate(ctx, "Mug")
	require.NoError(t, err)

	lines := []catalog.AttributeLine{{Name: "Color", Values: []string{"White", "Black"}}}
	require.NoError(t, cat.SyncAttributeLines(ctx, templateID, lines))
	require.NoError(t, cat.SyncAttributeLines(ctx, templateID, lines))

	count, err := cat.VariantCount(ctx, templateID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGormErpCatalog_PriceAndStock(t *testing.T) {
	db := setupErpDB(t)
	cat := NewGormErpCatalog(db)
	ctx := context.Background()

	templateID, err := cat.CreateTemplate(ctx, "Poster")
	require.NoError(t, err)
	require.NoError(t, cat.SetListPrice(ctx, templateID, decimal.NewFromFloat(12.50)))

	variantID, err := cat.FindVariantByAttributes(ctx, templateID, map[string]string{})
	require.NoError(t, err)

	warehouseID := uuid.New()
	qty, err := cat.AvailableQuantity(ctx, variantID, warehouseID)
	require.NoError(t, err)
	assert.True(t, qty.IsZero())

	require.NoError(t, cat.SetQuantity(ctx, variantID, warehouseID, decimal.NewFromInt(40)))
	qty, err = cat.AvailableQuantity(ctx, variantID, warehouseID)
	require.NoError(t, err)
	assert.True(t, qty.Equal(decimal.NewFromInt(40)))
}

func TestGormSalesWorkflow_OrderLifecycle(t *testing.T) {
	db := setupErpDB(t)
	orders := persistence.NewGormOrderRepository(db)
	workflow := NewGormSalesWorkflow(db, orders)
	ctx := context.Background()

	order, err := sales.NewSalesOrder(uuid.New(), uuid.New(), "9", "WC-9", time.Now().UTC())
	require.NoError(t, err)
	order.AmountTotal = decimal.NewFromFloat(99.00)
	order.AddLine(sales.OrderLine{
		ProductID: uuid.New(),
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: decimal.NewFromFloat(99.00),
	})
	require.NoError(t, orders.Save(ctx, order))

	require.NoError(t, workflow.ConfirmOrder(ctx, order.ID))

	confirmed, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.OrderStateSale, confirmed.State)

	deliveries, err := workflow.OpenDeliveries(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)

	require.NoError(t, workflow.ValidateDelivery(ctx, deliveries[0]))
	deliveries, err = workflow.OpenDeliveries(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, deliveries)

	// a validated delivery cannot be validated twice
	var done DeliveryModel
	require.NoError(t, db.First(&done, "order_id = ?", order.ID).Error)
	assert.ErrorIs(t, workflow.ValidateDelivery(ctx, done.ID), shared.ErrNotFound)

	invoiceID, err := workflow.CreateInvoice(ctx, order.ID)
	require.NoError(t, err)

	journalID := uuid.New()
	require.NoError(t, workflow.RegisterPayment(ctx, invoiceID, journalID, decimal.NewFromFloat(99.00)))

	var invoice InvoiceModel
	require.NoError(t, db.First(&invoice, "id = ?", invoiceID).Error)
	assert.Equal(t, invoiceStatePaid, invoice.State)

	// a settled invoice rejects further payments
	err = workflow.RegisterPayment(ctx, invoiceID, journalID, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInvoiceNotOpen)
}

func TestGormSalesWorkflow_InvoiceRequiresConfirmedOrder(t *testing.T) {
	db := setupErpDB(t)
	orders := persistence.NewGormOrderRepository(db)
	workflow := NewGormSalesWorkflow(db, orders)
	ctx := context.Background()

	order, err := sales.NewSalesOrder(uuid.New(), uuid.New(), "11", "WC-11", time.Now().UTC())
	require.NoError(t, err)
	order.AmountTotal = decimal.NewFromFloat(10.00)
	require.NoError(t, orders.Save(ctx, order))

	_, err = workflow.CreateInvoice(ctx, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotConfirmed)

	var invoices int64
	require.NoError(t, db.Model(&InvoiceModel{}).Count(&invoices).Error)
	assert.Equal(t, int64(0), invoices)
}

func TestGormSalesWorkflow_CancelOrder(t *testing.T) {
	db := setupErpDB(t)
	orders := persistence.NewGormOrderRepository(db)
	workflow := NewGormSalesWorkflow(db, orders)
	ctx := context.Background()

	order, err := sales.NewSalesOrder(uuid.New(), uuid.New(), "10", "WC-10", time.Now().UTC())
	require.NoError(t, err)
	order.AddLine(sales.OrderLine{
		ProductID: uuid.New(),
		Quantity:  decimal.NewFromInt(2),
		UnitPrice: decimal.NewFromInt(5),
	})
	require.NoError(t, orders.Save(ctx, order))
	require.NoError(t, workflow.ConfirmOrder(ctx, order.ID))

	require.NoError(t, workflow.CancelOrder(ctx, order.ID))

	cancelled, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.OrderStateCancel, cancelled.State)

	deliveries, err := workflow.OpenDeliveries(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, deliveries)
}

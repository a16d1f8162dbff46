package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/catalog"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/partner"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/sales"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/woocommerce"
)

// ClientFactory builds a store API client for an instance
type ClientFactory func(*store.Instance) *woocommerce.Client

// orderDateLayout is how the store renders order timestamps
const orderDateLayout = "2006-01-02T15:04:05"

// importStatuses is the storefront status feed imported as live orders
const importStatuses = "processing,completed,on-hold"

// productImporter pulls a single storefront product on demand when an order
// line references an unknown SKU
type productImporter interface {
	ImportByRemoteID(ctx context.Context, instance *store.Instance, client *woocommerce.Client, remoteID int64) error
}

// OrderImportService mirrors storefront orders into local sales orders and
// drives the automatic workflow configured for their payment gateway.
type OrderImportService struct {
	orders     sales.OrderRepository
	carriers   sales.CarrierRepository
	policies   sales.WorkflowPolicyRepository
	statuses   sales.FinancialStatusRepository
	taxes      catalog.TaxRepository
	listings   catalog.ListingRepository
	instances  store.InstanceRepository
	customers  *CustomerImportService
	provision  *ProvisionService
	products   productImporter
	priceLists sales.PriceListSource
	workflow   sales.ErpSalesWorkflow
	engine     *Engine
	clients    ClientFactory
	pageSize   int
	logger     *zap.Logger
}

// NewOrderImportService creates a new OrderImportService
func NewOrderImportService(
	orders sales.OrderRepository,
	carriers sales.CarrierRepository,
	policies sales.WorkflowPolicyRepository,
	statuses sales.FinancialStatusRepository,
	taxes catalog.TaxRepository,
	listings catalog.ListingRepository,
	instances store.InstanceRepository,
	customers *CustomerImportService,
	provision *ProvisionService,
	products productImporter,
	priceLists sales.PriceListSource,
	workflow sales.ErpSalesWorkflow,
	engine *Engine,
	clients ClientFactory,
	pageSize int,
	logger *zap.Logger,
) *OrderImportService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &OrderImportService{
		orders:     orders,
		carriers:   carriers,
		policies:   policies,
		statuses:   statuses,
		taxes:      taxes,
		listings:   listings,
		instances:  instances,
		customers:  customers,
		provision:  provision,
		products:   products,
		priceLists: priceLists,
		workflow:   workflow,
		engine:     engine,
		clients:    clients,
		pageSize:   pageSize,
		logger:     logger.Named("order-import"),
	}
}

// ---------------------------------------------------------------------------
// Feeds
// ---------------------------------------------------------------------------

// ImportOrders fetches live orders modified since the last pass, queues
// them and processes the resulting batches
func (s *OrderImportService) ImportOrders(ctx context.Context, instance *store.Instance, trigger queue.Trigger) error {
	return s.importFeed(ctx, instance, trigger, importStatuses)
}

// ImportCancelled fetches the cancelled-order feed. Cancellations run
// through the same resolver; the storefront status routes them.
func (s *OrderImportService) ImportCancelled(ctx context.Context, instance *store.Instance, trigger queue.Trigger) error {
	return s.importFeed(ctx, instance, trigger, "cancelled")
}

func (s *OrderImportService) importFeed(ctx context.Context, instance *store.Instance, trigger queue.Trigger, statuses string) error {
	client := s.clients(instance)
	started := time.Now()

	var records []Record
	err := client.ListOrders(ctx, statuses, instance.LastOrderSyncAt, s.pageSize, func(page []woocommerce.Order) error {
		for _, o := range page {
			payload, err := json.Marshal(o)
			if err != nil {
				return err
			}
			records = append(records, Record{
				ExternalID: woocommerce.FormatID(o.ID),
				Name:       o.Number,
				Payload:    payload,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	if _, err := s.engine.Enqueue(ctx, instance, queue.KindOrder, trigger, records); err != nil {
		return err
	}
	if err := s.engine.ProcessPending(ctx, instance, queue.KindOrder, trigger,
		queue.OperationOrder, queue.OperationTypeImport, s.ResolveLine); err != nil {
		return err
	}

	instance.MarkOrdersSynced(started)
	return s.instances.Save(ctx, instance)
}

// ---------------------------------------------------------------------------
// Line Resolution
// ---------------------------------------------------------------------------

// ResolveLine imports or cancels one queued order snapshot
func (s *OrderImportService) ResolveLine(ctx context.Context, instance *store.Instance, line *queue.Line) LineOutcome {
	var remote woocommerce.Order
	if err := json.Unmarshal(line.Payload, &remote); err != nil {
		return LineOutcome{Message: "malformed order payload: " + err.Error(), Fault: true, Failed: true}
	}
	if remote.Status == "cancelled" {
		return s.cancel(ctx, instance, &remote)
	}
	return s.importOrder(ctx, instance, &remote)
}

// cancel applies the cancellation feed semantics: cancel an existing order
// unless it already reached a terminal state
func (s *OrderImportService) cancel(ctx context.Context, instance *store.Instance, remote *woocommerce.Order) LineOutcome {
	order, err := s.orders.FindByExternalNumber(ctx, instance.ID, remote.Number)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return LineOutcome{
				Message: fmt.Sprintf("order %s was never imported, nothing to cancel", remote.Number),
				Fault:   true,
				Failed:  true,
			}
		}
		return LineOutcome{Message: err.Error(), Fault: true, Failed: true}
	}
	switch order.State {
	case sales.OrderStateCancel:
		return LineOutcome{RecordID: &order.ID, Message: fmt.Sprintf("order %s already cancelled", remote.Number)}
	case sales.OrderStateDone:
		return LineOutcome{
			Message: fmt.Sprintf("order %s is locked and cannot be cancelled", remote.Number),
			Fault:   true,
			Failed:  true,
		}
	}
	if err := s.workflow.CancelOrder(ctx, order.ID); err != nil {
		return LineOutcome{Message: fmt.Sprintf("cancel %s: %v", remote.Number, err), Fault: true, Failed: true}
	}
	return LineOutcome{RecordID: &order.ID, Message: fmt.Sprintf("order %s cancelled", remote.Number)}
}

// importOrder runs the order import state machine for one snapshot
func (s *OrderImportService) importOrder(ctx context.Context, instance *store.Instance, remote *woocommerce.Order) LineOutcome {
	// idempotence: an order number already mirrored is never imported twice
	existing, err := s.orders.FindByExternalNumber(ctx, instance.ID, remote.Number)
	if err == nil {
		return LineOutcome{RecordID: &existing.ID, Message: fmt.Sprintf("order %s already imported", remote.Number)}
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return LineOutcome{Message: err.Error(), Fault: true, Failed: true}
	}

	gateway, financialState, err := s.resolveGateway(ctx, instance, remote)
	if err != nil {
		return LineOutcome{Message: fmt.Sprintf("order %s: %v", remote.Number, err), Fault: true, Failed: true}
	}

	// configuration gates: both must hold before any order record exists
	status, err := s.statuses.FindActive(ctx, instance.ID, gateway.ID, financialState)
	if err != nil {
		return LineOutcome{
			Message: fmt.Sprintf("order %s: no financial status for gateway %s (%s)", remote.Number, gateway.Code, financialState),
			Fault:   true,
			Failed:  true,
		}
	}
	policy, err := s.resolvePolicy(ctx, status)
	if err != nil {
		return LineOutcome{Message: fmt.Sprintf("order %s: %v", remote.Number, err), Fault: true, Failed: true}
	}

	client := s.clients(instance)
	customer, err := s.customers.EnsureForOrder(ctx, instance, client, remote)
	if err != nil {
		return LineOutcome{Message: fmt.Sprintf("order %s: %v", remote.Number, err), Fault: true, Failed: true}
	}

	order, err := s.buildHeader(ctx, instance, remote, customer, gateway, policy)
	if err != nil {
		return LineOutcome{Message: fmt.Sprintf("order %s: %v", remote.Number, err), Fault: true, Failed: true}
	}

	rates := newRateCache(s.taxes, client, instance)
	taxFault := s.buildLines(ctx, instance, client, remote, order, rates)
	s.buildShippingLines(ctx, instance, remote, order, rates)
	s.buildFeeLines(instance, remote, order)

	if err := s.orders.Save(ctx, order); err != nil {
		return LineOutcome{Message: fmt.Sprintf("order %s: %v", remote.Number, err), Fault: true, Failed: true}
	}

	// an unmapped tax leaves the mirrored order behind but fails the line
	if taxFault != "" {
		return LineOutcome{RecordID: &order.ID, Message: fmt.Sprintf("order %s: %s", remote.Number, taxFault), Fault: true, Failed: true}
	}

	return s.runWorkflow(ctx, remote, order, policy, financialState)
}

// ---------------------------------------------------------------------------
// Header
// ---------------------------------------------------------------------------

func (s *OrderImportService) resolveGateway(ctx context.Context, instance *store.Instance, remote *woocommerce.Order) (*sales.PaymentGateway, sales.FinancialState, error) {
	code := remote.PaymentMethod
	title := remote.PaymentMethodTitle
	if code == "" {
		code = sales.NoPaymentGatewayCode
	}
	// a zero-total order fully covered by a coupon discount carries no real
	// payment, whatever gateway the storefront stamped on it
	if len(remote.CouponLines) > 0 &&
		woocommerce.ParseDecimal(remote.Total).IsZero() &&
		woocommerce.ParseDecimal(remote.DiscountTotal).IsPositive() {
		code = sales.NoPaymentGatewayCode
		title = "No Payment Method"
	}
	gateway, err := s.provision.EnsureGateway(ctx, instance.ID, code, title)
	if err != nil {
		return nil, "", err
	}
	state := sales.ClassifyPayment(remote.TransactionID, remote.DatePaid != "", remote.PaymentMethod, remote.Status)
	return gateway, state, nil
}

func (s *OrderImportService) resolvePolicy(ctx context.Context, status *sales.FinancialStatus) (*sales.WorkflowPolicy, error) {
	if status.WorkflowPolicyID == nil {
		return nil, errors.New("financial status has no workflow policy")
	}
	policy, err := s.policies.FindByID(ctx, *status.WorkflowPolicyID)
	if err != nil {
		return nil, fmt.Errorf("workflow policy unavailable: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}

func (s *OrderImportService) buildHeader(ctx context.Context, instance *store.Instance, remote *woocommerce.Order, customer *partner.Customer, gateway *sales.PaymentGateway, policy *sales.WorkflowPolicy) (*sales.SalesOrder, error) {
	orderDate := parseOrderDate(remote.DateCreated)
	order, err := sales.NewSalesOrder(instance.ID, customer.ID, woocommerce.FormatID(remote.ID), remote.Number, orderDate)
	if err != nil {
		return nil, err
	}
	if addr := customer.AddressOfType(partner.AddressTypeDelivery); addr != nil {
		order.DeliveryAddressID = &addr.ID
	}
	if addr := customer.AddressOfType(partner.AddressTypeInvoice); addr != nil {
		order.InvoiceAddressID = &addr.ID
	}
	order.GatewayID = &gateway.ID
	order.WorkflowPolicyID = &policy.ID
	order.PriceListID = s.resolvePriceList(ctx, instance, remote.Currency)
	order.PickingPolicy = policy.PickingPolicy
	order.TransactionID = remote.TransactionID
	order.AmountTotal = woocommerce.ParseDecimal(remote.Total)
	if remote.CustomerNote != "" {
		order.AddNote(remote.CustomerNote)
	}
	return order, nil
}

// resolvePriceList picks the instance override when one is configured,
// otherwise the price list matching the order currency. An order without a
// matching list still imports.
func (s *OrderImportService) resolvePriceList(ctx context.Context, instance *store.Instance, currency string) *uuid.UUID {
	if instance.PriceListID != nil {
		return instance.PriceListID
	}
	id, err := s.priceLists.FindByCurrency(ctx, currency)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("price list lookup failed",
				zap.String("currency", currency), zap.Error(err))
		}
		return nil
	}
	return &id
}

// parseOrderDate reads the storefront timestamp, falling back to the wall
// clock on malformed input
func parseOrderDate(raw string) time.Time {
	if t, err := time.Parse(orderDateLayout, raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Now()
}

// ---------------------------------------------------------------------------
// Lines
// ---------------------------------------------------------------------------

// buildLines materializes product lines. A line whose product cannot be
// resolved is skipped with a visible note; an unmapped tax is reported back
// as a fault message.
func (s *OrderImportService) buildLines(ctx context.Context, instance *store.Instance, client *woocommerce.Client, remote *woocommerce.Order, order *sales.SalesOrder, rates *rateCache) string {
	taxFault := ""
	for _, item := range remote.LineItems {
		productID, ok := s.resolveProduct(ctx, instance, client, item)
		if !ok {
			order.BlockAutoWorkflow(fmt.Sprintf("line %q (sku %q) skipped: product not found", item.Name, item.SKU))
			continue
		}

		quantity := decimal.NewFromInt(int64(item.Quantity))
		subtotal := woocommerce.ParseDecimal(item.Subtotal)
		total := woocommerce.ParseDecimal(item.Total)
		unitPrice := decimal.Zero
		if !quantity.IsZero() {
			unitPrice = subtotal.Div(quantity)
		}

		description := item.Name
		if subtotal.GreaterThan(total) {
			discount := subtotal.Sub(total)
			description = fmt.Sprintf("%s\nDiscount applied: -%s", description, discount.StringFixed(2))
		}

		taxIDs, err := rates.resolve(ctx, item.Taxes)
		if err != nil {
			taxFault = err.Error()
			order.BlockAutoWorkflow(fmt.Sprintf("line %q: %v", item.Name, err))
		}

		order.AddLine(sales.OrderLine{
			ProductID:      productID,
			Description:    description,
			Quantity:       quantity,
			UnitPrice:      unitPrice,
			TaxIDs:         taxIDs,
			ExternalLineID: woocommerce.FormatID(item.ID),
		})
	}
	return taxFault
}

// resolveProduct runs the SKU cascade: listing item by SKU, by variation or
// product identifier, then an on-demand product import before giving up
func (s *OrderImportService) resolveProduct(ctx context.Context, instance *store.Instance, client *woocommerce.Client, item woocommerce.OrderLineItem) (uuid.UUID, bool) {
	if id, ok := s.lookupProduct(ctx, instance, item); ok {
		return id, true
	}
	if item.ProductID <= 0 {
		return uuid.Nil, false
	}
	if err := s.products.ImportByRemoteID(ctx, instance, client, item.ProductID); err != nil {
		s.logger.Warn("on-demand product import failed",
			zap.Int64("product_id", item.ProductID),
			zap.Error(err))
		return uuid.Nil, false
	}
	return s.lookupProduct(ctx, instance, item)
}

func (s *OrderImportService) lookupProduct(ctx context.Context, instance *store.Instance, item woocommerce.OrderLineItem) (uuid.UUID, bool) {
	if item.SKU != "" {
		if li, err := s.listings.FindItemBySKU(ctx, instance.ID, item.SKU); err == nil {
			return li.ProductID, true
		}
	}
	if item.VariationID > 0 {
		if li, err := s.listings.FindItemByRemoteID(ctx, instance.ID, woocommerce.FormatID(item.VariationID)); err == nil {
			return li.ProductID, true
		}
	}
	if item.ProductID > 0 {
		if listing, err := s.listings.FindByRemoteID(ctx, instance.ID, woocommerce.FormatID(item.ProductID)); err == nil {
			if len(listing.Items) == 1 {
				return listing.Items[0].ProductID, true
			}
		}
	}
	return uuid.Nil, false
}

// buildShippingLines adds one delivery line per storefront shipping charge,
// creating the carrier mirror on first sight
func (s *OrderImportService) buildShippingLines(ctx context.Context, instance *store.Instance, remote *woocommerce.Order, order *sales.SalesOrder, rates *rateCache) {
	for _, shipping := range remote.ShippingLines {
		carrier, err := s.ensureCarrier(ctx, instance, shipping)
		if err != nil {
			s.logger.Warn("carrier resolution failed",
				zap.String("method", shipping.MethodID), zap.Error(err))
			order.BlockAutoWorkflow(fmt.Sprintf("shipping %q skipped: %v", shipping.MethodTitle, err))
			continue
		}
		order.CarrierID = &carrier.ID

		taxIDs, err := rates.resolve(ctx, shipping.Taxes)
		if err != nil {
			taxIDs = nil
		}
		order.AddLine(sales.OrderLine{
			ProductID:   carrier.ProductID,
			Description: shipping.MethodTitle,
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   woocommerce.ParseDecimal(shipping.Total),
			TaxIDs:      taxIDs,
			IsDelivery:  true,
		})
	}
}

func (s *OrderImportService) ensureCarrier(ctx context.Context, instance *store.Instance, shipping woocommerce.ShippingLine) (*sales.DeliveryCarrier, error) {
	code := shipping.MethodID
	if code == "" {
		code = shipping.MethodTitle
	}
	carrier, err := s.carriers.FindByCode(ctx, instance.ID, code)
	if err == nil {
		return carrier, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	carrier = &sales.DeliveryCarrier{
		BaseEntity: shared.NewBaseEntity(),
		InstanceID: instance.ID,
		Code:       code,
		Name:       shipping.MethodTitle,
		ProductID:  instance.ShippingProductID,
		FixedPrice: woocommerce.ParseDecimal(shipping.Total),
	}
	if err := s.carriers.Save(ctx, carrier); err != nil {
		return nil, err
	}
	return carrier, nil
}

// buildFeeLines adds one fee line per nonzero storefront fee
func (s *OrderImportService) buildFeeLines(instance *store.Instance, remote *woocommerce.Order, order *sales.SalesOrder) {
	for _, fee := range remote.FeeLines {
		total := woocommerce.ParseDecimal(fee.Total)
		if total.IsZero() {
			continue
		}
		order.AddLine(sales.OrderLine{
			ProductID:   instance.FeeProductID,
			Description: fee.Name,
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   total,
			IsFee:       true,
		})
	}
}

// ---------------------------------------------------------------------------
// Workflow
// ---------------------------------------------------------------------------

// runWorkflow drives the configured automatic steps after a successful
// import. An order with skipped lines never enters the workflow.
func (s *OrderImportService) runWorkflow(ctx context.Context, remote *woocommerce.Order, order *sales.SalesOrder, policy *sales.WorkflowPolicy, financialState sales.FinancialState) LineOutcome {
	if order.SkipAutoWorkflow {
		return LineOutcome{
			RecordID: &order.ID,
			Message:  fmt.Sprintf("order %s imported; automatic workflow skipped (%d notes)", remote.Number, len(order.Notes)),
		}
	}
	if !policy.RequiresAnyStep() {
		return LineOutcome{RecordID: &order.ID, Message: fmt.Sprintf("order %s imported", remote.Number)}
	}

	// each step is gated on the order actually having reached sale state;
	// the confirm step is the only way there within this pass
	confirmed := false
	if policy.ConfirmSaleOrder {
		if err := s.workflow.ConfirmOrder(ctx, order.ID); err != nil {
			return LineOutcome{RecordID: &order.ID, Message: fmt.Sprintf("confirm %s: %v", remote.Number, err), Fault: true, Failed: true}
		}
		confirmed = true
	}

	if policy.ValidateDeliveryOrder && confirmed {
		deliveries, err := s.workflow.OpenDeliveries(ctx, order.ID)
		if err != nil {
			return LineOutcome{RecordID: &order.ID, Message: fmt.Sprintf("deliveries %s: %v", remote.Number, err), Fault: true, Failed: true}
		}
		for _, deliveryID := range deliveries {
			if err := s.workflow.ValidateDelivery(ctx, deliveryID); err != nil {
				return LineOutcome{RecordID: &order.ID, Message: fmt.Sprintf("validate delivery %s: %v", remote.Number, err), Fault: true, Failed: true}
			}
		}
	}

	if policy.CreateInvoice && confirmed {
		invoiceID, err := s.workflow.CreateInvoice(ctx, order.ID)
		if err != nil {
			return LineOutcome{RecordID: &order.ID, Message: fmt.Sprintf("invoice %s: %v", remote.Number, err), Fault: true, Failed: true}
		}
		if financialState == sales.FinancialStatePaid {
			if policy.JournalID == nil {
				// the invoice stays posted; only the payment is missing
				return LineOutcome{
					RecordID: &order.ID,
					Message:  fmt.Sprintf("order %s invoiced, payment not registered: policy has no journal", remote.Number),
					Fault:    true,
					Failed:   true,
				}
			}
			if err := s.workflow.RegisterPayment(ctx, invoiceID, *policy.JournalID, order.AmountTotal); err != nil {
				return LineOutcome{RecordID: &order.ID, Message: fmt.Sprintf("payment %s: %v", remote.Number, err), Fault: true, Failed: true}
			}
		}
	}

	return LineOutcome{RecordID: &order.ID, Message: fmt.Sprintf("order %s imported and processed", remote.Number)}
}

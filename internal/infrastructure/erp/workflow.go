package erp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/sales"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
)

var (
	// ErrInvoiceNotOpen indicates a payment against an invoice that is not
	// posted anymore
	ErrInvoiceNotOpen = errors.New("erp: invoice is not open for payment")
	// ErrOrderNotConfirmed indicates an invoice requested for an order that
	// never reached sale state
	ErrOrderNotConfirmed = errors.New("erp: order is not confirmed")
)

// GormSalesWorkflow implements sales.ErpSalesWorkflow on the local ERP
// tables. Confirming an order raises an open delivery for it; validating
// the delivery and invoicing follow the instance workflow policy.
type GormSalesWorkflow struct {
	db     *gorm.DB
	orders sales.OrderRepository
}

// NewGormSalesWorkflow creates a new GormSalesWorkflow
func NewGormSalesWorkflow(db *gorm.DB, orders sales.OrderRepository) *GormSalesWorkflow {
	return &GormSalesWorkflow{db: db, orders: orders}
}

// ConfirmOrder confirms the order and raises a delivery when it carries
// product lines. The original order date survives confirmation.
func (w *GormSalesWorkflow) ConfirmOrder(ctx context.Context, orderID uuid.UUID) error {
	order, err := w.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := order.Confirm(); err != nil {
		return err
	}
	if err := w.orders.Save(ctx, order); err != nil {
		return err
	}
	if !order.HasProductLines() {
		return nil
	}
	now := time.Now()
	delivery := DeliveryModel{
		ID:        uuid.New(),
		OrderID:   orderID,
		State:     deliveryStateOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return w.db.WithContext(ctx).Create(&delivery).Error
}

// OpenDeliveries returns the not-yet-validated deliveries of an order
func (w *GormSalesWorkflow) OpenDeliveries(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error) {
	var deliveries []DeliveryModel
	err := w.db.WithContext(ctx).
		Where("order_id = ? AND state = ?", orderID, deliveryStateOpen).
		Order("created_at ASC").
		Find(&deliveries).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(deliveries))
	for i := range deliveries {
		ids[i] = deliveries[i].ID
	}
	return ids, nil
}

// ValidateDelivery marks a delivery done with the ordered quantities
func (w *GormSalesWorkflow) ValidateDelivery(ctx context.Context, deliveryID uuid.UUID) error {
	now := time.Now()
	result := w.db.WithContext(ctx).
		Model(&DeliveryModel{}).
		Where("id = ? AND state = ?", deliveryID, deliveryStateOpen).
		Updates(map[string]interface{}{
			"state":      deliveryStateDone,
			"done_at":    now,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CreateInvoice posts an invoice over the order total. Invoicing is only
// valid once the order reached sale state.
func (w *GormSalesWorkflow) CreateInvoice(ctx context.Context, orderID uuid.UUID) (uuid.UUID, error) {
	order, err := w.orders.FindByID(ctx, orderID)
	if err != nil {
		return uuid.Nil, err
	}
	if order.State != sales.OrderStateSale {
		return uuid.Nil, ErrOrderNotConfirmed
	}
	now := time.Now()
	invoice := InvoiceModel{
		ID:        uuid.New(),
		OrderID:   orderID,
		State:     invoiceStatePosted,
		Amount:    order.AmountTotal,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := w.db.WithContext(ctx).Create(&invoice).Error; err != nil {
		return uuid.Nil, err
	}
	return invoice.ID, nil
}

// RegisterPayment records a payment in the given journal and settles the
// invoice
func (w *GormSalesWorkflow) RegisterPayment(ctx context.Context, invoiceID uuid.UUID, journalID uuid.UUID, amount decimal.Decimal) error {
	return w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoice InvoiceModel
		if err := tx.First(&invoice, "id = ?", invoiceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		if invoice.State != invoiceStatePosted {
			return ErrInvoiceNotOpen
		}
		now := time.Now()
		payment := PaymentModel{
			ID:        uuid.New(),
			InvoiceID: invoiceID,
			JournalID: journalID,
			Amount:    amount,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		return tx.Model(&InvoiceModel{}).
			Where("id = ?", invoiceID).
			Updates(map[string]interface{}{"state": invoiceStatePaid, "updated_at": now}).Error
	})
}

// CancelOrder cancels the order together with its open deliveries and
// posted invoices
func (w *GormSalesWorkflow) CancelOrder(ctx context.Context, orderID uuid.UUID) error {
	order, err := w.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := order.Cancel(); err != nil {
		return err
	}
	if err := w.orders.Save(ctx, order); err != nil {
		return err
	}
	return w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		err := tx.Model(&DeliveryModel{}).
			Where("order_id = ? AND state = ?", orderID, deliveryStateOpen).
			Updates(map[string]interface{}{"state": deliveryStateCancelled, "updated_at": now}).Error
		if err != nil {
			return err
		}
		return tx.Model(&InvoiceModel{}).
			Where("order_id = ? AND state = ?", orderID, invoiceStatePosted).
			Updates(map[string]interface{}{"state": invoiceStateCancelled, "updated_at": now}).Error
	})
}

var _ sales.ErpSalesWorkflow = (*GormSalesWorkflow)(nil)

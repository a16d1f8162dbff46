package sales

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ERP Workflow Port
// ---------------------------------------------------------------------------

// ErpSalesWorkflow is the port into the ERP side of order processing. The
// import pipeline drives it after a storefront order has been mirrored
// locally; the concrete adapter owns deliveries, invoices and payments.
type ErpSalesWorkflow interface {
	// ConfirmOrder confirms the linked ERP order, preserving the original
	// order date
	ConfirmOrder(ctx context.Context, orderID uuid.UUID) error

	// OpenDeliveries returns the identifiers of not-yet-validated
	// deliveries of an order
	OpenDeliveries(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error)

	// ValidateDelivery validates a delivery, forcing the ordered
	// quantities as done
	ValidateDelivery(ctx context.Context, deliveryID uuid.UUID) error

	// CreateInvoice creates and posts an invoice for the order, returning
	// the invoice identifier
	CreateInvoice(ctx context.Context, orderID uuid.UUID) (uuid.UUID, error)

	// RegisterPayment registers a payment against a posted invoice in the
	// given journal
	RegisterPayment(ctx context.Context, invoiceID uuid.UUID, journalID uuid.UUID, amount decimal.Decimal) error

	// CancelOrder cancels the linked ERP order and its open documents
	CancelOrder(ctx context.Context, orderID uuid.UUID) error
}

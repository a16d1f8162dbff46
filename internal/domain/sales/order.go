package sales

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// ErrOrderInvalidNumber indicates an order without a storefront number
	ErrOrderInvalidNumber = errors.New("sales: order number is required")
	// ErrOrderInvalidState indicates a transition the current state forbids
	ErrOrderInvalidState = errors.New("sales: invalid order state transition")
)

// ---------------------------------------------------------------------------
// Order State
// ---------------------------------------------------------------------------

// OrderState is the lifecycle state of a mirrored sales order
type OrderState string

const (
	// OrderStateDraft is an imported quotation awaiting confirmation
	OrderStateDraft OrderState = "draft"
	// OrderStateSale is a confirmed order
	OrderStateSale OrderState = "sale"
	// OrderStateDone is a fully processed order
	OrderStateDone OrderState = "done"
	// OrderStateCancel is a cancelled order
	OrderStateCancel OrderState = "cancel"
)

// IsValid returns true if the order state is valid
func (s OrderState) IsValid() bool {
	switch s {
	case OrderStateDraft, OrderStateSale, OrderStateDone, OrderStateCancel:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderState
func (s OrderState) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// SalesOrder Aggregate
// ---------------------------------------------------------------------------

// SalesOrder mirrors a storefront order in the local system. The pair
// (InstanceID, ExternalNumber) is unique; importing the same storefront
// order twice updates the existing mirror instead of creating a second.
type SalesOrder struct {
	shared.BaseEntity
	// InstanceID is the store instance the order came from
	InstanceID uuid.UUID
	// ExternalID is the numeric order identifier on the storefront
	ExternalID string
	// ExternalNumber is the customer-facing order number
	ExternalNumber string
	// CustomerID is the local customer
	CustomerID uuid.UUID
	// DeliveryAddressID is the resolved delivery address, if any
	DeliveryAddressID *uuid.UUID
	// InvoiceAddressID is the resolved invoice address, if any
	InvoiceAddressID *uuid.UUID
	// State is the lifecycle state
	State OrderState
	// OrderDate is the storefront creation timestamp
	OrderDate time.Time
	// GatewayID is the payment gateway the order paid through
	GatewayID *uuid.UUID
	// WorkflowPolicyID is the automation policy resolved at import time
	WorkflowPolicyID *uuid.UUID
	// CarrierID is the delivery carrier resolved from the shipping lines
	CarrierID *uuid.UUID
	// PriceListID is the price list resolved at import time: the instance
	// override when set, otherwise the list matching the order currency
	PriceListID *uuid.UUID
	// PickingPolicy controls partial versus full delivery
	PickingPolicy PickingPolicy
	// TransactionID is the payment transaction reference, if any
	TransactionID string
	// AmountTotal is the storefront grand total
	AmountTotal decimal.Decimal
	// SkipAutoWorkflow blocks the automatic workflow for orders imported
	// with degraded data (missing products, unmapped taxes)
	SkipAutoWorkflow bool
	// Notes accumulates import remarks shown to operators
	Notes []string
	// Lines are the order lines, including delivery and fee lines
	Lines []OrderLine
	// ConfirmedAt is when the order was confirmed, if ever
	ConfirmedAt *time.Time
}

// OrderLine is one line of a mirrored sales order
type OrderLine struct {
	shared.BaseEntity
	// OrderID is the owning order
	OrderID uuid.UUID
	// ProductID is the resolved local product variant
	ProductID uuid.UUID
	// Description is the line description shown on documents
	Description string
	// Quantity is the ordered quantity
	Quantity decimal.Decimal
	// UnitPrice is the price per unit, tax handling per instance settings
	UnitPrice decimal.Decimal
	// TaxIDs are the local taxes applied to this line
	TaxIDs []uuid.UUID
	// IsDelivery marks shipping lines
	IsDelivery bool
	// IsFee marks fee lines
	IsFee bool
	// ExternalLineID is the storefront line identifier
	ExternalLineID string
}

// NewSalesOrder creates a draft order mirror
func NewSalesOrder(instanceID, customerID uuid.UUID, externalID, externalNumber string, orderDate time.Time) (*SalesOrder, error) {
	if instanceID == uuid.Nil || customerID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	if externalNumber == "" {
		return nil, ErrOrderInvalidNumber
	}
	return &SalesOrder{
		BaseEntity:     shared.NewBaseEntity(),
		InstanceID:     instanceID,
		ExternalID:     externalID,
		ExternalNumber: externalNumber,
		CustomerID:     customerID,
		State:          OrderStateDraft,
		OrderDate:      orderDate,
		PickingPolicy:  PickingPolicyDirect,
	}, nil
}

// AddLine appends an order line
func (o *SalesOrder) AddLine(line OrderLine) *OrderLine {
	line.BaseEntity = shared.NewBaseEntity()
	line.OrderID = o.ID
	o.Lines = append(o.Lines, line)
	return &o.Lines[len(o.Lines)-1]
}

// AddNote records an import remark
func (o *SalesOrder) AddNote(note string) {
	o.Notes = append(o.Notes, note)
}

// BlockAutoWorkflow flags the order so the automatic workflow leaves it
// alone, recording the reason as a note
func (o *SalesOrder) BlockAutoWorkflow(reason string) {
	o.SkipAutoWorkflow = true
	o.AddNote(reason)
}

// Confirm transitions the order to sale, keeping the storefront order date
// rather than the confirmation time
func (o *SalesOrder) Confirm() error {
	if o.State != OrderStateDraft {
		return ErrOrderInvalidState
	}
	now := time.Now()
	o.State = OrderStateSale
	o.ConfirmedAt = &now
	o.UpdatedAt = now
	return nil
}

// Cancel transitions the order to cancel
func (o *SalesOrder) Cancel() error {
	if o.State == OrderStateDone {
		return ErrOrderInvalidState
	}
	o.State = OrderStateCancel
	o.UpdatedAt = time.Now()
	return nil
}

// HasProductLines reports whether any line carries an actual product
// rather than shipping or fees
func (o *SalesOrder) HasProductLines() bool {
	for i := range o.Lines {
		if !o.Lines[i].IsDelivery && !o.Lines[i].IsFee {
			return true
		}
	}
	return false
}

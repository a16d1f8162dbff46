package sales

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// ErrGatewayInvalidCode indicates a gateway without a code
	ErrGatewayInvalidCode = errors.New("sales: gateway code is required")
	// ErrFinancialStatusNotFound indicates no active financial status row
	// matches an order's gateway and payment state
	ErrFinancialStatusNotFound = errors.New("sales: no financial status configured")
	// ErrPolicyMissingPickingPolicy indicates a workflow policy without a
	// picking policy
	ErrPolicyMissingPickingPolicy = errors.New("sales: workflow policy has no picking policy")
)

// ---------------------------------------------------------------------------
// Payment Gateway
// ---------------------------------------------------------------------------

// NoPaymentGatewayCode is the synthetic gateway used for orders with a zero
// total covered entirely by a discount. Such orders arrive from the
// storefront with no payment method at all.
const NoPaymentGatewayCode = "no_payment_method"

// CashOnDeliveryCode is the storefront code for cash on delivery
const CashOnDeliveryCode = "cod"

// PaymentGateway mirrors a storefront payment method
type PaymentGateway struct {
	shared.BaseEntity
	// InstanceID is the store instance this gateway belongs to
	InstanceID uuid.UUID
	// Code is the storefront gateway identifier
	Code string
	// Name is the display title
	Name string
}

// NewPaymentGateway creates a gateway mirror
func NewPaymentGateway(instanceID uuid.UUID, code, name string) (*PaymentGateway, error) {
	if instanceID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	if code == "" {
		return nil, ErrGatewayInvalidCode
	}
	if name == "" {
		name = code
	}
	return &PaymentGateway{
		BaseEntity: shared.NewBaseEntity(),
		InstanceID: instanceID,
		Code:       code,
		Name:       name,
	}, nil
}

// ---------------------------------------------------------------------------
// Financial Status
// ---------------------------------------------------------------------------

// FinancialState classifies an incoming order as paid or not at import time
type FinancialState string

const (
	// FinancialStatePaid means the storefront shows the order as settled
	FinancialStatePaid FinancialState = "paid"
	// FinancialStateNotPaid means payment is still outstanding
	FinancialStateNotPaid FinancialState = "not_paid"
)

// String returns the string representation of FinancialState
func (s FinancialState) String() string {
	return string(s)
}

// ClassifyPayment derives the financial state of an incoming order. An
// order counts as paid when it carries a transaction reference, or when it
// was marked paid on a non cash-on-delivery gateway while in processing.
func ClassifyPayment(transactionID string, datePaid bool, gatewayCode, storefrontStatus string) FinancialState {
	if transactionID != "" {
		return FinancialStatePaid
	}
	if datePaid && gatewayCode != CashOnDeliveryCode && storefrontStatus == "processing" {
		return FinancialStatePaid
	}
	return FinancialStateNotPaid
}

// FinancialStatus binds a gateway and payment state to the workflow policy
// applied to matching orders
type FinancialStatus struct {
	shared.BaseEntity
	// InstanceID is the store instance this row belongs to
	InstanceID uuid.UUID
	// GatewayID is the gateway this row matches
	GatewayID uuid.UUID
	// State is the payment state this row matches
	State FinancialState
	// WorkflowPolicyID is the policy applied on a match, nil deactivates
	// automatic processing for matching orders
	WorkflowPolicyID *uuid.UUID
	// Active rows participate in matching; inactive rows are ignored
	Active bool
}

// ---------------------------------------------------------------------------
// Workflow Policy
// ---------------------------------------------------------------------------

// PickingPolicy controls whether deliveries ship partially or all at once
type PickingPolicy string

const (
	// PickingPolicyDirect ships what is available as soon as possible
	PickingPolicyDirect PickingPolicy = "direct"
	// PickingPolicyOne ships everything in a single delivery
	PickingPolicyOne PickingPolicy = "one"
)

// IsValid returns true if the picking policy is valid
func (p PickingPolicy) IsValid() bool {
	return p == PickingPolicyDirect || p == PickingPolicyOne
}

// WorkflowPolicy describes the automatic processing applied to an imported
// order that matched a financial status row
type WorkflowPolicy struct {
	shared.BaseEntity
	// Name is the display name
	Name string
	// JournalID is the accounting journal payments register against
	JournalID *uuid.UUID
	// PickingPolicy is stamped onto matching orders
	PickingPolicy PickingPolicy
	// ConfirmSaleOrder confirms the order after import
	ConfirmSaleOrder bool
	// ValidateDeliveryOrder validates the deliveries of confirmed orders
	ValidateDeliveryOrder bool
	// CreateInvoice creates and posts an invoice, then registers payment
	CreateInvoice bool
}

// Validate checks the policy is usable at import time
func (p *WorkflowPolicy) Validate() error {
	if !p.PickingPolicy.IsValid() {
		return ErrPolicyMissingPickingPolicy
	}
	return nil
}

// RequiresAnyStep reports whether the policy triggers any automatic step
func (p *WorkflowPolicy) RequiresAnyStep() bool {
	return p.ConfirmSaleOrder || p.ValidateDeliveryOrder || p.CreateInvoice
}

// ---------------------------------------------------------------------------
// Delivery Carrier
// ---------------------------------------------------------------------------

// DeliveryCarrier mirrors a storefront shipping method
type DeliveryCarrier struct {
	shared.BaseEntity
	// InstanceID is the store instance this carrier belongs to
	InstanceID uuid.UUID
	// Code is the storefront shipping method identifier
	Code string
	// Name is the display title
	Name string
	// ProductID is the local product used on shipping order lines
	ProductID uuid.UUID
	// FixedPrice is the default shipping charge
	FixedPrice decimal.Decimal
}

package sales

import (
	"context"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Repository Interfaces
// ---------------------------------------------------------------------------

// OrderRepository defines persistence for mirrored sales orders
type OrderRepository interface {
	// Save creates or updates an order together with its lines
	Save(ctx context.Context, order *SalesOrder) error

	// FindByID loads an order with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error)

	// FindByExternalNumber finds an order by instance and storefront
	// order number
	FindByExternalNumber(ctx context.Context, instanceID uuid.UUID, number string) (*SalesOrder, error)
}

// GatewayRepository defines persistence for payment gateways
type GatewayRepository interface {
	// Save creates or updates a gateway
	Save(ctx context.Context, gateway *PaymentGateway) error

	// FindByCode finds a gateway by instance and storefront code
	FindByCode(ctx context.Context, instanceID uuid.UUID, code string) (*PaymentGateway, error)

	// FindByInstance returns all gateways of an instance
	FindByInstance(ctx context.Context, instanceID uuid.UUID) ([]PaymentGateway, error)
}

// FinancialStatusRepository defines persistence for financial status rows
type FinancialStatusRepository interface {
	// Save creates or updates a row
	Save(ctx context.Context, status *FinancialStatus) error

	// FindActive finds the active row for a gateway and payment state
	FindActive(ctx context.Context, instanceID, gatewayID uuid.UUID, state FinancialState) (*FinancialStatus, error)

	// Exists reports whether any row, active or not, covers the pair
	Exists(ctx context.Context, instanceID, gatewayID uuid.UUID, state FinancialState) (bool, error)
}

// WorkflowPolicyRepository defines persistence for workflow policies
type WorkflowPolicyRepository interface {
	// Save creates or updates a policy
	Save(ctx context.Context, policy *WorkflowPolicy) error

	// FindByID finds a policy by ID
	FindByID(ctx context.Context, id uuid.UUID) (*WorkflowPolicy, error)

	// FindByName finds a policy by its display name
	FindByName(ctx context.Context, name string) (*WorkflowPolicy, error)
}

// PriceListSource resolves the price list an order should carry when the
// instance configures no override
type PriceListSource interface {
	// FindByCurrency returns the first price list priced in the currency
	FindByCurrency(ctx context.Context, currency string) (uuid.UUID, error)
}

// CarrierRepository defines persistence for delivery carriers
type CarrierRepository interface {
	// Save creates or updates a carrier
	Save(ctx context.Context, carrier *DeliveryCarrier) error

	// FindByCode finds a carrier by instance and storefront code
	FindByCode(ctx context.Context, instanceID uuid.UUID, code string) (*DeliveryCarrier, error)
}

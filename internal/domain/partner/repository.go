package partner

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for customers and their addresses
type Repository interface {
	// Save creates or updates a customer together with its addresses
	Save(ctx context.Context, customer *Customer) error

	// FindByID loads a customer with its addresses
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByExternalID finds a customer by its storefront identifier
	FindByExternalID(ctx context.Context, instanceID uuid.UUID, externalID string) (*Customer, error)
}

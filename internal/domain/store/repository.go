package store

import (
	"context"

	"github.com/google/uuid"
)

// InstanceRepository defines persistence for store instances
type InstanceRepository interface {
	// Save creates or updates an instance
	Save(ctx context.Context, instance *Instance) error

	// FindByID finds an instance by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Instance, error)

	// FindActive returns all active instances
	FindActive(ctx context.Context) ([]Instance, error)

	// FindByDomain finds an instance whose base URL matches the given shop
	// domain. Inactive instances are included; the caller decides whether
	// to accept them.
	FindByDomain(ctx context.Context, domain string) (*Instance, error)
}

// WebhookRepository defines persistence for webhook registrations
type WebhookRepository interface {
	// Save creates or updates a registration
	Save(ctx context.Context, webhook *WebhookRegistration) error

	// FindByInstanceAndTopic finds a registration by instance and topic
	FindByInstanceAndTopic(ctx context.Context, instanceID uuid.UUID, topic WebhookTopic) (*WebhookRegistration, error)

	// FindByInstanceAndRoute finds a registration whose delivery URL ends
	// with the given route
	FindByInstanceAndRoute(ctx context.Context, instanceID uuid.UUID, route string) (*WebhookRegistration, error)
}

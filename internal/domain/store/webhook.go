package store

import (
	"errors"

	"github.com/google/uuid"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
)

var (
	ErrWebhookInvalidTopic = errors.New("store: invalid webhook topic")
	ErrWebhookExists       = errors.New("store: webhook already registered for this topic")
)

// WebhookTopic identifies the store event a webhook subscribes to
type WebhookTopic string

const (
	WebhookTopicCustomerCreated WebhookTopic = "customer.created"
	WebhookTopicOrderCreated    WebhookTopic = "order.created"
	WebhookTopicProductCreated  WebhookTopic = "product.created"
)

// IsValid returns true if the topic is valid
func (t WebhookTopic) IsValid() bool {
	switch t {
	case WebhookTopicCustomerCreated, WebhookTopicOrderCreated, WebhookTopicProductCreated:
		return true
	default:
		return false
	}
}

// Route returns the inbound delivery path for the topic
func (t WebhookTopic) Route() string {
	switch t {
	case WebhookTopicCustomerCreated:
		return "/woocommerce/webhook/customer_create"
	case WebhookTopicOrderCreated:
		return "/woocommerce/webhook/orders_create"
	case WebhookTopicProductCreated:
		return "/woocommerce/webhook/products_create"
	default:
		return ""
	}
}

// WebhookState represents the registration state of a webhook
type WebhookState string

const (
	WebhookStateActive   WebhookState = "active"
	WebhookStateInactive WebhookState = "inactive"
)

// WebhookRegistration mirrors a webhook registered on the remote store.
// An inbound delivery is only accepted when a registration for its route
// and instance is active.
type WebhookRegistration struct {
	shared.BaseEntity
	InstanceID  uuid.UUID
	Name        string
	Topic       WebhookTopic
	State       WebhookState
	RemoteID    string
	DeliveryURL string
}

// NewWebhookRegistration creates an inactive webhook registration
func NewWebhookRegistration(instanceID uuid.UUID, name string, topic WebhookTopic) (*WebhookRegistration, error) {
	if !topic.IsValid() {
		return nil, ErrWebhookInvalidTopic
	}
	return &WebhookRegistration{
		BaseEntity: shared.NewBaseEntity(),
		InstanceID: instanceID,
		Name:       name,
		Topic:      topic,
		State:      WebhookStateInactive,
	}, nil
}

// Activate records the remote webhook id and delivery URL after the
// registration succeeded on the store side.
func (w *WebhookRegistration) Activate(remoteID, deliveryURL string) {
	w.RemoteID = remoteID
	w.DeliveryURL = deliveryURL
	w.State = WebhookStateActive
}

// IsActive returns true if deliveries for this webhook are accepted
func (w *WebhookRegistration) IsActive() bool {
	return w.State == WebhookStateActive
}

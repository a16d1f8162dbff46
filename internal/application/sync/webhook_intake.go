package sync

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/woocommerce"
)

// webhookEnvelope is the minimal shape shared by every store delivery,
// enough to name and deduplicate the queue line
type webhookEnvelope struct {
	ID     int64  `json:"id"`
	Number string `json:"number"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	SKU    string `json:"sku"`
}

// WebhookIntakeService turns inbound store deliveries into queue lines and
// processes them immediately. Deliveries that cannot be matched to an
// active instance and registration are dropped without a trace the sender
// could probe.
type WebhookIntakeService struct {
	instances store.InstanceRepository
	webhooks  store.WebhookRepository
	engine    *Engine
	customers *CustomerImportService
	orders    *OrderImportService
	products  *ProductImportService
	logger    *zap.Logger
}

// NewWebhookIntakeService creates a new WebhookIntakeService
func NewWebhookIntakeService(
	instances store.InstanceRepository,
	webhooks store.WebhookRepository,
	engine *Engine,
	customers *CustomerImportService,
	orders *OrderImportService,
	products *ProductImportService,
	logger *zap.Logger,
) *WebhookIntakeService {
	return &WebhookIntakeService{
		instances: instances,
		webhooks:  webhooks,
		engine:    engine,
		customers: customers,
		orders:    orders,
		products:  products,
		logger:    logger.Named("webhook-intake"),
	}
}

// Handle accepts one delivery for the given topic. A nil error means the
// delivery was either processed or deliberately dropped; the HTTP layer
// answers 200 in both cases.
func (s *WebhookIntakeService) Handle(ctx context.Context, shopDomain string, topic store.WebhookTopic, payload []byte) error {
	instance, err := s.instances.FindByDomain(ctx, shopDomain)
	if err != nil {
		s.logger.Debug("delivery from unknown shop dropped", zap.String("domain", shopDomain))
		return nil
	}
	if !instance.Active || !instance.MatchesDomain(shopDomain) {
		s.logger.Debug("delivery for inactive instance dropped",
			zap.String("instance", instance.Name), zap.String("domain", shopDomain))
		return nil
	}
	registration, err := s.webhooks.FindByInstanceAndTopic(ctx, instance.ID, topic)
	if err != nil || !registration.IsActive() {
		s.logger.Debug("delivery without active registration dropped",
			zap.String("instance", instance.Name), zap.String("topic", string(topic)))
		return nil
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn("malformed delivery payload dropped",
			zap.String("instance", instance.Name), zap.Error(err))
		return nil
	}

	record := Record{
		ExternalID: woocommerce.FormatID(envelope.ID),
		Name:       recordName(envelope),
		Payload:    payload,
	}

	switch topic {
	case store.WebhookTopicCustomerCreated:
		return s.dispatch(ctx, instance, queue.KindCustomer, queue.OperationCustomer, record, s.customers.ResolveLine)
	case store.WebhookTopicOrderCreated:
		return s.dispatch(ctx, instance, queue.KindOrder, queue.OperationOrder, record, s.orders.ResolveLine)
	case store.WebhookTopicProductCreated:
		return s.dispatch(ctx, instance, queue.KindProduct, queue.OperationProduct, record, s.products.ResolveLine)
	default:
		s.logger.Debug("delivery for unsupported topic dropped", zap.String("topic", string(topic)))
		return nil
	}
}

func (s *WebhookIntakeService) dispatch(ctx context.Context, instance *store.Instance, kind queue.Kind, op queue.Operation, record Record, resolver LineResolver) error {
	batches, err := s.engine.Enqueue(ctx, instance, kind, queue.TriggerWebhook, []Record{record})
	if err != nil {
		return err
	}
	for _, batch := range batches {
		if err := s.engine.Process(ctx, instance, batch, queue.TriggerWebhook, op, queue.OperationTypeImport, resolver); err != nil {
			return err
		}
	}
	return nil
}

func recordName(envelope webhookEnvelope) string {
	switch {
	case envelope.Number != "":
		return envelope.Number
	case envelope.SKU != "":
		return envelope.SKU
	case envelope.Email != "":
		return envelope.Email
	case envelope.Name != "":
		return envelope.Name
	default:
		return woocommerce.FormatID(envelope.ID)
	}
}

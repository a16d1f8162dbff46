package sync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/catalog"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/sales"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/woocommerce"
)

// ErrRefundOnDraft indicates a refund against an order that was never
// confirmed
var ErrRefundOnDraft = errors.New("sync: cannot refund a draft order")

// ReferenceDataService mirrors the slow-moving store vocabularies locally:
// shipping methods, tax rates, category and tag terms. It also registers
// the inbound webhooks on the store and pushes refunds.
type ReferenceDataService struct {
	shipping   catalog.ShippingMethodRepository
	taxes      catalog.TaxRepository
	categories catalog.CategoryRepository
	tags       catalog.TagRepository
	webhooks   store.WebhookRepository
	orders     sales.OrderRepository
	recorder   *Recorder
	clients    ClientFactory
	pageSize   int
	logger     *zap.Logger
}

// NewReferenceDataService creates a new ReferenceDataService
func NewReferenceDataService(
	shipping catalog.ShippingMethodRepository,
	taxes catalog.TaxRepository,
	categories catalog.CategoryRepository,
	tags catalog.TagRepository,
	webhooks store.WebhookRepository,
	orders sales.OrderRepository,
	recorder *Recorder,
	clients ClientFactory,
	pageSize int,
	logger *zap.Logger,
) *ReferenceDataService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &ReferenceDataService{
		shipping:   shipping,
		taxes:      taxes,
		categories: categories,
		tags:       tags,
		webhooks:   webhooks,
		orders:     orders,
		recorder:   recorder,
		clients:    clients,
		pageSize:   pageSize,
		logger:     logger.Named("reference-data"),
	}
}

// ---------------------------------------------------------------------------
// Shipping methods
// ---------------------------------------------------------------------------

// ImportShippingMethods mirrors the store's shipping method definitions
func (s *ReferenceDataService) ImportShippingMethods(ctx context.Context, instance *store.Instance) error {
	client := s.clients(instance)
	log := s.recorder.Open(ctx, instance.ID, queue.OperationShipping, queue.OperationTypeImport)
	defer s.recorder.Close(ctx, log)

	methods, err := client.ListShippingMethods(ctx)
	if err != nil {
		s.recorder.Line(ctx, log, "shipping method fetch failed: "+err.Error(), true, nil)
		return err
	}
	for _, remote := range methods {
		if remote.ID == "" {
			continue
		}
		method, err := s.shipping.FindByCode(ctx, instance.ID, remote.ID)
		if errors.Is(err, shared.ErrNotFound) {
			method = &catalog.ShippingMethod{
				BaseEntity: shared.NewBaseEntity(),
				InstanceID: instance.ID,
				Code:       remote.ID,
			}
			err = nil
		}
		if err != nil {
			return err
		}
		method.Name = remote.Title
		if err := s.shipping.Save(ctx, method); err != nil {
			return err
		}
	}
	s.recorder.Line(ctx, log, fmt.Sprintf("%d shipping methods imported", len(methods)), false, nil)
	return nil
}

// ---------------------------------------------------------------------------
// Tax rates
// ---------------------------------------------------------------------------

// ImportTaxes mirrors every store tax rate. New rates arrive unmapped; an
// operator binds each to a local tax before orders carrying it can post
// their lines.
func (s *ReferenceDataService) ImportTaxes(ctx context.Context, instance *store.Instance) error {
	client := s.clients(instance)
	log := s.recorder.Open(ctx, instance.ID, queue.OperationTax, queue.OperationTypeImport)
	defer s.recorder.Close(ctx, log)

	count := 0
	err := client.ListTaxRates(ctx, s.pageSize, func(rates []woocommerce.TaxRate) error {
		for _, remote := range rates {
			if err := s.upsertTax(ctx, instance, remote); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		s.recorder.Line(ctx, log, "tax rate import failed: "+err.Error(), true, nil)
		return err
	}
	s.recorder.Line(ctx, log, fmt.Sprintf("%d tax rates imported", count), false, nil)
	return nil
}

func (s *ReferenceDataService) upsertTax(ctx context.Context, instance *store.Instance, remote woocommerce.TaxRate) error {
	remoteID := woocommerce.FormatID(remote.ID)
	tax, err := s.taxes.FindByRemoteID(ctx, instance.ID, remoteID)
	if errors.Is(err, shared.ErrNotFound) {
		tax = &catalog.Tax{
			BaseEntity: shared.NewBaseEntity(),
			InstanceID: instance.ID,
			RemoteID:   remoteID,
		}
		err = nil
	}
	if err != nil {
		return err
	}
	tax.Name = taxLabel(remote)
	tax.Rate = woocommerce.ParseDecimal(remote.Rate)
	return s.taxes.Save(ctx, tax)
}

func taxLabel(remote woocommerce.TaxRate) string {
	parts := make([]string, 0, 3)
	if remote.Name != "" {
		parts = append(parts, remote.Name)
	}
	if remote.Country != "" {
		parts = append(parts, remote.Country)
	}
	if remote.State != "" {
		parts = append(parts, remote.State)
	}
	return strings.Join(parts, " ")
}

// ---------------------------------------------------------------------------
// Category and tag terms
// ---------------------------------------------------------------------------

// ImportCategories mirrors the store category tree. Parents are wired in a
// second pass so the walk order of the store pages does not matter.
func (s *ReferenceDataService) ImportCategories(ctx context.Context, instance *store.Instance) error {
	client := s.clients(instance)
	log := s.recorder.Open(ctx, instance.ID, queue.OperationProductCategory, queue.OperationTypeImport)
	defer s.recorder.Close(ctx, log)

	parents := make(map[string]string)
	count := 0
	err := client.ListCategories(ctx, s.pageSize, func(terms []woocommerce.CategoryTerm) error {
		for _, term := range terms {
			remoteID := woocommerce.FormatID(term.ID)
			category, err := s.categories.FindByRemoteID(ctx, instance.ID, remoteID)
			if errors.Is(err, shared.ErrNotFound) {
				category, err = catalog.NewCategory(instance.ID, term.Name, strings.ToLower(term.Slug), nil)
				if err == nil {
					category.AdoptRemote(remoteID)
				}
			}
			if err != nil {
				return err
			}
			category.Name = term.Name
			category.Slug = strings.ToLower(term.Slug)
			if err := s.categories.Save(ctx, category); err != nil {
				return err
			}
			if term.Parent > 0 {
				parents[remoteID] = woocommerce.FormatID(term.Parent)
			}
			count++
		}
		return nil
	})
	if err != nil {
		s.recorder.Line(ctx, log, "category import failed: "+err.Error(), true, nil)
		return err
	}

	for childRemote, parentRemote := range parents {
		child, err := s.categories.FindByRemoteID(ctx, instance.ID, childRemote)
		if err != nil {
			return err
		}
		parent, err := s.categories.FindByRemoteID(ctx, instance.ID, parentRemote)
		if errors.Is(err, shared.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		child.ParentID = &parent.ID
		if err := s.categories.Save(ctx, child); err != nil {
			return err
		}
	}
	s.recorder.Line(ctx, log, fmt.Sprintf("%d categories imported", count), false, nil)
	return nil
}

// ImportTags mirrors the store tag terms
func (s *ReferenceDataService) ImportTags(ctx context.Context, instance *store.Instance) error {
	client := s.clients(instance)
	log := s.recorder.Open(ctx, instance.ID, queue.OperationProductTags, queue.OperationTypeImport)
	defer s.recorder.Close(ctx, log)

	count := 0
	err := client.ListTags(ctx, s.pageSize, func(terms []woocommerce.TagTerm) error {
		for _, term := range terms {
			remoteID := woocommerce.FormatID(term.ID)
			tag, err := s.tags.FindByRemoteID(ctx, instance.ID, remoteID)
			if errors.Is(err, shared.ErrNotFound) {
				tag = &catalog.Tag{
					BaseEntity: shared.NewBaseEntity(),
					InstanceID: instance.ID,
					RemoteID:   remoteID,
				}
				err = nil
			}
			if err != nil {
				return err
			}
			tag.Name = term.Name
			tag.Slug = strings.ToLower(term.Slug)
			if err := s.tags.Save(ctx, tag); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		s.recorder.Line(ctx, log, "tag import failed: "+err.Error(), true, nil)
		return err
	}
	s.recorder.Line(ctx, log, fmt.Sprintf("%d tags imported", count), false, nil)
	return nil
}

// ---------------------------------------------------------------------------
// Webhooks
// ---------------------------------------------------------------------------

// RegisterWebhooks makes sure each supported topic has an active webhook on
// the store pointing back at callbackBaseURL. Existing registrations are
// left alone.
func (s *ReferenceDataService) RegisterWebhooks(ctx context.Context, instance *store.Instance, callbackBaseURL string) error {
	client := s.clients(instance)
	log := s.recorder.Open(ctx, instance.ID, queue.OperationWebhook, queue.OperationTypeExport)
	defer s.recorder.Close(ctx, log)

	base := strings.TrimRight(callbackBaseURL, "/")
	topics := []struct {
		topic store.WebhookTopic
		name  string
	}{
		{store.WebhookTopicCustomerCreated, "customers"},
		{store.WebhookTopicOrderCreated, "orders"},
		{store.WebhookTopicProductCreated, "products"},
	}

	for _, t := range topics {
		registration, err := s.webhooks.FindByInstanceAndTopic(ctx, instance.ID, t.topic)
		if err == nil && registration.IsActive() {
			continue
		}
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if registration == nil {
			registration, err = store.NewWebhookRegistration(instance.ID, t.name, t.topic)
			if err != nil {
				return err
			}
		}

		deliveryURL := base + t.topic.Route()
		remote, err := client.CreateWebhook(ctx, t.name, string(t.topic), deliveryURL)
		if err != nil {
			s.recorder.Line(ctx, log, "webhook registration failed for "+string(t.topic)+": "+err.Error(), true, nil)
			return err
		}
		registration.Activate(woocommerce.FormatID(remote.ID), deliveryURL)
		if err := s.webhooks.Save(ctx, registration); err != nil {
			return err
		}
		s.recorder.Line(ctx, log, "webhook registered for "+string(t.topic), false, nil)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Refunds
// ---------------------------------------------------------------------------

// PushRefund issues a refund on the store against an imported order. The
// order must have been confirmed locally; nothing has been collected for a
// draft.
func (s *ReferenceDataService) PushRefund(ctx context.Context, instance *store.Instance, orderNumber string, amount decimal.Decimal, reason string) error {
	order, err := s.orders.FindByExternalNumber(ctx, instance.ID, orderNumber)
	if err != nil {
		return err
	}
	if order.State == sales.OrderStateDraft {
		return ErrRefundOnDraft
	}
	remoteID, err := strconv.ParseInt(order.ExternalID, 10, 64)
	if err != nil {
		return fmt.Errorf("order %s has malformed external id %q", orderNumber, order.ExternalID)
	}

	client := s.clients(instance)
	log := s.recorder.Open(ctx, instance.ID, queue.OperationRefund, queue.OperationTypeExport)
	defer s.recorder.Close(ctx, log)

	result, err := client.CreateOrderRefund(ctx, remoteID, amount.StringFixed(2), reason)
	if err != nil {
		s.recorder.Line(ctx, log, "refund push failed for "+orderNumber+": "+err.Error(), true, nil)
		return err
	}
	if !result.OK {
		s.recorder.Exchange(ctx, log, "refund refused for "+orderNumber+": "+result.Error(), true, nil,
			amount.StringFixed(2), result.Raw)
		return fmt.Errorf("refund refused: %s", result.Error())
	}
	s.recorder.Line(ctx, log, fmt.Sprintf("refund of %s pushed for %s", amount.StringFixed(2), orderNumber), false, nil)
	return nil
}

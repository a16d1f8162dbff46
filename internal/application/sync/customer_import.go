package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/partner"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/woocommerce"
)

// CustomerImportService reconciles storefront customers into local partner
// records. Matching is by storefront identifier.
type CustomerImportService struct {
	customers partner.Repository
	engine    *Engine
	pageSize  int
	logger    *zap.Logger
}

// NewCustomerImportService creates a new CustomerImportService
func NewCustomerImportService(customers partner.Repository, engine *Engine, pageSize int, logger *zap.Logger) *CustomerImportService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &CustomerImportService{
		customers: customers,
		engine:    engine,
		pageSize:  pageSize,
		logger:    logger.Named("customer-import"),
	}
}

// ImportAll fetches every storefront customer, queues them and processes
// the resulting batches
func (s *CustomerImportService) ImportAll(ctx context.Context, instance *store.Instance, client *woocommerce.Client, trigger queue.Trigger) error {
	var records []Record
	err := client.ListCustomers(ctx, s.pageSize, func(page []woocommerce.Customer) error {
		for _, c := range page {
			payload, err := json.Marshal(c)
			if err != nil {
				return err
			}
			records = append(records, Record{
				ExternalID: woocommerce.FormatID(c.ID),
				Name:       c.Email,
				Payload:    payload,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	if _, err := s.engine.Enqueue(ctx, instance, queue.KindCustomer, trigger, records); err != nil {
		return err
	}
	return s.engine.ProcessPending(ctx, instance, queue.KindCustomer, trigger,
		queue.OperationCustomer, queue.OperationTypeImport, s.ResolveLine)
}

// ResolveLine reconciles one queued customer snapshot
func (s *CustomerImportService) ResolveLine(ctx context.Context, instance *store.Instance, line *queue.Line) LineOutcome {
	var remote woocommerce.Customer
	if err := json.Unmarshal(line.Payload, &remote); err != nil {
		return LineOutcome{Message: "malformed customer payload: " + err.Error(), Fault: true, Failed: true}
	}
	customer, err := s.Upsert(ctx, instance, &remote)
	if err != nil {
		return LineOutcome{Message: "customer " + line.ExternalID + ": " + err.Error(), Fault: true, Failed: true}
	}
	return LineOutcome{
		RecordID: &customer.ID,
		Message:  fmt.Sprintf("customer %s reconciled as %s", line.ExternalID, customer.Name),
	}
}

// Upsert reconciles one storefront customer into the local mirror
func (s *CustomerImportService) Upsert(ctx context.Context, instance *store.Instance, remote *woocommerce.Customer) (*partner.Customer, error) {
	externalID := woocommerce.FormatID(remote.ID)
	customer, err := s.customers.FindByExternalID(ctx, instance.ID, externalID)
	switch {
	case err == nil:
		if name := remote.Name(); name != "" {
			customer.Name = name
		}
		if remote.Email != "" {
			customer.Email = remote.Email
		}
	case errors.Is(err, shared.ErrNotFound):
		customer, err = partner.NewCustomer(instance.ID, externalID, remote.Name(), remote.Email)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := applyAddresses(customer, remote.Shipping, remote.Billing); err != nil {
		return nil, err
	}
	if err := s.customers.Save(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// ErrOrderWithoutCustomer rejects order snapshots that carry no storefront
// customer identifier. Such orders cannot be attributed and fail their line.
var ErrOrderWithoutCustomer = errors.New("order carries no customer id")

// EnsureForOrder resolves the registered customer behind an incoming order,
// fetching it on demand when not mirrored yet
func (s *CustomerImportService) EnsureForOrder(ctx context.Context, instance *store.Instance, client *woocommerce.Client, order *woocommerce.Order) (*partner.Customer, error) {
	if order.CustomerID <= 0 {
		return nil, ErrOrderWithoutCustomer
	}
	externalID := woocommerce.FormatID(order.CustomerID)
	customer, err := s.customers.FindByExternalID(ctx, instance.ID, externalID)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	remote, err := client.GetCustomer(ctx, order.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer %s unavailable: %w", externalID, err)
	}
	return s.Upsert(ctx, instance, remote)
}

// applyAddresses upserts the delivery and invoice child addresses from the
// storefront blocks. Blocks without a street are ignored.
func applyAddresses(customer *partner.Customer, shipping, billing woocommerce.OrderAddress) error {
	blocks := []struct {
		typ  partner.AddressType
		data woocommerce.OrderAddress
	}{
		{partner.AddressTypeDelivery, shipping},
		{partner.AddressTypeInvoice, billing},
	}
	for _, block := range blocks {
		if block.data.Address1 == "" {
			continue
		}
		_, err := customer.UpsertAddress(partner.Address{
			Type:    block.typ,
			Name:    block.data.Name(),
			Street:  block.data.Address1,
			Street2: block.data.Address2,
			City:    block.data.City,
			Zip:     block.data.Postcode,
			State:   block.data.State,
			Country: block.data.Country,
			Phone:   block.data.Phone,
			Email:   block.data.Email,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/catalog"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/infrastructure/woocommerce"
)

// rateCache resolves storefront tax rate references into local tax
// mappings, reusing resolutions across the lines of one order. With default
// tax behaviour taxes are left to the ERP fiscal setup and every lookup
// resolves to nothing.
type rateCache struct {
	taxes    catalog.TaxRepository
	client   *woocommerce.Client
	instance *store.Instance
	cache    map[int64]*catalog.Tax
}

func newRateCache(taxes catalog.TaxRepository, client *woocommerce.Client, instance *store.Instance) *rateCache {
	return &rateCache{
		taxes:    taxes,
		client:   client,
		instance: instance,
		cache:    make(map[int64]*catalog.Tax),
	}
}

// resolve maps the tax references of one order line to local tax
// identifiers. An unmapped tax is an error; the caller decides whether the
// line survives.
func (r *rateCache) resolve(ctx context.Context, lineTaxes []woocommerce.LineTax) ([]uuid.UUID, error) {
	if r.instance.TaxBehaviour != store.TaxBehaviourCreateRemote {
		return nil, nil
	}
	var ids []uuid.UUID
	for _, lt := range lineTaxes {
		if lt.ID == 0 {
			continue
		}
		tax, err := r.lookup(ctx, lt.ID)
		if err != nil {
			return nil, err
		}
		if !tax.IsMapped() {
			return nil, fmt.Errorf("tax rate %d (%s) is not mapped", lt.ID, tax.Name)
		}
		ids = append(ids, *tax.ErpTaxID)
	}
	return ids, nil
}

func (r *rateCache) lookup(ctx context.Context, rateID int64) (*catalog.Tax, error) {
	if tax, ok := r.cache[rateID]; ok {
		return tax, nil
	}
	remoteID := woocommerce.FormatID(rateID)
	tax, err := r.taxes.FindByRemoteID(ctx, r.instance.ID, remoteID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		tax, err = r.materialize(ctx, rateID, remoteID)
		if err != nil {
			return nil, err
		}
	}
	r.cache[rateID] = tax
	return tax, nil
}

// materialize mirrors a tax rate seen for the first time on an order,
// fetching its definition from the store
func (r *rateCache) materialize(ctx context.Context, rateID int64, remoteID string) (*catalog.Tax, error) {
	remote, err := r.client.GetTaxRate(ctx, rateID)
	if err != nil {
		return nil, fmt.Errorf("tax rate %d unavailable: %w", rateID, err)
	}
	tax := &catalog.Tax{
		BaseEntity: shared.NewBaseEntity(),
		InstanceID: r.instance.ID,
		RemoteID:   remoteID,
		Name:       remote.Name,
		Rate:       woocommerce.ParseDecimal(remote.Rate),
	}
	if err := r.taxes.Save(ctx, tax); err != nil {
		return nil, err
	}
	return tax, nil
}

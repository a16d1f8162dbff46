package store

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
)

var (
	ErrInstanceInvalidName        = errors.New("store: instance name is required")
	ErrInstanceInvalidBaseURL     = errors.New("store: instance base URL is invalid")
	ErrInstanceMissingCredentials = errors.New("store: consumer key and secret are required")
	ErrInstanceNotActive          = errors.New("store: instance is not active")
)

// TaxBehaviour controls how taxes on imported orders are resolved.
type TaxBehaviour string

const (
	// TaxBehaviourDefault leaves tax resolution to the ERP's own fiscal
	// configuration.
	TaxBehaviourDefault TaxBehaviour = "default"
	// TaxBehaviourCreateRemote materializes tax rates received from the
	// store, creating local records when they are not found.
	TaxBehaviourCreateRemote TaxBehaviour = "create_remote"
)

// IsValid returns true if the tax behaviour is valid
func (b TaxBehaviour) IsValid() bool {
	switch b {
	case TaxBehaviourDefault, TaxBehaviourCreateRemote:
		return true
	default:
		return false
	}
}

// Instance is one configured connection to a WooCommerce store: URL,
// credentials and the ERP-side defaults used when records are created on
// behalf of that store.
type Instance struct {
	shared.BaseEntity
	Name           string
	Active         bool
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Timezone       string

	CompanyID   uuid.UUID
	WarehouseID uuid.UUID
	// PriceListID overrides the currency-matched price list when set.
	PriceListID *uuid.UUID

	// ShippingProductID and FeeProductID are the synthetic products used
	// for shipping and fee order lines.
	ShippingProductID uuid.UUID
	FeeProductID      uuid.UUID

	TaxBehaviour            TaxBehaviour
	CreateProductIfNotFound bool
	SyncImages              bool

	// InsecureSkipTLSVerify disables certificate validation for the store
	// API. Off by default; only for stores with broken certificates.
	InsecureSkipTLSVerify bool

	RequestTimeout time.Duration

	LastOrderSyncAt   *time.Time
	LastProductSyncAt *time.Time
}

// NewInstance creates a new store instance connection
func NewInstance(name, baseURL, consumerKey, consumerSecret string, companyID, warehouseID uuid.UUID) (*Instance, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInstanceInvalidName
	}
	if err := validateBaseURL(baseURL); err != nil {
		return nil, err
	}
	if consumerKey == "" || consumerSecret == "" {
		return nil, ErrInstanceMissingCredentials
	}
	return &Instance{
		BaseEntity:     shared.NewBaseEntity(),
		Name:           name,
		Active:         true,
		BaseURL:        strings.TrimRight(baseURL, "/"),
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		CompanyID:      companyID,
		WarehouseID:    warehouseID,
		TaxBehaviour:   TaxBehaviourDefault,
		RequestTimeout: 30 * time.Second,
	}, nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInstanceInvalidBaseURL
	}
	return nil
}

// Host returns the hostname of the store URL, used to match inbound
// webhook deliveries to an instance.
func (i *Instance) Host() string {
	u, err := url.Parse(i.BaseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// MatchesDomain reports whether the given shop domain belongs to this
// instance. Comparison is case-insensitive and tolerates a scheme prefix.
func (i *Instance) MatchesDomain(domain string) bool {
	if domain == "" {
		return false
	}
	domain = strings.ToLower(strings.TrimSpace(domain))
	if u, err := url.Parse(domain); err == nil && u.Host != "" {
		domain = u.Host
	}
	return strings.EqualFold(i.Host(), domain) ||
		strings.Contains(strings.ToLower(i.BaseURL), domain)
}

// MarkOrdersSynced records the time up to which orders were fetched
func (i *Instance) MarkOrdersSynced(at time.Time) {
	i.LastOrderSyncAt = &at
	i.UpdatedAt = time.Now()
}

// MarkProductsSynced records the time up to which products were fetched
func (i *Instance) MarkProductsSynced(at time.Time) {
	i.LastProductSyncAt = &at
	i.UpdatedAt = time.Now()
}

package partner

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// ErrCustomerInvalidName indicates a customer without a usable name
	ErrCustomerInvalidName = errors.New("partner: customer name is required")
	// ErrInvalidAddressType indicates an address type outside delivery/invoice
	ErrInvalidAddressType = errors.New("partner: invalid address type")
)

// ---------------------------------------------------------------------------
// Customer Aggregate
// ---------------------------------------------------------------------------

// Customer mirrors a storefront customer. A customer is unique per store
// instance and storefront identifier.
type Customer struct {
	shared.BaseEntity
	// InstanceID is the store instance this customer belongs to
	InstanceID uuid.UUID
	// ExternalID is the customer identifier on the storefront
	ExternalID string
	// Name is the display name
	Name string
	// Email is the contact email
	Email string
	// Phone is the contact phone
	Phone string
	// Addresses are the child delivery and invoice addresses
	Addresses []Address
}

// AddressType distinguishes the two child address roles
type AddressType string

const (
	// AddressTypeDelivery is the shipping address
	AddressTypeDelivery AddressType = "delivery"
	// AddressTypeInvoice is the billing address
	AddressTypeInvoice AddressType = "invoice"
)

// IsValid returns true if the address type is valid
func (t AddressType) IsValid() bool {
	return t == AddressTypeDelivery || t == AddressTypeInvoice
}

// String returns the string representation of AddressType
func (t AddressType) String() string {
	return string(t)
}

// Address is a child address of a customer
type Address struct {
	shared.BaseEntity
	// ParentID is the owning customer
	ParentID uuid.UUID
	// Type is the address role
	Type AddressType
	// Name is the recipient name
	Name string
	Street  string
	Street2 string
	City    string
	Zip     string
	State   string
	Country string
	Phone   string
	Email   string
}

// NewCustomer creates a customer for an instance. The name falls back to the
// email when the storefront record has no usable name.
func NewCustomer(instanceID uuid.UUID, externalID, name, email string) (*Customer, error) {
	if instanceID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(email)
	}
	if name == "" {
		return nil, ErrCustomerInvalidName
	}
	return &Customer{
		BaseEntity: shared.NewBaseEntity(),
		InstanceID: instanceID,
		ExternalID: externalID,
		Name:       name,
		Email:      email,
	}, nil
}

// UpsertAddress overwrites the child address of the given type, or adds it
// when none exists. A customer carries at most one address per type, so a
// changed storefront address replaces the previous one instead of
// accumulating duplicates. Returns the stored address.
func (c *Customer) UpsertAddress(addr Address) (*Address, error) {
	if !addr.Type.IsValid() {
		return nil, ErrInvalidAddressType
	}
	addr.ParentID = c.ID
	for i := range c.Addresses {
		if c.Addresses[i].Type == addr.Type {
			addr.BaseEntity = c.Addresses[i].BaseEntity
			c.Addresses[i] = addr
			return &c.Addresses[i], nil
		}
	}
	addr.BaseEntity = shared.NewBaseEntity()
	c.Addresses = append(c.Addresses, addr)
	return &c.Addresses[len(c.Addresses)-1], nil
}

// AddressOfType returns the child address of the given type, or nil
func (c *Customer) AddressOfType(t AddressType) *Address {
	for i := range c.Addresses {
		if c.Addresses[i].Type == t {
			return &c.Addresses[i]
		}
	}
	return nil
}

// Same reports whether two addresses carry the same postal content,
// ignoring identity and timestamps
func (a Address) Same(other Address) bool {
	return a.Type == other.Type &&
		a.Name == other.Name &&
		a.Street == other.Street &&
		a.Street2 == other.Street2 &&
		a.City == other.City &&
		a.Zip == other.Zip &&
		a.State == other.State &&
		a.Country == other.Country
}

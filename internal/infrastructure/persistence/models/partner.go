package models

import (
	"github.com/google/uuid"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/partner"
)

// CustomerModel is the persistence model for the partner Customer aggregate
type CustomerModel struct {
	BaseModel
	InstanceID uuid.UUID `gorm:"type:uuid;not null;index:idx_customer_external,priority:1"`
	ExternalID string    `gorm:"type:varchar(50);index:idx_customer_external,priority:2"`
	Name       string    `gorm:"type:varchar(200);not null"`
	Email      string    `gorm:"type:varchar(255);index"`
	Phone      string    `gorm:"type:varchar(50)"`

	Addresses []AddressModel `gorm:"foreignKey:ParentID"`
}

// TableName returns the table name for CustomerModel
func (CustomerModel) TableName() string {
	return "partner_customers"
}

// AddressModel is the persistence model for customer child addresses
type AddressModel struct {
	BaseModel
	ParentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_address_parent_type,priority:1"`
	Type     string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_address_parent_type,priority:2"`
	Name     string    `gorm:"type:varchar(200)"`
	Street   string    `gorm:"type:varchar(255)"`
	Street2  string    `gorm:"type:varchar(255)"`
	City     string    `gorm:"type:varchar(100)"`
	Zip      string    `gorm:"type:varchar(20)"`
	State    string    `gorm:"type:varchar(100)"`
	Country  string    `gorm:"type:varchar(2)"`
	Phone    string    `gorm:"type:varchar(50)"`
	Email    string    `gorm:"type:varchar(255)"`
}

// TableName returns the table name for AddressModel
func (AddressModel) TableName() string {
	return "partner_addresses"
}

// ToDomain converts CustomerModel and its addresses to a domain Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	c := &partner.Customer{
		BaseEntity: m.BaseModel.ToDomain(),
		InstanceID: m.InstanceID,
		ExternalID: m.ExternalID,
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
	}
	for i := range m.Addresses {
		a := m.Addresses[i]
		c.Addresses = append(c.Addresses, partner.Address{
			BaseEntity: a.BaseModel.ToDomain(),
			ParentID:   a.ParentID,
			Type:       partner.AddressType(a.Type),
			Name:       a.Name,
			Street:     a.Street,
			Street2:    a.Street2,
			City:       a.City,
			Zip:        a.Zip,
			State:      a.State,
			Country:    a.Country,
			Phone:      a.Phone,
			Email:      a.Email,
		})
	}
	return c
}

// FromDomain populates CustomerModel from a domain Customer
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.InstanceID = c.InstanceID
	m.ExternalID = c.ExternalID
	m.Name = c.Name
	m.Email = c.Email
	m.Phone = c.Phone
	m.Addresses = m.Addresses[:0]
	for i := range c.Addresses {
		a := c.Addresses[i]
		var model AddressModel
		model.FromDomainBaseEntity(a.BaseEntity)
		model.ParentID = a.ParentID
		model.Type = string(a.Type)
		model.Name = a.Name
		model.Street = a.Street
		model.Street2 = a.Street2
		model.City = a.City
		model.Zip = a.Zip
		model.State = a.State
		model.Country = a.Country
		model.Phone = a.Phone
		model.Email = a.Email
		m.Addresses = append(m.Addresses, model)
	}
}

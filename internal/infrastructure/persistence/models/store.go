package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
)

// InstanceModel is the persistence model for the store Instance aggregate
type InstanceModel struct {
	BaseModel
	Name           string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Active         bool   `gorm:"not null;default:true;index"`
	BaseURL        string `gorm:"type:varchar(255);not null"`
	ConsumerKey    string `gorm:"type:varchar(255);not null"`
	ConsumerSecret string `gorm:"type:varchar(255);not null"`
	Timezone       string `gorm:"type:varchar(64)"`

	CompanyID   uuid.UUID  `gorm:"type:uuid;not null"`
	WarehouseID uuid.UUID  `gorm:"type:uuid;not null"`
	PriceListID *uuid.UUID `gorm:"type:uuid"`

	ShippingProductID uuid.UUID `gorm:"type:uuid"`
	FeeProductID      uuid.UUID `gorm:"type:uuid"`

	TaxBehaviour            string `gorm:"type:varchar(20);not null;default:'default'"`
	CreateProductIfNotFound bool   `gorm:"not null;default:false"`
	SyncImages              bool   `gorm:"not null;default:false"`
	InsecureSkipTLSVerify   bool   `gorm:"not null;default:false"`

	RequestTimeoutSeconds int `gorm:"not null;default:30"`

	LastOrderSyncAt   *time.Time
	LastProductSyncAt *time.Time
}

// TableName returns the table name for InstanceModel
func (InstanceModel) TableName() string {
	return "store_instances"
}

// ToDomain converts InstanceModel to a domain Instance
func (m *InstanceModel) ToDomain() *store.Instance {
	return &store.Instance{
		BaseEntity:              m.BaseModel.ToDomain(),
		Name:                    m.Name,
		Active:                  m.Active,
		BaseURL:                 m.BaseURL,
		ConsumerKey:             m.ConsumerKey,
		ConsumerSecret:          m.ConsumerSecret,
		Timezone:                m.Timezone,
		CompanyID:               m.CompanyID,
		WarehouseID:             m.WarehouseID,
		PriceListID:             m.PriceListID,
		ShippingProductID:       m.ShippingProductID,
		FeeProductID:            m.FeeProductID,
		TaxBehaviour:            store.TaxBehaviour(m.TaxBehaviour),
		CreateProductIfNotFound: m.CreateProductIfNotFound,
		SyncImages:              m.SyncImages,
		InsecureSkipTLSVerify:   m.InsecureSkipTLSVerify,
		RequestTimeout:          time.Duration(m.RequestTimeoutSeconds) * time.Second,
		LastOrderSyncAt:         m.LastOrderSyncAt,
		LastProductSyncAt:       m.LastProductSyncAt,
	}
}

// FromDomain populates InstanceModel from a domain Instance
func (m *InstanceModel) FromDomain(i *store.Instance) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.Name = i.Name
	m.Active = i.Active
	m.BaseURL = i.BaseURL
	m.ConsumerKey = i.ConsumerKey
	m.ConsumerSecret = i.ConsumerSecret
	m.Timezone = i.Timezone
	m.CompanyID = i.CompanyID
	m.WarehouseID = i.WarehouseID
	m.PriceListID = i.PriceListID
	m.ShippingProductID = i.ShippingProductID
	m.FeeProductID = i.FeeProductID
	m.TaxBehaviour = string(i.TaxBehaviour)
	m.CreateProductIfNotFound = i.CreateProductIfNotFound
	m.SyncImages = i.SyncImages
	m.InsecureSkipTLSVerify = i.InsecureSkipTLSVerify
	m.RequestTimeoutSeconds = int(i.RequestTimeout / time.Second)
	m.LastOrderSyncAt = i.LastOrderSyncAt
	m.LastProductSyncAt = i.LastProductSyncAt
}

// WebhookModel is the persistence model for webhook registrations
type WebhookModel struct {
	BaseModel
	InstanceID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_webhook_instance_topic,priority:1"`
	Name        string    `gorm:"type:varchar(100);not null"`
	Topic       string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_webhook_instance_topic,priority:2"`
	State       string    `gorm:"type:varchar(20);not null;default:'inactive'"`
	RemoteID    string    `gorm:"type:varchar(50)"`
	DeliveryURL string    `gorm:"type:varchar(255)"`
}

// TableName returns the table name for WebhookModel
func (WebhookModel) TableName() string {
	return "store_webhooks"
}

// ToDomain converts WebhookModel to a domain WebhookRegistration
func (m *WebhookModel) ToDomain() *store.WebhookRegistration {
	return &store.WebhookRegistration{
		BaseEntity:  m.BaseModel.ToDomain(),
		InstanceID:  m.InstanceID,
		Name:        m.Name,
		Topic:       store.WebhookTopic(m.Topic),
		State:       store.WebhookState(m.State),
		RemoteID:    m.RemoteID,
		DeliveryURL: m.DeliveryURL,
	}
}

// FromDomain populates WebhookModel from a domain WebhookRegistration
func (m *WebhookModel) FromDomain(w *store.WebhookRegistration) {
	m.FromDomainBaseEntity(w.BaseEntity)
	m.InstanceID = w.InstanceID
	m.Name = w.Name
	m.Topic = string(w.Topic)
	m.State = string(w.State)
	m.RemoteID = w.RemoteID
	m.DeliveryURL = w.DeliveryURL
}

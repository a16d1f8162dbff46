package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/catalog"
)

// ListingModel is the persistence model for the catalog Listing aggregate
type ListingModel struct {
	BaseModel
	InstanceID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_listing_instance_template,priority:1;index:idx_listing_remote,priority:1"`
	TemplateID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_listing_instance_template,priority:2"`
	RemoteID         string    `gorm:"type:varchar(50);index:idx_listing_remote,priority:2"`
	Name             string    `gorm:"type:varchar(200);not null"`
	Description      string    `gorm:"type:text"`
	ShortDescription string    `gorm:"type:text"`
	Exported         bool      `gorm:"not null;default:false;index"`
	ExportedAt       *time.Time
	CategoryIDs      string `gorm:"type:text"`
	TagIDs           string `gorm:"type:text"`

	Items []ListingItemModel `gorm:"foreignKey:ListingID"`
}

// TableName returns the table name for ListingModel
func (ListingModel) TableName() string {
	return "catalog_listings"
}

// ListingItemModel is the persistence model for per-variant listing rows
type ListingItemModel struct {
	BaseModel
	ListingID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	InstanceID uuid.UUID       `gorm:"type:uuid;not null;index:idx_item_instance_sku,priority:1;index:idx_item_instance_remote,priority:1"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null"`
	RemoteID   string          `gorm:"type:varchar(50);index:idx_item_instance_remote,priority:2"`
	SKU        string          `gorm:"type:varchar(100);not null;index:idx_item_instance_sku,priority:2"`
	Price      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Exported   bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for ListingItemModel
func (ListingItemModel) TableName() string {
	return "catalog_listing_items"
}

// ToDomain converts ListingModel and its items to a domain Listing
func (m *ListingModel) ToDomain() *catalog.Listing {
	l := &catalog.Listing{
		BaseEntity:       m.BaseModel.ToDomain(),
		InstanceID:       m.InstanceID,
		TemplateID:       m.TemplateID,
		RemoteID:         m.RemoteID,
		Name:             m.Name,
		Description:      m.Description,
		ShortDescription: m.ShortDescription,
		Exported:         m.Exported,
		ExportedAt:       m.ExportedAt,
		CategoryIDs:      decodeUUIDs(m.CategoryIDs),
		TagIDs:           decodeUUIDs(m.TagIDs),
	}
	for i := range m.Items {
		l.Items = append(l.Items, *m.Items[i].ToDomain())
	}
	return l
}

// FromDomain populates ListingModel from a domain Listing
func (m *ListingModel) FromDomain(l *catalog.Listing) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.InstanceID = l.InstanceID
	m.TemplateID = l.TemplateID
	m.RemoteID = l.RemoteID
	m.Name = l.Name
	m.Description = l.Description
	m.ShortDescription = l.ShortDescription
	m.Exported = l.Exported
	m.ExportedAt = l.ExportedAt
	m.CategoryIDs = encodeUUIDs(l.CategoryIDs)
	m.TagIDs = encodeUUIDs(l.TagIDs)
	m.Items = m.Items[:0]
	for i := range l.Items {
		var item ListingItemModel
		item.FromDomain(&l.Items[i])
		m.Items = append(m.Items, item)
	}
}

// ToDomain converts ListingItemModel to a domain ListingItem
func (m *ListingItemModel) ToDomain() *catalog.ListingItem {
	return &catalog.ListingItem{
		BaseEntity: m.BaseModel.ToDomain(),
		ListingID:  m.ListingID,
		InstanceID: m.InstanceID,
		ProductID:  m.ProductID,
		RemoteID:   m.RemoteID,
		SKU:        m.SKU,
		Price:      m.Price,
		Exported:   m.Exported,
	}
}

// FromDomain populates ListingItemModel from a domain ListingItem
func (m *ListingItemModel) FromDomain(i *catalog.ListingItem) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.ListingID = i.ListingID
	m.InstanceID = i.InstanceID
	m.ProductID = i.ProductID
	m.RemoteID = i.RemoteID
	m.SKU = i.SKU
	m.Price = i.Price
	m.Exported = i.Exported
}

// CategoryModel is the persistence model for category mirrors
type CategoryModel struct {
	BaseModel
	InstanceID uuid.UUID  `gorm:"type:uuid;not null;index:idx_category_remote,priority:1;index:idx_category_slug,priority:1"`
	Name       string     `gorm:"type:varchar(100);not null"`
	Slug       string     `gorm:"type:varchar(100);index:idx_category_slug,priority:2"`
	RemoteID   string     `gorm:"type:varchar(50);index:idx_category_remote,priority:2"`
	ParentID   *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for CategoryModel
func (CategoryModel) TableName() string {
	return "catalog_categories"
}

// ToDomain converts CategoryModel to a domain Category
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseEntity: m.BaseModel.ToDomain(),
		InstanceID: m.InstanceID,
		Name:       m.Name,
		Slug:       m.Slug,
		RemoteID:   m.RemoteID,
		ParentID:   m.ParentID,
	}
}

// FromDomain populates CategoryModel from a domain Category
func (m *CategoryModel) FromDomain(c *catalog.Category) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.InstanceID = c.InstanceID
	m.Name = c.Name
	m.Slug = c.Slug
	m.RemoteID = c.RemoteID
	m.ParentID = c.ParentID
}

// TagModel is the persistence model for tag mirrors
type TagModel struct {
	BaseModel
	InstanceID uuid.UUID `gorm:"type:uuid;not null;index:idx_tag_remote,priority:1"`
	Name       string    `gorm:"type:varchar(100);not null"`
	Slug       string    `gorm:"type:varchar(100)"`
	RemoteID   string    `gorm:"type:varchar(50);index:idx_tag_remote,priority:2"`
	Sequence   int       `gorm:"not null;default:0"`
}

// TableName returns the table name for TagModel
func (TagModel) TableName() string {
	return "catalog_tags"
}

// ToDomain converts TagModel to a domain Tag
func (m *TagModel) ToDomain() *catalog.Tag {
	return &catalog.Tag{
		BaseEntity: m.BaseModel.ToDomain(),
		InstanceID: m.InstanceID,
		Name:       m.Name,
		Slug:       m.Slug,
		RemoteID:   m.RemoteID,
		Sequence:   m.Sequence,
	}
}

// FromDomain populates TagModel from a domain Tag
func (m *TagModel) FromDomain(t *catalog.Tag) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.InstanceID = t.InstanceID
	m.Name = t.Name
	m.Slug = t.Slug
	m.RemoteID = t.RemoteID
	m.Sequence = t.Sequence
}

// TaxModel is the persistence model for tax mappings
type TaxModel struct {
	BaseModel
	InstanceID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_tax_remote,priority:1"`
	RemoteID   string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_tax_remote,priority:2"`
	Name       string          `gorm:"type:varchar(100)"`
	Rate       decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	ErpTaxID   *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for TaxModel
func (TaxModel) TableName() string {
	return "catalog_taxes"
}

// ToDomain converts TaxModel to a domain Tax
func (m *TaxModel) ToDomain() *catalog.Tax {
	return &catalog.Tax{
		BaseEntity: m.BaseModel.ToDomain(),
		InstanceID: m.InstanceID,
		RemoteID:   m.RemoteID,
		Name:       m.Name,
		Rate:       m.Rate,
		ErpTaxID:   m.ErpTaxID,
	}
}

// FromDomain populates TaxModel from a domain Tax
func (m *TaxModel) FromDomain(t *catalog.Tax) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.InstanceID = t.InstanceID
	m.RemoteID = t.RemoteID
	m.Name = t.Name
	m.Rate = t.Rate
	m.ErpTaxID = t.ErpTaxID
}

// ShippingMethodModel is the persistence model for shipping method mirrors
type ShippingMethodModel struct {
	BaseModel
	InstanceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shipping_code,priority:1"`
	Code       string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_shipping_code,priority:2"`
	Name       string    `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for ShippingMethodModel
func (ShippingMethodModel) TableName() string {
	return "catalog_shipping_methods"
}

// ToDomain converts ShippingMethodModel to a domain ShippingMethod
func (m *ShippingMethodModel) ToDomain() *catalog.ShippingMethod {
	return &catalog.ShippingMethod{
		BaseEntity: m.BaseModel.ToDomain(),
		InstanceID: m.InstanceID,
		Code:       m.Code,
		Name:       m.Name,
	}
}

// FromDomain populates ShippingMethodModel from a domain ShippingMethod
func (m *ShippingMethodModel) FromDomain(s *catalog.ShippingMethod) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.InstanceID = s.InstanceID
	m.Code = s.Code
	m.Name = s.Name
}

// ImageModel is the persistence model for product images
type ImageModel struct {
	BaseModel
	ListingID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ItemID    *uuid.UUID `gorm:"type:uuid"`
	RemoteID  string     `gorm:"type:varchar(50)"`
	URL       string     `gorm:"type:varchar(512);not null"`
	Sequence  int        `gorm:"not null;default:0"`
}

// TableName returns the table name for ImageModel
func (ImageModel) TableName() string {
	return "catalog_product_images"
}

// ToDomain converts ImageModel to a domain ProductImage
func (m *ImageModel) ToDomain() *catalog.ProductImage {
	return &catalog.ProductImage{
		BaseEntity: m.BaseModel.ToDomain(),
		ListingID:  m.ListingID,
		ItemID:     m.ItemID,
		RemoteID:   m.RemoteID,
		URL:        m.URL,
		Sequence:   m.Sequence,
	}
}

// FromDomain populates ImageModel from a domain ProductImage
func (m *ImageModel) FromDomain(i *catalog.ProductImage) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.ListingID = i.ListingID
	m.ItemID = i.ItemID
	m.RemoteID = i.RemoteID
	m.URL = i.URL
	m.Sequence = i.Sequence
}

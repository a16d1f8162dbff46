package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/sales"
)

// SalesOrderModel is the persistence model for mirrored sales orders
type SalesOrderModel struct {
	BaseModel
	InstanceID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_order_instance_number,priority:1"`
	ExternalID        string     `gorm:"type:varchar(50);not null;index"`
	ExternalNumber    string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_order_instance_number,priority:2"`
	CustomerID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	DeliveryAddressID *uuid.UUID `gorm:"type:uuid"`
	InvoiceAddressID  *uuid.UUID `gorm:"type:uuid"`
	State             string     `gorm:"type:varchar(10);not null;index"`
	OrderDate         time.Time  `gorm:"not null"`
	GatewayID         *uuid.UUID `gorm:"type:uuid"`
	WorkflowPolicyID  *uuid.UUID `gorm:"type:uuid"`
	CarrierID         *uuid.UUID `gorm:"type:uuid"`
	PriceListID       *uuid.UUID `gorm:"type:uuid"`
	PickingPolicy     string     `gorm:"type:varchar(10);not null;default:'direct'"`
	TransactionID     string     `gorm:"type:varchar(100)"`
	AmountTotal       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	SkipAutoWorkflow  bool       `gorm:"not null;default:false"`
	Notes             string     `gorm:"type:text"`
	ConfirmedAt       *time.Time

	Lines []OrderLineModel `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for SalesOrderModel
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// OrderLineModel is the persistence model for sales order lines
type OrderLineModel struct {
	BaseModel
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null"`
	Description    string          `gorm:"type:text"`
	Quantity       decimal.Decimal `gorm:"type:decimal(15,3);not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(15,4);not null"`
	TaxIDs         string          `gorm:"type:text"`
	IsDelivery     bool            `gorm:"not null;default:false"`
	IsFee          bool            `gorm:"not null;default:false"`
	ExternalLineID string          `gorm:"type:varchar(50)"`
}

// TableName returns the table name for OrderLineModel
func (OrderLineModel) TableName() string {
	return "sales_order_lines"
}

// ToDomain converts SalesOrderModel and its lines to a domain SalesOrder
func (m *SalesOrderModel) ToDomain() *sales.SalesOrder {
	o := &sales.SalesOrder{
		BaseEntity:        m.BaseModel.ToDomain(),
		InstanceID:        m.InstanceID,
		ExternalID:        m.ExternalID,
		ExternalNumber:    m.ExternalNumber,
		CustomerID:        m.CustomerID,
		DeliveryAddressID: m.DeliveryAddressID,
		InvoiceAddressID:  m.InvoiceAddressID,
		State:             sales.OrderState(m.State),
		OrderDate:         m.OrderDate,
		GatewayID:         m.GatewayID,
		WorkflowPolicyID:  m.WorkflowPolicyID,
		CarrierID:         m.CarrierID,
		PriceListID:       m.PriceListID,
		PickingPolicy:     sales.PickingPolicy(m.PickingPolicy),
		TransactionID:     m.TransactionID,
		AmountTotal:       m.AmountTotal,
		SkipAutoWorkflow:  m.SkipAutoWorkflow,
		Notes:             decodeStrings(m.Notes),
		ConfirmedAt:       m.ConfirmedAt,
	}
	for i := range m.Lines {
		l := m.Lines[i]
		o.Lines = append(o.Lines, sales.OrderLine{
			BaseEntity:     l.BaseModel.ToDomain(),
			OrderID:        l.OrderID,
			ProductID:      l.ProductID,
			Description:    l.Description,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			TaxIDs:         decodeUUIDs(l.TaxIDs),
			IsDelivery:     l.IsDelivery,
			IsFee:          l.IsFee,
			ExternalLineID: l.ExternalLineID,
		})
	}
	return o
}

// FromDomain populates SalesOrderModel from a domain SalesOrder
func (m *SalesOrderModel) FromDomain(o *sales.SalesOrder) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.InstanceID = o.InstanceID
	m.ExternalID = o.ExternalID
	m.ExternalNumber = o.ExternalNumber
	m.CustomerID = o.CustomerID
	m.DeliveryAddressID = o.DeliveryAddressID
	m.InvoiceAddressID = o.InvoiceAddressID
	m.State = string(o.State)
	m.OrderDate = o.OrderDate
	m.GatewayID = o.GatewayID
	m.WorkflowPolicyID = o.WorkflowPolicyID
	m.CarrierID = o.CarrierID
	m.PriceListID = o.PriceListID
	m.PickingPolicy = string(o.PickingPolicy)
	m.TransactionID = o.TransactionID
	m.AmountTotal = o.AmountTotal
	m.SkipAutoWorkflow = o.SkipAutoWorkflow
	m.Notes = encodeStrings(o.Notes)
	m.ConfirmedAt = o.ConfirmedAt
	m.Lines = m.Lines[:0]
	for i := range o.Lines {
		l := o.Lines[i]
		var line OrderLineModel
		line.FromDomainBaseEntity(l.BaseEntity)
		line.OrderID = l.OrderID
		line.ProductID = l.ProductID
		line.Description = l.Description
		line.Quantity = l.Quantity
		line.UnitPrice = l.UnitPrice
		line.TaxIDs = encodeUUIDs(l.TaxIDs)
		line.IsDelivery = l.IsDelivery
		line.IsFee = l.IsFee
		line.ExternalLineID = l.ExternalLineID
		m.Lines = append(m.Lines, line)
	}
}

// GatewayModel is the persistence model for payment gateways
type GatewayModel struct {
	BaseModel
	InstanceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_gateway_instance_code,priority:1"`
	Code       string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_gateway_instance_code,priority:2"`
	Name       string    `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GatewayModel
func (GatewayModel) TableName() string {
	return "sales_payment_gateways"
}

// ToDomain converts GatewayModel to a domain PaymentGateway
func (m *GatewayModel) ToDomain() *sales.PaymentGateway {
	return &sales.PaymentGateway{
		BaseEntity: m.BaseModel.ToDomain(),
		InstanceID: m.InstanceID,
		Code:       m.Code,
		Name:       m.Name,
	}
}

// FromDomain populates GatewayModel from a domain PaymentGateway
func (m *GatewayModel) FromDomain(g *sales.PaymentGateway) {
	m.FromDomainBaseEntity(g.BaseEntity)
	m.InstanceID = g.InstanceID
	m.Code = g.Code
	m.Name = g.Name
}

// FinancialStatusModel is the persistence model for financial status rows
type FinancialStatusModel struct {
	BaseModel
	InstanceID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_finstatus_row,priority:1"`
	GatewayID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_finstatus_row,priority:2"`
	State            string     `gorm:"type:varchar(10);not null;uniqueIndex:idx_finstatus_row,priority:3"`
	WorkflowPolicyID *uuid.UUID `gorm:"type:uuid"`
	Active           bool       `gorm:"not null;default:true"`
}

// TableName returns the table name for FinancialStatusModel
func (FinancialStatusModel) TableName() string {
	return "sales_financial_statuses"
}

// ToDomain converts FinancialStatusModel to a domain FinancialStatus
func (m *FinancialStatusModel) ToDomain() *sales.FinancialStatus {
	return &sales.FinancialStatus{
		BaseEntity:       m.BaseModel.ToDomain(),
		InstanceID:       m.InstanceID,
		GatewayID:        m.GatewayID,
		State:            sales.FinancialState(m.State),
		WorkflowPolicyID: m.WorkflowPolicyID,
		Active:           m.Active,
	}
}

// FromDomain populates FinancialStatusModel from a domain FinancialStatus
func (m *FinancialStatusModel) FromDomain(s *sales.FinancialStatus) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.InstanceID = s.InstanceID
	m.GatewayID = s.GatewayID
	m.State = string(s.State)
	m.WorkflowPolicyID = s.WorkflowPolicyID
	m.Active = s.Active
}

// WorkflowPolicyModel is the persistence model for workflow policies
type WorkflowPolicyModel struct {
	BaseModel
	Name                  string     `gorm:"type:varchar(100);not null;uniqueIndex"`
	JournalID             *uuid.UUID `gorm:"type:uuid"`
	PickingPolicy         string     `gorm:"type:varchar(10);not null"`
	ConfirmSaleOrder      bool       `gorm:"not null;default:false"`
	ValidateDeliveryOrder bool       `gorm:"not null;default:false"`
	CreateInvoice         bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for WorkflowPolicyModel
func (WorkflowPolicyModel) TableName() string {
	return "sales_workflow_policies"
}

// ToDomain converts WorkflowPolicyModel to a domain WorkflowPolicy
func (m *WorkflowPolicyModel) ToDomain() *sales.WorkflowPolicy {
	return &sales.WorkflowPolicy{
		BaseEntity:            m.BaseModel.ToDomain(),
		Name:                  m.Name,
		JournalID:             m.JournalID,
		PickingPolicy:         sales.PickingPolicy(m.PickingPolicy),
		ConfirmSaleOrder:      m.ConfirmSaleOrder,
		ValidateDeliveryOrder: m.ValidateDeliveryOrder,
		CreateInvoice:         m.CreateInvoice,
	}
}

// FromDomain populates WorkflowPolicyModel from a domain WorkflowPolicy
func (m *WorkflowPolicyModel) FromDomain(p *sales.WorkflowPolicy) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.Name = p.Name
	m.JournalID = p.JournalID
	m.PickingPolicy = string(p.PickingPolicy)
	m.ConfirmSaleOrder = p.ConfirmSaleOrder
	m.ValidateDeliveryOrder = p.ValidateDeliveryOrder
	m.CreateInvoice = p.CreateInvoice
}

// CarrierModel is the persistence model for delivery carriers
type CarrierModel struct {
	BaseModel
	InstanceID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_carrier_instance_code,priority:1"`
	Code       string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_carrier_instance_code,priority:2"`
	Name       string          `gorm:"type:varchar(100);not null"`
	ProductID  uuid.UUID       `gorm:"type:uuid"`
	FixedPrice decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
}

// TableName returns the table name for CarrierModel
func (CarrierModel) TableName() string {
	return "sales_delivery_carriers"
}

// ToDomain converts CarrierModel to a domain DeliveryCarrier
func (m *CarrierModel) ToDomain() *sales.DeliveryCarrier {
	return &sales.DeliveryCarrier{
		BaseEntity: m.BaseModel.ToDomain(),
		InstanceID: m.InstanceID,
		Code:       m.Code,
		Name:       m.Name,
		ProductID:  m.ProductID,
		FixedPrice: m.FixedPrice,
	}
}

// FromDomain populates CarrierModel from a domain DeliveryCarrier
func (m *CarrierModel) FromDomain(c *sales.DeliveryCarrier) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.InstanceID = c.InstanceID
	m.Code = c.Code
	m.Name = c.Name
	m.ProductID = c.ProductID
	m.FixedPrice = c.FixedPrice
}

// ---------------------------------------------------------------------------
// Column Codecs
// ---------------------------------------------------------------------------

func encodeStrings(values []string) string {
	if len(values) == 0 {
		return ""
	}
	data, _ := json.Marshal(values)
	return string(data)
}

func decodeStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}

func encodeUUIDs(ids []uuid.UUID) string {
	if len(ids) == 0 {
		return ""
	}
	data, _ := json.Marshal(ids)
	return string(data)
}

func decodeUUIDs(raw string) []uuid.UUID {
	if raw == "" {
		return nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}

package queue

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Operation Log Types
// ---------------------------------------------------------------------------

// Operation names the record family an API exchange touched
type Operation string

const (
	OperationOrder            Operation = "order"
	OperationProduct          Operation = "product"
	OperationProductAttribute Operation = "product_attribute"
	OperationProductVariant   Operation = "product_variant"
	OperationProductCategory  Operation = "product_category"
	OperationProductTags      Operation = "product_tags"
	OperationCustomer         Operation = "customer"
	OperationGateway          Operation = "gateway"
	OperationShipping         Operation = "shipping"
	OperationTax              Operation = "tax"
	OperationInventory        Operation = "inventory"
	OperationWebhook          Operation = "webhook"
	OperationRefund           Operation = "refund"
)

// IsValid returns true if the operation is valid
func (o Operation) IsValid() bool {
	switch o {
	case OperationOrder, OperationProduct, OperationProductAttribute,
		OperationProductVariant, OperationProductCategory, OperationProductTags,
		OperationCustomer, OperationGateway, OperationShipping, OperationTax,
		OperationInventory, OperationWebhook, OperationRefund:
		return true
	default:
		return false
	}
}

// OperationType is the direction of an API exchange
type OperationType string

const (
	OperationTypeImport OperationType = "import"
	OperationTypeExport OperationType = "export"
	OperationTypeUpdate OperationType = "update"
	OperationTypeDelete OperationType = "delete"
)

// ---------------------------------------------------------------------------
// Operation Log Aggregate
// ---------------------------------------------------------------------------

// OperationLog groups the outcome lines of one synchronization run
type OperationLog struct {
	shared.BaseEntity
	// Name is the run reference, e.g. "WC_LOG_00042"
	Name string
	// InstanceID is the store instance the run addressed
	InstanceID uuid.UUID
	// Operation is the record family the run touched
	Operation Operation
	// Type is the direction of the run
	Type OperationType
	// Lines are the per-record outcomes
	Lines []OperationLogLine
}

// OperationLogLine is the outcome of one record inside a run
type OperationLogLine struct {
	shared.BaseEntity
	// LogID is the owning run
	LogID uuid.UUID
	// Message describes the outcome
	Message string
	// Fault marks the line as an error rather than information
	Fault bool
	// QueueLineID links back to the queue line that produced this outcome,
	// if the run was queue-driven
	QueueLineID *uuid.UUID
	// RequestPayload holds the outbound payload for failed exchanges
	RequestPayload string
	// ResponsePayload holds the raw response for failed exchanges
	ResponsePayload string
}

// NewOperationLog opens a log for a run
func NewOperationLog(instanceID uuid.UUID, op Operation, typ OperationType) *OperationLog {
	return &OperationLog{
		BaseEntity: shared.NewBaseEntity(),
		InstanceID: instanceID,
		Operation:  op,
		Type:       typ,
	}
}

// AssignName sets the sequential run reference
func (l *OperationLog) AssignName(sequence int64) {
	l.Name = fmt.Sprintf("WC_LOG_%05d", sequence)
}

// AddLine appends an outcome line to the run
func (l *OperationLog) AddLine(message string, fault bool, queueLineID *uuid.UUID) *OperationLogLine {
	line := OperationLogLine{
		BaseEntity:  shared.NewBaseEntity(),
		LogID:       l.ID,
		Message:     message,
		Fault:       fault,
		QueueLineID: queueLineID,
	}
	l.Lines = append(l.Lines, line)
	return &l.Lines[len(l.Lines)-1]
}

// IsEmpty reports whether the run produced no outcome lines. Empty logs are
// deleted when the run closes.
func (l *OperationLog) IsEmpty() bool {
	return len(l.Lines) == 0
}

// HasFaults reports whether any line is a fault
func (l *OperationLog) HasFaults() bool {
	for i := range l.Lines {
		if l.Lines[i].Fault {
			return true
		}
	}
	return false
}

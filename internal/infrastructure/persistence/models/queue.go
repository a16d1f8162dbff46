package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
)

// QueueModel is the persistence model for queue batches
type QueueModel struct {
	BaseModel
	Name       string     `gorm:"type:varchar(50);not null;index"`
	Kind       string     `gorm:"type:varchar(20);not null;index:idx_queue_instance_kind,priority:2"`
	InstanceID uuid.UUID  `gorm:"type:uuid;not null;index:idx_queue_instance_kind,priority:1"`
	LogID      *uuid.UUID `gorm:"type:uuid"`
	Source     string     `gorm:"type:varchar(20);not null"`
	State      string     `gorm:"type:varchar(30);not null;index"`

	Lines []QueueLineModel `gorm:"foreignKey:QueueID"`
}

// TableName returns the table name for QueueModel
func (QueueModel) TableName() string {
	return "sync_queues"
}

// QueueLineModel is the persistence model for queue lines
type QueueLineModel struct {
	BaseModel
	QueueID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	InstanceID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_queue_line_external,priority:1"`
	ExternalID       string     `gorm:"type:varchar(50);not null;index:idx_queue_line_external,priority:2"`
	Name             string     `gorm:"type:varchar(100)"`
	Payload          string     `gorm:"type:text;not null"`
	State            string     `gorm:"type:varchar(20);not null;index"`
	FailCount        int        `gorm:"not null;default:0"`
	LastError        string     `gorm:"type:text"`
	ResolvedRecordID *uuid.UUID `gorm:"type:uuid"`
	ProcessedAt      *time.Time
}

// TableName returns the table name for QueueLineModel
func (QueueLineModel) TableName() string {
	return "sync_queue_lines"
}

// ToDomain converts QueueModel and its lines to a domain Queue
func (m *QueueModel) ToDomain() *queue.Queue {
	q := &queue.Queue{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Kind:       queue.Kind(m.Kind),
		InstanceID: m.InstanceID,
		LogID:      m.LogID,
		Source:     queue.Trigger(m.Source),
	}
	for i := range m.Lines {
		q.Lines = append(q.Lines, *m.Lines[i].ToDomain())
	}
	return q
}

// FromDomain populates QueueModel from a domain Queue. The derived state is
// denormalized into its own column for scheduler queries.
func (m *QueueModel) FromDomain(q *queue.Queue) {
	m.FromDomainBaseEntity(q.BaseEntity)
	m.Name = q.Name
	m.Kind = string(q.Kind)
	m.InstanceID = q.InstanceID
	m.LogID = q.LogID
	m.Source = string(q.Source)
	m.State = string(q.State())
	m.Lines = m.Lines[:0]
	for i := range q.Lines {
		var line QueueLineModel
		line.FromDomain(&q.Lines[i])
		m.Lines = append(m.Lines, line)
	}
}

// ToDomain converts QueueLineModel to a domain Line
func (m *QueueLineModel) ToDomain() *queue.Line {
	return &queue.Line{
		BaseEntity:       m.BaseModel.ToDomain(),
		QueueID:          m.QueueID,
		InstanceID:       m.InstanceID,
		ExternalID:       m.ExternalID,
		Name:             m.Name,
		Payload:          json.RawMessage(m.Payload),
		State:            queue.LineState(m.State),
		FailCount:        m.FailCount,
		LastError:        m.LastError,
		ResolvedRecordID: m.ResolvedRecordID,
		ProcessedAt:      m.ProcessedAt,
	}
}

// FromDomain populates QueueLineModel from a domain Line
func (m *QueueLineModel) FromDomain(l *queue.Line) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.QueueID = l.QueueID
	m.InstanceID = l.InstanceID
	m.ExternalID = l.ExternalID
	m.Name = l.Name
	m.Payload = string(l.Payload)
	m.State = string(l.State)
	m.FailCount = l.FailCount
	m.LastError = l.LastError
	m.ResolvedRecordID = l.ResolvedRecordID
	m.ProcessedAt = l.ProcessedAt
}

// OperationLogModel is the persistence model for operation logs
type OperationLogModel struct {
	BaseModel
	Name       string    `gorm:"type:varchar(50);not null;index"`
	InstanceID uuid.UUID `gorm:"type:uuid;not null;index"`
	Operation  string    `gorm:"type:varchar(30);not null"`
	Type       string    `gorm:"type:varchar(10);not null"`

	Lines []OperationLogLineModel `gorm:"foreignKey:LogID"`
}

// TableName returns the table name for OperationLogModel
func (OperationLogModel) TableName() string {
	return "sync_operation_logs"
}

// OperationLogLineModel is the persistence model for operation log lines
type OperationLogLineModel struct {
	BaseModel
	LogID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	Message         string     `gorm:"type:text;not null"`
	Fault           bool       `gorm:"not null;default:false"`
	QueueLineID     *uuid.UUID `gorm:"type:uuid"`
	RequestPayload  string     `gorm:"type:text"`
	ResponsePayload string     `gorm:"type:text"`
}

// TableName returns the table name for OperationLogLineModel
func (OperationLogLineModel) TableName() string {
	return "sync_operation_log_lines"
}

// ToDomain converts OperationLogModel and its lines to a domain OperationLog
func (m *OperationLogModel) ToDomain() *queue.OperationLog {
	log := &queue.OperationLog{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		InstanceID: m.InstanceID,
		Operation:  queue.Operation(m.Operation),
		Type:       queue.OperationType(m.Type),
	}
	for i := range m.Lines {
		l := m.Lines[i]
		log.Lines = append(log.Lines, queue.OperationLogLine{
			BaseEntity:      l.BaseModel.ToDomain(),
			LogID:           l.LogID,
			Message:         l.Message,
			Fault:           l.Fault,
			QueueLineID:     l.QueueLineID,
			RequestPayload:  l.RequestPayload,
			ResponsePayload: l.ResponsePayload,
		})
	}
	return log
}

// FromDomain populates OperationLogModel from a domain OperationLog
func (m *OperationLogModel) FromDomain(log *queue.OperationLog) {
	m.FromDomainBaseEntity(log.BaseEntity)
	m.Name = log.Name
	m.InstanceID = log.InstanceID
	m.Operation = string(log.Operation)
	m.Type = string(log.Type)
	m.Lines = m.Lines[:0]
	for i := range log.Lines {
		l := log.Lines[i]
		var line OperationLogLineModel
		line.FromDomainBaseEntity(l.BaseEntity)
		line.LogID = l.LogID
		line.Message = l.Message
		line.Fault = l.Fault
		line.QueueLineID = l.QueueLineID
		line.RequestPayload = l.RequestPayload
		line.ResponsePayload = l.ResponsePayload
		m.Lines = append(m.Lines, line)
	}
}

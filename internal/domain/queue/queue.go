package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// ErrInvalidKind indicates an unknown queue kind
	ErrInvalidKind = errors.New("queue: invalid queue kind")
	// ErrInvalidPayload indicates a line payload that is not valid JSON
	ErrInvalidPayload = errors.New("queue: payload is not valid JSON")
	// ErrLineNotPending indicates an operation on a line that already
	// reached a terminal state
	ErrLineNotPending = errors.New("queue: line is not pending")
)

// ---------------------------------------------------------------------------
// Kinds and States
// ---------------------------------------------------------------------------

// Kind identifies the record family a queue carries
type Kind string

const (
	// KindOrder carries sales orders pulled from the storefront
	KindOrder Kind = "order"
	// KindProduct carries product templates pulled from the storefront
	KindProduct Kind = "product"
	// KindCustomer carries customers pulled from the storefront
	KindCustomer Kind = "customer"
	// KindInventory carries stock levels pushed to the storefront
	KindInventory Kind = "inventory"
)

// IsValid returns true if the kind is valid
func (k Kind) IsValid() bool {
	switch k {
	case KindOrder, KindProduct, KindCustomer, KindInventory:
		return true
	default:
		return false
	}
}

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// LineState represents the processing state of a single queue line
type LineState string

const (
	// LineStateDraft means the line has not been processed yet
	LineStateDraft LineState = "draft"
	// LineStateCompleted means the line was processed successfully
	LineStateCompleted LineState = "completed"
	// LineStateFailed means processing raised an error
	LineStateFailed LineState = "failed"
	// LineStateCancelled means the line was withdrawn without processing
	LineStateCancelled LineState = "cancelled"
)

// IsValid returns true if the line state is valid
func (s LineState) IsValid() bool {
	switch s {
	case LineStateDraft, LineStateCompleted, LineStateFailed, LineStateCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of LineState
func (s LineState) String() string {
	return string(s)
}

// State represents the aggregate state of a queue, derived from its lines
type State string

const (
	// StateDraft means every line is still draft (or the queue is empty)
	StateDraft State = "draft"
	// StatePartiallyCompleted means the lines are in mixed states
	StatePartiallyCompleted State = "partially_completed"
	// StateCompleted means every line completed
	StateCompleted State = "completed"
	// StateFailed means every line failed
	StateFailed State = "failed"
)

// String returns the string representation of State
func (s State) String() string {
	return string(s)
}

// DeriveState computes the queue state from its line states. An empty line
// slice derives draft. Cancelled lines are ignored; a queue whose remaining
// lines all completed is completed even if some were cancelled.
func DeriveState(lines []Line) State {
	var draft, completed, failed, counted int
	for i := range lines {
		switch lines[i].State {
		case LineStateDraft:
			draft++
		case LineStateCompleted:
			completed++
		case LineStateFailed:
			failed++
		case LineStateCancelled:
			continue
		}
		counted++
	}
	switch {
	case counted == 0 || draft == counted:
		return StateDraft
	case completed == counted:
		return StateCompleted
	case failed == counted:
		return StateFailed
	default:
		return StatePartiallyCompleted
	}
}

// ---------------------------------------------------------------------------
// Queue Aggregate
// ---------------------------------------------------------------------------

// Queue is a batch of records of one kind awaiting processing for one
// store instance
type Queue struct {
	shared.BaseEntity
	// Name is the human-readable batch reference, e.g. "WC_ORDERS_00001"
	Name string
	// Kind identifies the record family carried by this queue
	Kind Kind
	// InstanceID is the store instance this batch belongs to
	InstanceID uuid.UUID
	// LogID links the operation log opened for the run that created
	// this batch, if any
	LogID *uuid.UUID
	// Source records what created the batch (scheduled, interactive, webhook)
	Source Trigger
	// Lines are the records in this batch
	Lines []Line
}

// Line is a single record inside a queue batch
type Line struct {
	shared.BaseEntity
	// QueueID is the owning batch
	QueueID uuid.UUID
	// InstanceID duplicates the batch instance for direct lookups
	InstanceID uuid.UUID
	// ExternalID is the record identifier on the storefront
	ExternalID string
	// Name is a display reference for the record (order number, SKU, email)
	Name string
	// Payload is the raw storefront record, stored as JSON
	Payload json.RawMessage
	// State is the processing state of this line
	State LineState
	// FailCount counts consecutive failed processing attempts
	FailCount int
	// LastError holds the most recent processing error, if any
	LastError string
	// ResolvedRecordID points at the local record created or updated by a
	// successful run
	ResolvedRecordID *uuid.UUID
	// ProcessedAt is when the line last reached a terminal state
	ProcessedAt *time.Time
}

// NewQueue creates a queue batch for the given instance and kind
func NewQueue(instanceID uuid.UUID, kind Kind, source Trigger) (*Queue, error) {
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}
	if instanceID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	return &Queue{
		BaseEntity: shared.NewBaseEntity(),
		Kind:       kind,
		InstanceID: instanceID,
		Source:     source,
	}, nil
}

// AddLine appends a draft line carrying the given payload. The payload must
// be valid JSON; anything else is rejected before it reaches storage.
func (q *Queue) AddLine(externalID, name string, payload []byte) (*Line, error) {
	if !json.Valid(payload) {
		return nil, ErrInvalidPayload
	}
	line := Line{
		BaseEntity: shared.NewBaseEntity(),
		QueueID:    q.ID,
		InstanceID: q.InstanceID,
		ExternalID: externalID,
		Name:       name,
		Payload:    json.RawMessage(payload),
		State:      LineStateDraft,
	}
	q.Lines = append(q.Lines, line)
	return &q.Lines[len(q.Lines)-1], nil
}

// State derives the aggregate state from the current lines
func (q *Queue) State() State {
	return DeriveState(q.Lines)
}

// AssignName sets the sequential batch reference
func (q *Queue) AssignName(sequence int64) {
	q.Name = fmt.Sprintf("%s_%05d", namePrefix(q.Kind), sequence)
}

func namePrefix(k Kind) string {
	switch k {
	case KindOrder:
		return "WC_ORDERS"
	case KindProduct:
		return "WC_PRODUCTS"
	case KindCustomer:
		return "WC_CUSTOMERS"
	case KindInventory:
		return "WC_INVENTORY"
	default:
		return "WC_QUEUE"
	}
}

// MarkCompleted transitions the line to completed and records the local
// record it resolved to
func (l *Line) MarkCompleted(recordID *uuid.UUID) error {
	if l.State == LineStateCancelled {
		return ErrLineNotPending
	}
	now := time.Now()
	l.State = LineStateCompleted
	l.LastError = ""
	l.ResolvedRecordID = recordID
	l.ProcessedAt = &now
	l.UpdatedAt = now
	return nil
}

// MarkFailed transitions the line to failed and increments the attempt
// counter
func (l *Line) MarkFailed(reason string) error {
	if l.State == LineStateCancelled {
		return ErrLineNotPending
	}
	now := time.Now()
	l.State = LineStateFailed
	l.FailCount++
	l.LastError = reason
	l.ProcessedAt = &now
	l.UpdatedAt = now
	return nil
}

// Reset returns the line to draft so a later run picks it up again. The
// attempt counter is preserved.
func (l *Line) Reset() {
	l.State = LineStateDraft
	l.UpdatedAt = time.Now()
}

// ---------------------------------------------------------------------------
// Triggers and Retry Policy
// ---------------------------------------------------------------------------

// Trigger identifies what initiated a processing run
type Trigger string

const (
	// TriggerScheduled marks runs started by the background scheduler
	TriggerScheduled Trigger = "scheduled"
	// TriggerInteractive marks runs started by an operator
	TriggerInteractive Trigger = "interactive"
	// TriggerWebhook marks batches created from a storefront webhook
	TriggerWebhook Trigger = "webhook"
)

// String returns the string representation of Trigger
func (t Trigger) String() string {
	return string(t)
}

// RetryPolicy bounds how many times a failed line is retried per kind.
// A limit of zero means failed lines are never retried for that kind.
type RetryPolicy struct {
	// Limits maps each kind to its maximum attempt count
	Limits map[Kind]int
}

// DefaultRetryPolicy matches the stock behaviour: product and inventory
// lines are retried up to three times, order and customer lines are retried
// without bound on interactive runs.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Limits: map[Kind]int{
		KindProduct:   3,
		KindInventory: 3,
	}}
}

// Limit returns the attempt bound for a kind, or -1 when unbounded
func (p RetryPolicy) Limit(kind Kind) int {
	if p.Limits == nil {
		return -1
	}
	limit, ok := p.Limits[kind]
	if !ok {
		return -1
	}
	return limit
}

// Eligible reports whether a line should be attempted on a run started by
// the given trigger. Draft lines are always eligible. Scheduled runs never
// readmit failed lines; interactive runs readmit them while under the
// kind's attempt bound, without bound for unbounded kinds. Completed and
// cancelled lines are never eligible.
func (p RetryPolicy) Eligible(line *Line, kind Kind, trigger Trigger) bool {
	switch line.State {
	case LineStateDraft:
		return true
	case LineStateFailed:
		if trigger == TriggerScheduled {
			return false
		}
		limit := p.Limit(kind)
		if limit < 0 {
			return true
		}
		return line.FailCount < limit
	default:
		return false
	}
}

package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/shared"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
)

// ---------------------------------------------------------------------------
// Queue Engine
// ---------------------------------------------------------------------------

// Record is one storefront record offered to the queue
type Record struct {
	// ExternalID is the record identifier on the storefront
	ExternalID string
	// Name is a display reference (order number, SKU, email)
	Name string
	// Payload is the raw storefront record
	Payload []byte
}

// LineOutcome is what a resolver reports for one processed line
type LineOutcome struct {
	// RecordID is the local record the line resolved to, if any
	RecordID *uuid.UUID
	// Message describes the outcome for the operation log
	Message string
	// Fault marks the outcome as an error
	Fault bool
	// Failed marks the line failed instead of completed
	Failed bool
}

// LineResolver turns one queue line into a local record
type LineResolver func(ctx context.Context, instance *store.Instance, line *queue.Line) LineOutcome

// Engine drives queue batches through a resolver. Runs for the same
// instance and kind are serialized so a webhook delivery and a scheduled
// pass never process the same lines concurrently.
type Engine struct {
	queues    queue.Repository
	recorder  *Recorder
	policy    queue.RetryPolicy
	batchSize int
	logger    *zap.Logger

	mu    stdsync.Mutex
	locks map[string]*stdsync.Mutex
}

// NewEngine creates a new Engine
func NewEngine(queues queue.Repository, recorder *Recorder, policy queue.RetryPolicy, batchSize int, logger *zap.Logger) *Engine {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Engine{
		queues:    queues,
		recorder:  recorder,
		policy:    policy,
		batchSize: batchSize,
		logger:    logger.Named("queue-engine"),
		locks:     make(map[string]*stdsync.Mutex),
	}
}

func (e *Engine) lock(instanceID uuid.UUID, kind queue.Kind) *stdsync.Mutex {
	key := instanceID.String() + "/" + kind.String()
	e.mu.Lock()
	defer e.mu.Unlock()
	if m, ok := e.locks[key]; ok {
		return m
	}
	m := &stdsync.Mutex{}
	e.locks[key] = m
	return m
}

// Enqueue chunks the given records into batches. Records whose newest
// existing line is still draft are dropped as duplicates; a chunk left
// empty after deduplication produces no batch.
func (e *Engine) Enqueue(ctx context.Context, instance *store.Instance, kind queue.Kind, source queue.Trigger, records []Record) ([]*queue.Queue, error) {
	var batches []*queue.Queue
	for start := 0; start < len(records); start += e.batchSize {
		end := start + e.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch, err := e.enqueueChunk(ctx, instance, kind, source, records[start:end])
		if err != nil {
			return batches, err
		}
		if batch != nil {
			batches = append(batches, batch)
		}
	}
	return batches, nil
}

func (e *Engine) enqueueChunk(ctx context.Context, instance *store.Instance, kind queue.Kind, source queue.Trigger, records []Record) (*queue.Queue, error) {
	batch, err := queue.NewQueue(instance.ID, kind, source)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		duplicate, err := e.isPendingDuplicate(ctx, instance.ID, kind, record.ExternalID)
		if err != nil {
			return nil, err
		}
		if duplicate {
			e.logger.Debug("skipping duplicate record",
				zap.String("kind", kind.String()),
				zap.String("external_id", record.ExternalID))
			continue
		}
		if _, err := batch.AddLine(record.ExternalID, record.Name, record.Payload); err != nil {
			e.logger.Warn("rejecting record with invalid payload",
				zap.String("kind", kind.String()),
				zap.String("external_id", record.ExternalID),
				zap.Error(err))
		}
	}
	if len(batch.Lines) == 0 {
		return nil, nil
	}
	sequence, err := e.queues.NextSequence(ctx, kind)
	if err != nil {
		return nil, err
	}
	batch.AssignName(sequence)
	if err := e.queues.Save(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (e *Engine) isPendingDuplicate(ctx context.Context, instanceID uuid.UUID, kind queue.Kind, externalID string) (bool, error) {
	if externalID == "" {
		return false, nil
	}
	line, err := e.queues.FindLineByExternalID(ctx, instanceID, kind, externalID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return line.State == queue.LineStateDraft, nil
}

// Process runs every eligible line of a batch through the resolver. Each
// line commits individually; a failing or panicking resolver fails that
// line and the run moves on.
func (e *Engine) Process(ctx context.Context, instance *store.Instance, batch *queue.Queue, trigger queue.Trigger, op queue.Operation, typ queue.OperationType, resolver LineResolver) error {
	m := e.lock(instance.ID, batch.Kind)
	m.Lock()
	defer m.Unlock()

	log := e.recorder.Open(ctx, instance.ID, op, typ)
	defer e.recorder.Close(ctx, log)

	batch.LogID = &log.ID
	if err := e.queues.Save(ctx, batch); err != nil {
		return err
	}

	for i := range batch.Lines {
		line := &batch.Lines[i]
		if !e.policy.Eligible(line, batch.Kind, trigger) {
			continue
		}
		outcome := e.resolve(ctx, instance, line, resolver)
		if outcome.Failed {
			if err := line.MarkFailed(outcome.Message); err != nil {
				continue
			}
		} else {
			if err := line.MarkCompleted(outcome.RecordID); err != nil {
				continue
			}
		}
		if err := e.queues.SaveLine(ctx, line); err != nil {
			e.logger.Error("failed to persist queue line",
				zap.String("queue", batch.Name),
				zap.String("external_id", line.ExternalID),
				zap.Error(err))
			return err
		}
		e.recorder.Line(ctx, log, outcome.Message, outcome.Fault, &line.ID)
	}
	return nil
}

// ProcessPending processes every batch of a kind that still admits work
// under the given trigger
func (e *Engine) ProcessPending(ctx context.Context, instance *store.Instance, kind queue.Kind, trigger queue.Trigger, op queue.Operation, typ queue.OperationType, resolver LineResolver) error {
	states := []queue.State{queue.StateDraft, queue.StatePartiallyCompleted}
	if trigger == queue.TriggerInteractive {
		states = append(states, queue.StateFailed)
	}
	batches, err := e.queues.FindPending(ctx, instance.ID, kind, states)
	if err != nil {
		return err
	}
	for i := range batches {
		if err := e.Process(ctx, instance, &batches[i], trigger, op, typ, resolver); err != nil {
			return err
		}
	}
	return nil
}

// resolve shields the run from a panicking resolver
func (e *Engine) resolve(ctx context.Context, instance *store.Instance, line *queue.Line, resolver LineResolver) (outcome LineOutcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("resolver panicked",
				zap.String("external_id", line.ExternalID),
				zap.Any("panic", r))
			outcome = LineOutcome{
				Message: fmt.Sprintf("internal error: %v", r),
				Fault:   true,
				Failed:  true,
			}
		}
	}()
	return resolver(ctx, instance, line)
}

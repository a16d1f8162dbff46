package sync

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/queue"
)

// Recorder writes operation logs around synchronization runs. Log storage
// failures are reported through the logger and never abort the run that is
// being recorded.
type Recorder struct {
	logs   queue.OperationLogRepository
	logger *zap.Logger
}

// NewRecorder creates a new Recorder
func NewRecorder(logs queue.OperationLogRepository, logger *zap.Logger) *Recorder {
	return &Recorder{logs: logs, logger: logger.Named("recorder")}
}

// Open starts a log for a run. The returned log is usable even when storage
// failed; Close will retry persisting it.
func (r *Recorder) Open(ctx context.Context, instanceID uuid.UUID, op queue.Operation, typ queue.OperationType) *queue.OperationLog {
	log := queue.NewOperationLog(instanceID, op, typ)
	sequence, err := r.logs.NextSequence(ctx)
	if err != nil {
		r.logger.Warn("log sequence unavailable", zap.Error(err))
		sequence = 1
	}
	log.AssignName(sequence)
	if err := r.logs.Save(ctx, log); err != nil {
		r.logger.Warn("failed to open operation log",
			zap.String("log", log.Name), zap.Error(err))
	}
	return log
}

// Line appends an outcome line to an open log and persists it
func (r *Recorder) Line(ctx context.Context, log *queue.OperationLog, message string, fault bool, queueLineID *uuid.UUID) {
	if log == nil {
		return
	}
	log.AddLine(message, fault, queueLineID)
	if err := r.logs.Save(ctx, log); err != nil {
		r.logger.Warn("failed to record log line",
			zap.String("log", log.Name), zap.Error(err))
	}
}

// Exchange appends an outcome line carrying the request and response bodies
// of a failed store exchange
func (r *Recorder) Exchange(ctx context.Context, log *queue.OperationLog, message string, fault bool, queueLineID *uuid.UUID, request, response string) {
	if log == nil {
		return
	}
	line := log.AddLine(message, fault, queueLineID)
	line.RequestPayload = request
	line.ResponsePayload = response
	if err := r.logs.Save(ctx, log); err != nil {
		r.logger.Warn("failed to record log line",
			zap.String("log", log.Name), zap.Error(err))
	}
}

// Close finishes a run. A log that gathered no lines is deleted instead of
// kept as noise.
func (r *Recorder) Close(ctx context.Context, log *queue.OperationLog) {
	if log == nil {
		return
	}
	if log.IsEmpty() {
		if err := r.logs.Delete(ctx, log.ID); err != nil {
			r.logger.Warn("failed to delete empty operation log",
				zap.String("log", log.Name), zap.Error(err))
		}
		return
	}
	log.Touch()
	if err := r.logs.Save(ctx, log); err != nil {
		r.logger.Warn("failed to close operation log",
			zap.String("log", log.Name), zap.Error(err))
	}
}

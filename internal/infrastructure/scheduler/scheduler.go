package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
)

var (
	// ErrInvalidConfig indicates a scheduler configuration error
	ErrInvalidConfig = errors.New("scheduler: invalid configuration")
	// ErrSchedulerNotRunning indicates an operation on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler: not running")
)

// Job is one recurring sync pass over a single store instance
type Job func(ctx context.Context, instance *store.Instance) error

// Config holds scheduler configuration
type Config struct {
	// Enabled indicates if the scheduler runs at all
	Enabled bool
	// OrderInterval is the period between order import passes
	OrderInterval time.Duration
	// ProductInterval is the period between product import passes
	ProductInterval time.Duration
	// CustomerInterval is the period between customer import passes
	CustomerInterval time.Duration
	// StockInterval is the period between stock export passes
	StockInterval time.Duration
	// QueueInterval is the period between queue drain passes
	QueueInterval time.Duration
	// JobTimeout is the maximum time one pass over one instance can run
	JobTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		OrderInterval:    10 * time.Minute,
		ProductInterval:  30 * time.Minute,
		CustomerInterval: 30 * time.Minute,
		StockInterval:    15 * time.Minute,
		QueueInterval:    5 * time.Minute,
		JobTimeout:       15 * time.Minute,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	for _, interval := range []time.Duration{
		c.OrderInterval, c.ProductInterval, c.CustomerInterval,
		c.StockInterval, c.QueueInterval,
	} {
		if interval <= 0 {
			return ErrInvalidConfig
		}
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// task pairs a named job with its interval
type task struct {
	name     string
	interval time.Duration
	job      Job
}

// Scheduler runs the recurring sync passes for every active instance.
// Each task ticks on its own interval; within a tick instances are
// processed sequentially so one slow store cannot starve the others of
// more than its own slot.
type Scheduler struct {
	config    Config
	instances store.InstanceRepository
	logger    *zap.Logger

	tasks []task

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// New creates a scheduler over the given instance repository
func New(config Config, instances store.InstanceRepository, logger *zap.Logger) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		config:    config,
		instances: instances,
		logger:    logger.Named("scheduler"),
	}, nil
}

// RegisterOrderImport schedules an order import pass
func (s *Scheduler) RegisterOrderImport(job Job) {
	s.register("order-import", s.config.OrderInterval, job)
}

// RegisterProductImport schedules a product import pass
func (s *Scheduler) RegisterProductImport(job Job) {
	s.register("product-import", s.config.ProductInterval, job)
}

// RegisterCustomerImport schedules a customer import pass
func (s *Scheduler) RegisterCustomerImport(job Job) {
	s.register("customer-import", s.config.CustomerInterval, job)
}

// RegisterStockExport schedules a stock export pass
func (s *Scheduler) RegisterStockExport(job Job) {
	s.register("stock-export", s.config.StockInterval, job)
}

// RegisterQueueDrain schedules a queue drain pass
func (s *Scheduler) RegisterQueueDrain(job Job) {
	s.register("queue-drain", s.config.QueueInterval, job)
}

func (s *Scheduler) register(name string, interval time.Duration, job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task{name: name, interval: interval, job: job})
}

// Start launches one ticker goroutine per registered task
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("scheduler disabled")
		return nil
	}
	s.isRunning = true
	tasks := make([]task, len(s.tasks))
	copy(tasks, s.tasks)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, t := range tasks {
		s.wg.Add(1)
		go s.runLoop(ctx, t)
	}

	s.logger.Info("scheduler started", zap.Int("tasks", len(tasks)))
	return nil
}

// Stop gracefully stops the scheduler, waiting for in-flight passes
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) runLoop(ctx context.Context, t task) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runTask(ctx, t)
		}
	}
}

// RunNow executes every registered task once, outside the tick cycle
func (s *Scheduler) RunNow(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	tasks := make([]task, len(s.tasks))
	copy(tasks, s.tasks)
	s.mu.Unlock()

	for _, t := range tasks {
		s.runTask(ctx, t)
	}
	return nil
}

func (s *Scheduler) runTask(ctx context.Context, t task) {
	instances, err := s.instances.FindActive(ctx)
	if err != nil {
		s.logger.Error("failed to list active instances",
			zap.String("task", t.name), zap.Error(err))
		return
	}

	for i := range instances {
		instance := &instances[i]
		jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
		start := time.Now()
		err := t.job(jobCtx, instance)
		cancel()

		if err != nil {
			s.logger.Warn("scheduled pass failed",
				zap.String("task", t.name),
				zap.String("instance", instance.Name),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			continue
		}
		s.logger.Debug("scheduled pass completed",
			zap.String("task", t.name),
			zap.String("instance", instance.Name),
			zap.Duration("elapsed", time.Since(start)))

		if ctx.Err() != nil {
			return
		}
	}
}

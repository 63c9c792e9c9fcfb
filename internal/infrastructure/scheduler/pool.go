package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erp/egnyte-provisioner/internal/domain/project"
)

// ---------------------------------------------------------------------------
// Executor Interface
// ---------------------------------------------------------------------------

// Executor processes a single project. Implementations must be safe for
// concurrent use: the pool calls Execute from multiple workers.
type Executor interface {
	Execute(ctx context.Context, p project.Project)
}

// ---------------------------------------------------------------------------
// PoolConfig
// ---------------------------------------------------------------------------

// PoolConfig holds configuration for the provisioning worker pool
type PoolConfig struct {
	// Workers is the number of concurrent workers
	Workers int
	// QueueSize is the size of the buffered job queue
	QueueSize int
	// JobTimeout is the maximum time a single project may take
	JobTimeout time.Duration
}

// DefaultPoolConfig returns default configuration
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Workers:    4,
		QueueSize:  64,
		JobTimeout: 5 * time.Minute,
	}
}

// Validate validates the configuration
func (c *PoolConfig) Validate() error {
	if c.Workers <= 0 {
		return ErrInvalidConfig
	}
	if c.QueueSize <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// Pool
// ---------------------------------------------------------------------------

// Pool fans projects out to a fixed set of workers. Each project is handed
// to the Executor with a per-job timeout derived from the pool context.
type Pool struct {
	config   PoolConfig
	executor Executor
	logger   *zap.Logger

	jobs      chan project.Project
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewPool creates a new worker pool
func NewPool(config PoolConfig, executor Executor, logger *zap.Logger) (*Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Pool{
		config:   config,
		executor: executor,
		logger:   logger,
		jobs:     make(chan project.Project, config.QueueSize),
	}, nil
}

// Start starts the pool workers
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = true
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.logger.Info("Provisioning worker pool started",
		zap.Int("workers", p.config.Workers),
		zap.Duration("job_timeout", p.config.JobTimeout),
	)

	return nil
}

// Submit hands a project to the pool. It blocks until a queue slot is free
// or ctx is cancelled.
func (p *Pool) Submit(ctx context.Context, proj project.Project) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return ErrPoolNotRunning
	}
	p.mu.Unlock()

	select {
	case p.jobs <- proj:
		p.logger.Debug("Project queued for provisioning",
			zap.String("project_id", proj.ID),
		)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain closes the queue and waits for in-flight work to finish. The workers
// keep consuming queued projects; ctx bounds how long to wait.
func (p *Pool) Drain(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	p.mu.Unlock()

	close(p.jobs)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Provisioning worker pool drained")
		return nil
	case <-ctx.Done():
		p.logger.Warn("Provisioning worker pool drain timed out")
		if p.cancel != nil {
			p.cancel()
		}
		return ctx.Err()
	}
}

// Stop aborts the pool without draining the queue
func (p *Pool) Stop() {
	p.mu.Lock()
	wasRunning := p.isRunning
	p.isRunning = false
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	if wasRunning {
		close(p.jobs)
	}
	p.wg.Wait()
}

// worker consumes projects from the queue until it is closed
func (p *Pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()

	p.logger.Debug("Provisioning worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Provisioning worker stopping", zap.Int("worker_id", workerID))
			return
		case proj, ok := <-p.jobs:
			if !ok {
				p.logger.Debug("Provisioning job channel closed", zap.Int("worker_id", workerID))
				return
			}
			p.process(ctx, proj, workerID)
		}
	}
}

// process runs a single project through the executor with a timeout
func (p *Pool) process(ctx context.Context, proj project.Project, workerID int) {
	jobCtx, cancel := context.WithTimeout(ctx, p.config.JobTimeout)
	defer cancel()

	p.logger.Debug("Processing project",
		zap.Int("worker_id", workerID),
		zap.String("project_id", proj.ID),
	)

	p.executor.Execute(jobCtx, proj)
}

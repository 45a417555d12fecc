package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BoardRefresher regenerates the board page on a fixed interval
type BoardRefresher interface {
	// Start generates the board immediately and then on every tick
	Start(ctx context.Context)
	// Stop stops the periodic refresh and waits for a running generation to finish
	Stop()
}

// BoardRefresherImpl implements the BoardRefresher interface
type BoardRefresherImpl struct {
	generator BoardGenerator
	interval  time.Duration
	logger    *zap.Logger

	mu        sync.Mutex
	isRunning bool
	stopChan  chan struct{}
	done      chan struct{}
}

// NewBoardRefresher creates a new BoardRefresher
func NewBoardRefresher(generator BoardGenerator, interval time.Duration, logger *zap.Logger) BoardRefresher {
	return &BoardRefresherImpl{
		generator: generator,
		interval:  interval,
		logger:    logger,
	}
}

// Start starts the periodic refresh. It returns immediately.
func (r *BoardRefresherImpl) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		r.logger.Info("Board refresher is already running")
		return
	}

	r.isRunning = true
	r.stopChan = make(chan struct{})
	r.done = make(chan struct{})
	r.logger.Info("Starting board refresher", zap.Duration("interval", r.interval))

	go r.run(ctx, r.stopChan, r.done)
}

func (r *BoardRefresherImpl) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Run initial generation immediately
	r.refresh(ctx)

	for {
		select {
		case <-ticker.C:
			r.refresh(ctx)
		case <-stop:
			r.logger.Info("Stopping board refresher...")
			return
		case <-ctx.Done():
			r.logger.Info("Board refresher context done", zap.Error(ctx.Err()))
			return
		}
	}
}

// Stop stops the periodic refresh
func (r *BoardRefresherImpl) Stop() {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return
	}
	r.isRunning = false
	close(r.stopChan)
	done := r.done
	r.mu.Unlock()

	<-done
}

// refresh runs one generation. Failures are logged and the previous page is left in place.
func (r *BoardRefresherImpl) refresh(ctx context.Context) {
	result, err := r.generator.Generate(ctx)
	if err != nil {
		r.logger.Error("Failed to refresh board", zap.Error(err))
		return
	}

	r.logger.Info("Refreshed board",
		zap.String("path", result.OutputPath),
		zap.String("view", result.ViewName),
		zap.Int("issues", result.IssueCount))
}

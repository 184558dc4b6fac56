package agent

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 1000
)

// reportWorker runs report tasks off the detection path.
type reportWorker struct {
	logger   *logrus.Logger
	taskChan chan func(ctx context.Context)
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.RWMutex
	closed   bool
	pending  sync.WaitGroup
	running  sync.WaitGroup
}

func newReportWorker(logger *logrus.Logger, queueSize int) *reportWorker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &reportWorker{
		logger:   logger,
		taskChan: make(chan func(ctx context.Context), queueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (w *reportWorker) StartWorkers(n int) {
	if n <= 0 {
		n = defaultWorkers
	}
	for i := 0; i < n; i++ {
		w.running.Add(1)
		go func() {
			defer w.running.Done()
			for task := range w.taskChan {
				w.run(task)
			}
		}()
	}
}

func (w *reportWorker) run(task func(ctx context.Context)) {
	defer w.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			w.logger.WithField("panic", r).Error("report task panicked")
		}
	}()
	task(w.ctx)
}

func (w *reportWorker) enqueueTask(task func(ctx context.Context), event string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return false
	}
	w.pending.Add(1)
	select {
	case w.taskChan <- task:
		return true
	default:
		w.pending.Done()
		w.logger.WithField("event", event).Warn("taskChan is full, dropping report task")
		return false
	}
}

// Wait blocks until every queued task has run.
func (w *reportWorker) Wait() {
	w.pending.Wait()
}

func (w *reportWorker) Shutdown() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.taskChan)
	w.mu.Unlock()

	w.logger.Debug("shutting down report workers")
	w.running.Wait()
	w.cancel()
}

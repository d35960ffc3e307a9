package hook

import (
	"context"
	"log"
	"sync"
)

// DefaultQueueSize is the number of pending notifications held before
// new ones are dropped.
const DefaultQueueSize = 32

// Dispatcher delivers notifications to subscribed hooks on a background
// goroutine so the caller never waits on an external process.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	logger   *log.Logger

	queue  chan Request
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher starts a dispatcher. Call Close to stop it.
func NewDispatcher(m *Manager, e *Executor, queueSize int, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		manager:  m,
		executor: e,
		logger:   logger,
		queue:    make(chan Request, queueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Notify queues req for every hook subscribed to req.Event. It never
// blocks; when the queue is full the notification is dropped.
func (d *Dispatcher) Notify(req Request) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- req:
		return true
	default:
		d.logger.Printf("hook: queue full, dropping %s", req.Event)
		return false
	}
}

// Close stops accepting notifications, delivers what is queued and
// waits for the worker to exit. A hook still running is killed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()
}

// Abort stops the worker without draining the queue.
func (d *Dispatcher) Abort() {
	d.cancel()
	d.Close()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for req := range d.queue {
		if d.ctx.Err() != nil {
			continue
		}
		for _, h := range d.manager.ForEvent(req.Event) {
			resp, err := d.executor.Execute(d.ctx, h, req)
			switch {
			case err != nil:
				d.logger.Printf("hook: %s on %s: %v", h.Manifest.Name, req.Event, err)
			case !resp.Success:
				d.logger.Printf("hook: %s on %s reported: %s", h.Manifest.Name, req.Event, resp.Error)
			}
		}
	}
}

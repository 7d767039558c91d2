package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher forwards audit events to a sink from a dedicated goroutine so
// slow sinks never stall a sign-in exchange. A nil Dispatcher is valid and
// drops everything; NewDispatcher returns nil when auditing is disabled.
type Dispatcher struct {
	sink       Sink
	events     chan Event
	dropIfFull bool

	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	buffer := cfg.BufferSize
	if buffer < 1 {
		buffer = 1
	}

	d := &Dispatcher{
		sink:       sink,
		events:     make(chan Event, buffer),
		dropIfFull: cfg.DropIfFull,
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		// Ranges until Close closes the channel, which also drains
		// whatever was buffered at that point.
		for event := range d.events {
			d.sink.Emit(context.Background(), event)
		}
	}()

	return d
}

// Emit queues an event for delivery. With DropIfFull the call never blocks
// and a full buffer increments the drop counter; otherwise it waits for
// buffer space or context cancellation.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}

	// The read lock holds off Close so the channel cannot be closed
	// mid-send.
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		return
	}

	if d.dropIfFull {
		select {
		case d.events <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.events <- event:
	case <-ctx.Done():
	}
}

// Close stops intake, flushes buffered events, and waits for the delivery
// goroutine to exit. Safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.events)
	d.mu.Unlock()

	d.wg.Wait()
}

// Dropped reports how many events were discarded because the buffer was
// full or the dispatcher was closed.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

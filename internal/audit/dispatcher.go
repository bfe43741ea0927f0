package audit

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Redacted replaces the value of any sensitive metadata key.
const Redacted = "[redacted]"

// sensitiveKeys are metadata keys whose values never reach a sink. Matching
// ignores case, underscores and dashes.
var sensitiveKeys = map[string]struct{}{
	"password":         {},
	"passwordhash":     {},
	"token":            {},
	"accesstoken":      {},
	"refreshtoken":     {},
	"authorization":    {},
	"code":             {},
	"confirmationcode": {},
}

func sensitive(key string) bool {
	k := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(key))
	_, ok := sensitiveKeys[k]
	return ok
}

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// OnDrop, when set, is called with every event that never reached the
	// sink: buffer full under DropIfFull, or a panicking sink.
	OnDrop func(Event)
	// Now stamps events emitted without a timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Dispatcher relays account events to a sink on its own goroutine. Metadata
// is scrubbed of credentials before it is queued.
type Dispatcher struct {
	cfg     Config
	sink    Sink
	ch      chan Event
	mu      sync.RWMutex
	closed  bool
	stopped chan struct{}
	dropped atomic.Uint64
}

func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:     cfg,
		sink:    sink,
		ch:      make(chan Event, cfg.BufferSize),
		stopped: make(chan struct{}),
	}
	go d.run()
	return d
}

// run delivers until Close closes the queue, then returns once it is drained.
func (d *Dispatcher) run() {
	defer close(d.stopped)
	for event := range d.ch {
		d.deliver(event)
	}
}

func (d *Dispatcher) deliver(event Event) {
	defer func() {
		if recover() != nil {
			d.drop(event)
		}
	}()
	d.sink.Emit(context.Background(), event)
}

func (d *Dispatcher) drop(event Event) {
	d.dropped.Add(1)
	if d.cfg.OnDrop != nil {
		d.cfg.OnDrop(event)
	}
}

// prepare stamps the event and copies its metadata with sensitive values
// replaced, so callers and sinks never share the map.
func (d *Dispatcher) prepare(event Event) Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = d.cfg.Now().UTC()
	}
	if len(event.Metadata) > 0 {
		md := make(map[string]string, len(event.Metadata))
		for k, v := range event.Metadata {
			if sensitive(k) {
				v = Redacted
			}
			md[k] = v
		}
		event.Metadata = md
	}
	return event
}

// Emit queues event. With DropIfFull a full buffer drops it; otherwise Emit
// waits for room or for ctx to end.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	event = d.prepare(event)
	if d.cfg.DropIfFull {
		select {
		case d.ch <- event:
		default:
			d.drop(event)
		}
		return
	}
	select {
	case d.ch <- event:
	case <-ctx.Done():
	}
}

// Close stops intake and waits for queued events to reach the sink.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.ch)
	}
	d.mu.Unlock()
	<-d.stopped
}

// Dropped reports how many events never reached the sink.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

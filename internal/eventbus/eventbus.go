// Package eventbus implements the in-process topic publish/subscribe bus
// (C4): wildcard subscriptions, bounded non-blocking publish, and strict
// per-subscription FIFO delivery on worker goroutines.
package eventbus

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nexuscore/nexus/internal/apperr"
	"github.com/sirupsen/logrus"
)

// Event is an immutable, timestamped message published on the bus.
type Event struct {
	EventType string
	Source    string
	EventID   uuid.UUID
	Timestamp time.Time
	Payload   map[string]any
}

// Handler receives delivered events. A panicking handler is recovered,
// logged, and does not affect other subscribers or the bus itself.
type Handler func(Event)

// Config sizes the bus's ingress buffer and per-subscription delivery
// queues, mirroring the event_bus.{max_queue_size} config key.
type Config struct {
	MaxQueueSize int // default 1000
}

// subscription is an internal record; Subscription (exported) is its
// read-only view.
type subscription struct {
	subscriberID string
	pattern      string
	handler      Handler
	createdAt    time.Time
	excludeSelf  bool

	queue chan Event
	done  chan struct{}
}

// Subscription is the read-only, externally visible view of a registered
// subscription.
type Subscription struct {
	SubscriberID string
	Pattern      string
	CreatedAt    time.Time
}

// Bus is the event bus itself; ManagerAdapter wraps it in the
// registry.Manager capability interface.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]*subscription // key: subscriberID + "\x00" + pattern
	cfg  Config
	log  *logrus.Entry

	ingress chan Event
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool

	published int64
	dropped   int64
}

// New creates a Bus. Call Start before publishing.
func New(cfg Config, log *logrus.Logger) *Bus {
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 1000
	}
	if log == nil {
		log = logrus.New()
	}
	return &Bus{
		subs:    make(map[string]*subscription),
		cfg:     cfg,
		log:     log.WithField("component", "event_bus"),
		ingress: make(chan Event, cfg.MaxQueueSize),
		stopCh:  make(chan struct{}),
	}
}

// Start begins the dispatcher goroutine that fans ingress events out to
// matching subscriptions.
func (b *Bus) Start() {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	b.wg.Add(1)
	go b.dispatchLoop()
}

// Stop drains no further events, stops the dispatcher, and tears down every
// subscription's delivery worker.
func (b *Bus) Stop() {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	b.started = false
	b.mu.Unlock()

	close(b.stopCh)

	b.mu.Lock()
	for key, sub := range b.subs {
		close(sub.done)
		delete(b.subs, key)
	}
	b.mu.Unlock()

	b.wg.Wait()
}

func subKey(subscriberID, pattern string) string {
	return subscriberID + "\x00" + pattern
}

// Subscribe registers handler for events matching pattern. Re-subscribing
// the same (subscriberID, pattern) pair replaces the handler in place
// rather than creating a duplicate delivery path — the idiomatic proxy for
// "re-registering the same (pattern, callback) is idempotent", since Go
// cannot compare closures for equality.
func (b *Bus) Subscribe(subscriberID, pattern string, handler Handler) *Subscription {
	return b.subscribe(subscriberID, pattern, handler, false)
}

// SubscribeExcludingSelf is Subscribe with self-delivery opted out: events
// whose Source equals the subscriber id are not delivered to this
// subscription. The default (Subscribe) delivers a subscriber its own
// events.
func (b *Bus) SubscribeExcludingSelf(subscriberID, pattern string, handler Handler) *Subscription {
	return b.subscribe(subscriberID, pattern, handler, true)
}

func (b *Bus) subscribe(subscriberID, pattern string, handler Handler, excludeSelf bool) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := subKey(subscriberID, pattern)
	if existing, ok := b.subs[key]; ok {
		existing.handler = handler
		existing.excludeSelf = excludeSelf
		return &Subscription{SubscriberID: subscriberID, Pattern: pattern, CreatedAt: existing.createdAt}
	}

	sub := &subscription{
		subscriberID: subscriberID,
		pattern:      pattern,
		handler:      handler,
		createdAt:    time.Now().UTC(),
		excludeSelf:  excludeSelf,
		queue:        make(chan Event, b.cfg.MaxQueueSize),
		done:         make(chan struct{}),
	}
	b.subs[key] = sub

	b.wg.Add(1)
	go b.deliverLoop(sub)

	return &Subscription{SubscriberID: subscriberID, Pattern: pattern, CreatedAt: sub.createdAt}
}

// Unsubscribe removes every subscription owned by subscriberID.
func (b *Bus) Unsubscribe(subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, sub := range b.subs {
		if sub.subscriberID == subscriberID {
			close(sub.done)
			delete(b.subs, key)
		}
	}
}

// Publish stamps and enqueues an event. Non-blocking: if the ingress buffer
// is full, it fails fast with a KindApplication backpressure error instead
// of blocking the caller.
func (b *Bus) Publish(eventType, source string, payload map[string]any) (uuid.UUID, error) {
	ev := Event{
		EventType: eventType,
		Source:    source,
		EventID:   uuid.New(),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	select {
	case b.ingress <- ev:
		atomic.AddInt64(&b.published, 1)
		return ev.EventID, nil
	default:
		atomic.AddInt64(&b.dropped, 1)
		return uuid.Nil, apperr.Newf(apperr.KindApplication, "event bus ingress buffer full, publish of %q dropped", eventType)
	}
}

func (b *Bus) dispatchLoop() {
	defer b.wg.Done()
	for {
		select {
		case ev := <-b.ingress:
			b.fanOut(ev)
		case <-b.stopCh:
			return
		}
	}
}

// fanOut enumerates a snapshot of current subscriptions and pushes the event
// onto each match's own FIFO delivery queue. It never invokes a handler
// itself, preserving per-subscription order even though multiple events may
// be in flight to different subscriptions concurrently.
func (b *Bus) fanOut(ev Event) {
	b.mu.RLock()
	matches := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.excludeSelf && ev.Source == sub.subscriberID {
			continue
		}
		if Matches(sub.pattern, ev.EventType) {
			matches = append(matches, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range matches {
		select {
		case sub.queue <- ev:
		default:
			atomic.AddInt64(&b.dropped, 1)
			b.log.WithFields(logrus.Fields{
				"subscriber": sub.subscriberID,
				"pattern":    sub.pattern,
				"event_type": ev.EventType,
			}).Warn("subscription delivery queue full, event dropped")
		}
	}
}

// deliverLoop drains one subscription's queue strictly in order, on its own
// goroutine — never the publisher's — recovering from a panicking handler so
// one bad subscriber cannot affect any other.
func (b *Bus) deliverLoop(sub *subscription) {
	defer b.wg.Done()
	for {
		select {
		case ev := <-sub.queue:
			b.invoke(sub, ev)
		case <-sub.done:
			return
		}
	}
}

func (b *Bus) invoke(sub *subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{
				"subscriber": sub.subscriberID,
				"pattern":    sub.pattern,
				"event_type": ev.EventType,
			}).Errorf("event handler panicked: %v", r)
		}
	}()
	sub.handler(ev)
}

// Matches implements the subscription wildcard grammar: "*" alone matches
// everything; otherwise patterns and event types are compared
// segment-by-segment on "." boundaries, with "*" matching exactly one whole
// segment.
func Matches(pattern, eventType string) bool {
	if pattern == "*" || pattern == eventType {
		return true
	}

	patternSegs := strings.Split(pattern, ".")
	typeSegs := strings.Split(eventType, ".")
	if len(patternSegs) != len(typeSegs) {
		return false
	}
	for i, ps := range patternSegs {
		if ps == "*" {
			continue
		}
		if ps != typeSegs[i] {
			return false
		}
	}
	return true
}

// Stats reports counters useful for status/diagnostics endpoints.
func (b *Bus) Stats() (published, dropped int64) {
	return atomic.LoadInt64(&b.published), atomic.LoadInt64(&b.dropped)
}

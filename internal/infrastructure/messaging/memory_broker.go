package messaging

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// MemoryHistoryLimit bounds the per-topic history kept for Messages
const MemoryHistoryLimit = 256

// MemoryBroker is a process-local broker for development and tests. A nack
// redelivers immediately; after MaxDeliveryAttempts the message is moved to
// the dead-letter topic.
type MemoryBroker struct {
	mu          sync.Mutex
	routes      []Route
	bySub       map[string]Route
	queues      map[string]*memoryQueue
	topics      map[string][]Delivery
	seq         int64
	maxAttempts int
	logger      *zap.Logger
}

type memoryQueue struct {
	items  []Delivery
	notify chan struct{}
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{notify: make(chan struct{}, 1)}
}

func (q *memoryQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// NewMemoryBroker creates a broker with one queue per route and dead-letter route
func NewMemoryBroker(routes []Route, maxAttempts int, logger *zap.Logger) *MemoryBroker {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	b := &MemoryBroker{
		routes:      append([]Route(nil), routes...),
		bySub:       make(map[string]Route),
		queues:      make(map[string]*memoryQueue),
		topics:      make(map[string][]Delivery),
		maxAttempts: maxAttempts,
		logger:      logger.Named("memory_broker"),
	}
	for _, r := range routes {
		for _, rt := range []Route{r, r.DeadLetter()} {
			b.bySub[rt.Subscription] = rt
			b.queues[rt.Subscription] = newMemoryQueue()
		}
	}
	return b
}

// Publish records the message on topic and enqueues it for every
// subscription bound to topic
func (b *MemoryBroker) Publish(ctx context.Context, topic string, body []byte, attrs map[string]string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	d := Delivery{
		ID:         strconv.FormatInt(b.seq, 10),
		Topic:      topic,
		Body:       append([]byte(nil), body...),
		Attributes: copyAttrs(attrs),
	}
	b.record(topic, d)

	for sub, r := range b.bySub {
		if r.Topic != topic {
			continue
		}
		q := b.queues[sub]
		qd := d
		qd.Subscription = sub
		q.items = append(q.items, qd)
		q.signal()
	}
	return d.ID, nil
}

// Subscribe delivers queued messages in order until ctx is done
func (b *MemoryBroker) Subscribe(ctx context.Context, subscription string, fn DeliveryHandler) error {
	b.mu.Lock()
	q, ok := b.queues[subscription]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSubscription, subscription)
	}

	for {
		d, ok := b.pop(q)
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-q.notify:
				continue
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		b.deliver(ctx, q, d, fn)
	}
}

func (b *MemoryBroker) pop(q *memoryQueue) (Delivery, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(q.items) == 0 {
		return Delivery{}, false
	}
	d := q.items[0]
	q.items = q.items[1:]
	return d, true
}

func (b *MemoryBroker) deliver(ctx context.Context, q *memoryQueue, d Delivery, fn DeliveryHandler) {
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		d.Attempt = attempt
		err := fn(ctx, d)
		if err == nil {
			return
		}
		b.logger.Debug("delivery nacked",
			zap.String("id", d.ID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			b.requeue(q, d)
			return
		}
	}

	attrs := copyAttrs(d.Attributes)
	attrs[AttrOriginalID] = d.ID
	attrs[AttrDeadLetterReason] = fmt.Sprintf("exceeded %d delivery attempts", b.maxAttempts)
	dlq := DeadLetterTopic(d.Topic)
	if _, err := b.Publish(context.Background(), dlq, d.Body, attrs); err != nil {
		b.logger.Error("failed to dead-letter message", zap.String("id", d.ID), zap.Error(err))
		return
	}
	b.logger.Warn("message moved to dead-letter topic",
		zap.String("id", d.ID),
		zap.String("topic", d.Topic),
		zap.String("dead_letter_topic", dlq),
		zap.Int("attempts", b.maxAttempts),
	)
}

func (b *MemoryBroker) requeue(q *memoryQueue, d Delivery) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q.items = append([]Delivery{d}, q.items...)
	q.signal()
}

func (b *MemoryBroker) record(topic string, d Delivery) {
	h := append(b.topics[topic], d)
	if n := len(h) - MemoryHistoryLimit; n > 0 {
		h = append(h[:0:0], h[n:]...)
	}
	b.topics[topic] = h
}

// Messages returns the most recent MemoryHistoryLimit messages published to topic
func (b *MemoryBroker) Messages(topic string) []Delivery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Delivery(nil), b.topics[topic]...)
}

// EnsureTopology is a no-op; queues exist from construction
func (b *MemoryBroker) EnsureTopology(context.Context) error {
	return nil
}

// TopicExists reports whether topic belongs to a configured route
func (b *MemoryBroker) TopicExists(_ context.Context, topic string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.bySub {
		if r.Topic == topic {
			return true, nil
		}
	}
	return false, nil
}

// Routes returns the configured routes
func (b *MemoryBroker) Routes() []Route {
	return append([]Route(nil), b.routes...)
}

// Close is a no-op
func (b *MemoryBroker) Close() error {
	return nil
}

func copyAttrs(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs)+2)
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

var _ Broker = (*MemoryBroker)(nil)

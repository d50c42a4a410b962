package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	fieldBody       = "body"
	attrFieldPrefix = "attr:"

	// AttrDeadLetterReason is set on entries copied to a dead-letter topic
	AttrDeadLetterReason = "dead_letter_reason"
	// AttrOriginalID is the entry ID the dead-lettered copy came from
	AttrOriginalID = "original_id"
)

// RedisBrokerConfig tunes delivery on Redis Streams
type RedisBrokerConfig struct {
	Routes              []Route
	ConsumerName        string
	MaxDeliveryAttempts int
	AckDeadline         time.Duration
	BlockTimeout        time.Duration
	BatchSize           int64
}

func (c *RedisBrokerConfig) applyDefaults() {
	if c.ConsumerName == "" {
		c.ConsumerName = "consumer"
	}
	if c.MaxDeliveryAttempts <= 0 {
		c.MaxDeliveryAttempts = 5
	}
	if c.AckDeadline <= 0 {
		c.AckDeadline = 60 * time.Second
	}
	if c.BlockTimeout <= 0 {
		c.BlockTimeout = 2 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
}

// RedisBroker maps topics to streams and subscriptions to consumer groups.
// Unacked entries stay in the group's pending list and are reclaimed once
// idle for longer than the ack deadline.
type RedisBroker struct {
	client redis.UniversalClient
	cfg    RedisBrokerConfig
	routes map[string]Route
	logger *zap.Logger
}

// NewRedisBroker creates a broker on client. The caller keeps ownership of client.
func NewRedisBroker(client redis.UniversalClient, cfg RedisBrokerConfig, logger *zap.Logger) *RedisBroker {
	cfg.applyDefaults()
	routes := make(map[string]Route, len(cfg.Routes)*2)
	for _, r := range cfg.Routes {
		routes[r.Subscription] = r
		dlq := r.DeadLetter()
		routes[dlq.Subscription] = dlq
	}
	return &RedisBroker{
		client: client,
		cfg:    cfg,
		routes: routes,
		logger: logger.Named("redis_broker"),
	}
}

// Publish adds an entry with the body and one field per attribute
func (b *RedisBroker) Publish(ctx context.Context, topic string, body []byte, attrs map[string]string) (string, error) {
	values := make([]any, 0, 2+len(attrs)*2)
	values = append(values, fieldBody, body)
	for k, v := range attrs {
		values = append(values, attrFieldPrefix+k, v)
	}

	id, err := b.client.XAdd(ctx, &redis.XAddArgs{Stream: topic, Values: values}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", topic, err)
	}
	return id, nil
}

// Subscribe reads new entries and reclaims stale pending ones until ctx is done
func (b *RedisBroker) Subscribe(ctx context.Context, subscription string, fn DeliveryHandler) error {
	route, ok := b.routes[subscription]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSubscription, subscription)
	}

	log := b.logger.With(
		zap.String("topic", route.Topic),
		zap.String("subscription", route.Subscription),
		zap.String("consumer", b.cfg.ConsumerName),
	)
	log.Info("subscribed")

	cursor := "0-0"
	for ctx.Err() == nil {
		next, err := b.reclaim(ctx, route, cursor, fn)
		if err != nil && ctx.Err() == nil {
			log.Warn("failed to reclaim pending entries", zap.Error(err))
		}
		cursor = next

		if err := b.readNew(ctx, route, fn); err != nil && ctx.Err() == nil {
			if isMissingGroup(err) {
				return fmt.Errorf("subscription %s: %w", subscription, err)
			}
			log.Warn("failed to read entries", zap.Error(err))
			sleep(ctx, b.cfg.BlockTimeout)
		}
	}

	log.Info("subscription stopped")
	return nil
}

func (b *RedisBroker) readNew(ctx context.Context, route Route, fn DeliveryHandler) error {
	streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    route.Subscription,
		Consumer: b.cfg.ConsumerName,
		Streams:  []string{route.Topic, ">"},
		Count:    b.cfg.BatchSize,
		Block:    b.cfg.BlockTimeout,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, s := range streams {
		for _, msg := range s.Messages {
			b.dispatch(ctx, route, msg, 1, fn)
		}
	}
	return nil
}

func (b *RedisBroker) reclaim(ctx context.Context, route Route, cursor string, fn DeliveryHandler) (string, error) {
	msgs, next, err := b.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   route.Topic,
		Group:    route.Subscription,
		Consumer: b.cfg.ConsumerName,
		MinIdle:  b.cfg.AckDeadline,
		Start:    cursor,
		Count:    b.cfg.BatchSize,
	}).Result()
	if err != nil {
		return "0-0", err
	}

	for _, msg := range msgs {
		attempt, err := b.deliveryCount(ctx, route, msg.ID)
		if err != nil {
			return next, err
		}
		if attempt > b.cfg.MaxDeliveryAttempts {
			if err := b.deadLetter(ctx, route, msg, attempt); err != nil {
				return next, err
			}
			continue
		}
		b.dispatch(ctx, route, msg, attempt, fn)
	}
	return next, nil
}

func (b *RedisBroker) deliveryCount(ctx context.Context, route Route, id string) (int, error) {
	pending, err := b.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: route.Topic,
		Group:  route.Subscription,
		Start:  id,
		End:    id,
		Count:  1,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("xpending %s: %w", id, err)
	}
	if len(pending) == 0 {
		return 1, nil
	}
	return int(pending[0].RetryCount), nil
}

func (b *RedisBroker) dispatch(ctx context.Context, route Route, msg redis.XMessage, attempt int, fn DeliveryHandler) {
	d := toDelivery(route, msg, attempt)
	if err := fn(ctx, d); err != nil {
		b.logger.Debug("delivery nacked",
			zap.String("id", msg.ID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return
	}
	if err := b.client.XAck(ctx, route.Topic, route.Subscription, msg.ID).Err(); err != nil {
		b.logger.Warn("failed to ack entry", zap.String("id", msg.ID), zap.Error(err))
	}
}

func (b *RedisBroker) deadLetter(ctx context.Context, route Route, msg redis.XMessage, attempts int) error {
	values := make(map[string]any, len(msg.Values)+2)
	for k, v := range msg.Values {
		values[k] = v
	}
	values[attrFieldPrefix+AttrOriginalID] = msg.ID
	values[attrFieldPrefix+AttrDeadLetterReason] = fmt.Sprintf("exceeded %d delivery attempts", b.cfg.MaxDeliveryAttempts)

	dlq := DeadLetterTopic(route.Topic)
	pipe := b.client.TxPipeline()
	pipe.XAdd(ctx, &redis.XAddArgs{Stream: dlq, Values: values})
	pipe.XAck(ctx, route.Topic, route.Subscription, msg.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("dead-letter %s: %w", msg.ID, err)
	}

	b.logger.Warn("message moved to dead-letter topic",
		zap.String("id", msg.ID),
		zap.String("topic", route.Topic),
		zap.String("dead_letter_topic", dlq),
		zap.Int("attempts", attempts),
	)
	return nil
}

// EnsureTopology creates each dead-letter stream and group, then the main
// stream and group. Existing groups are left untouched.
func (b *RedisBroker) EnsureTopology(ctx context.Context) error {
	for _, r := range b.cfg.Routes {
		for _, rt := range []Route{r.DeadLetter(), r} {
			err := b.client.XGroupCreateMkStream(ctx, rt.Topic, rt.Subscription, "0").Err()
			switch {
			case err == nil:
				b.logger.Info("created subscription",
					zap.String("topic", rt.Topic),
					zap.String("subscription", rt.Subscription),
				)
			case strings.HasPrefix(err.Error(), "BUSYGROUP"):
				b.logger.Warn("subscription already exists",
					zap.String("topic", rt.Topic),
					zap.String("subscription", rt.Subscription),
				)
			default:
				return fmt.Errorf("create subscription %s on %s: %w", rt.Subscription, rt.Topic, err)
			}
		}
	}
	return nil
}

// TopicExists reports whether the stream key is present
func (b *RedisBroker) TopicExists(ctx context.Context, topic string) (bool, error) {
	n, err := b.client.Exists(ctx, topic).Result()
	if err != nil {
		return false, fmt.Errorf("check topic %s: %w", topic, err)
	}
	return n > 0, nil
}

// Routes returns the configured routes
func (b *RedisBroker) Routes() []Route {
	return append([]Route(nil), b.cfg.Routes...)
}

// Close is a no-op; the client belongs to the caller
func (b *RedisBroker) Close() error {
	return nil
}

func toDelivery(route Route, msg redis.XMessage, attempt int) Delivery {
	d := Delivery{
		ID:           msg.ID,
		Topic:        route.Topic,
		Subscription: route.Subscription,
		Attributes:   make(map[string]string),
		Attempt:      attempt,
	}
	for k, v := range msg.Values {
		s, _ := v.(string)
		switch {
		case k == fieldBody:
			d.Body = []byte(s)
		case strings.HasPrefix(k, attrFieldPrefix):
			d.Attributes[strings.TrimPrefix(k, attrFieldPrefix)] = s
		}
	}
	return d
}

func isMissingGroup(err error) bool {
	return strings.HasPrefix(err.Error(), "NOGROUP")
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

var _ Broker = (*RedisBroker)(nil)

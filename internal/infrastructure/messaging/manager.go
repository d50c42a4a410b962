package messaging

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ConsumerManager runs a set of consumers side by side
type ConsumerManager struct {
	mu        sync.Mutex
	consumers []*Consumer
	logger    *zap.Logger
}

// NewConsumerManager creates an empty manager
func NewConsumerManager(logger *zap.Logger) *ConsumerManager {
	return &ConsumerManager{logger: logger.Named("consumer_manager")}
}

// Register adds consumers to be started by StartAll
func (m *ConsumerManager) Register(consumers ...*Consumer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumers = append(m.consumers, consumers...)
}

// Len returns the number of registered consumers
func (m *ConsumerManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.consumers)
}

// StartAll runs every consumer and returns only once ctx is done, even when
// every consumer has already failed. A consumer that fails is logged and the
// rest keep running. The returned error lists the consumers that stopped
// with an error.
func (m *ConsumerManager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	consumers := append([]*Consumer(nil), m.consumers...)
	m.mu.Unlock()

	m.logger.Info(fmt.Sprintf("Starting %d consumers", len(consumers)))

	var (
		g      errgroup.Group
		failMu sync.Mutex
		failed []string
	)
	for _, c := range consumers {
		g.Go(func() error {
			if err := c.Start(ctx); err != nil {
				m.logger.Error("consumer stopped with error",
					zap.String("consumer", c.Name()),
					zap.Error(err),
				)
				failMu.Lock()
				failed = append(failed, c.Name())
				failMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	<-ctx.Done()

	m.logger.Info("all consumers stopped")
	if len(failed) > 0 {
		return fmt.Errorf("consumers failed: %v", failed)
	}
	return nil
}

// Package health runs the readiness checks behind /health/ready.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Check statuses other than "error: <cause>"
const (
	StatusOK       = "ok"
	StatusDisabled = "disabled"
)

// DefaultTimeout bounds a whole readiness probe
const DefaultTimeout = 5 * time.Second

// Check is one named dependency probe. A check without Run reports
// StatusDisabled and does not affect readiness.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// DisabledCheck keeps name in the report for a dependency this process runs without
func DisabledCheck(name string) Check {
	return Check{Name: name}
}

// Pinger is satisfied by persistence.Database
type Pinger interface {
	Ping(ctx context.Context) error
}

// TopicChecker is satisfied by every messaging.Broker
type TopicChecker interface {
	TopicExists(ctx context.Context, topic string) (bool, error)
}

// DatabaseCheck probes the relational store
func DatabaseCheck(name string, db Pinger) Check {
	return Check{Name: name, Run: db.Ping}
}

// RedisCheck sends PING
func RedisCheck(client redis.UniversalClient) Check {
	return Check{Name: "redis", Run: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// BrokerCheck verifies the command topic is provisioned
func BrokerCheck(broker TopicChecker, topic string) Check {
	return Check{Name: "pubsub", Run: func(ctx context.Context) error {
		ok, err := broker.TopicExists(ctx, topic)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("topic %s not found", topic)
		}
		return nil
	}}
}

// Report maps each check name to "ok", "disabled" or "error: <cause>"
type Report map[string]string

// Ready reports whether every enabled check passed
func (r Report) Ready() bool {
	for _, status := range r {
		if status != StatusOK && status != StatusDisabled {
			return false
		}
	}
	return true
}

// Checker runs every check concurrently
type Checker struct {
	checks  []Check
	timeout time.Duration
	logger  *zap.Logger
}

// NewChecker builds a Checker; timeout <= 0 uses DefaultTimeout
func NewChecker(timeout time.Duration, logger *zap.Logger, checks ...Check) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{checks: checks, timeout: timeout, logger: logger}
}

// Check runs all probes and waits for each of them. A failing probe never
// cancels the others.
func (c *Checker) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	statuses := make([]string, len(c.checks))
	var g errgroup.Group
	for i, check := range c.checks {
		if check.Run == nil {
			statuses[i] = StatusDisabled
			continue
		}
		g.Go(func() error {
			if err := check.Run(ctx); err != nil {
				c.logger.Warn("readiness check failed", zap.String("check", check.Name), zap.Error(err))
				statuses[i] = "error: " + err.Error()
				return nil
			}
			statuses[i] = StatusOK
			return nil
		})
	}
	_ = g.Wait()

	report := make(Report, len(c.checks))
	for i, check := range c.checks {
		report[check.Name] = statuses[i]
	}
	return report
}

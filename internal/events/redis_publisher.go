package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/backlot-hq/backlot-backend/logger"
	"github.com/backlot-hq/backlot-backend/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// Config holds configuration for RedisPublisher
type Config struct {
	PublishTimeout time.Duration
}

// DefaultConfig returns default configuration values
func DefaultConfig() Config {
	return Config{
		PublishTimeout: 5 * time.Second,
	}
}

// metrics holds Prometheus metrics for the publisher
type metrics struct {
	publishLatency prometheus.Histogram
	errorCount     *prometheus.CounterVec
	eventCount     *prometheus.CounterVec
}

var (
	metricsInstance *metrics
	metricsOnce     sync.Once
)

func newMetrics() *metrics {
	metricsOnce.Do(func() {
		metricsInstance = &metrics{
			publishLatency: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "entry_event_publish_duration_seconds",
				Help:    "Time taken to publish entry events",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			}),
			errorCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "entry_event_errors_total",
				Help: "Total number of event-related errors",
			}, []string{"operation", "type"}),
			eventCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "entry_events_total",
				Help: "Total number of events by operation and type",
			}, []string{"operation", "type"}),
		}
	})
	return metricsInstance
}

// RedisPublisher delivers entry events over Redis pub/sub, one channel per
// project, so every dashboard subscribed to the project converges after a
// mutation. Implements types.EventPublisher.
type RedisPublisher struct {
	client  redis.UniversalClient
	config  Config
	metrics *metrics
}

func NewRedisPublisher(client redis.UniversalClient, config Config) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		config:  config,
		metrics: newMetrics(),
	}
}

func channelForProject(projectID string) string {
	return fmt.Sprintf("project:%s:entries", projectID)
}

// Publish sends one event to the project channel within the configured
// timeout.
func (p *RedisPublisher) Publish(ctx context.Context, projectID string, event types.Event) error {
	if err := event.Validate(); err != nil {
		p.metrics.errorCount.WithLabelValues("publish", "validation").Inc()
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.metrics.errorCount.WithLabelValues("publish", "marshal").Inc()
		return fmt.Errorf("marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.config.PublishTimeout)
	defer cancel()

	start := time.Now()
	if err := p.client.Publish(publishCtx, channelForProject(projectID), payload).Err(); err != nil {
		p.metrics.errorCount.WithLabelValues("publish", "redis").Inc()
		return fmt.Errorf("publish to redis: %w", err)
	}
	p.metrics.publishLatency.Observe(time.Since(start).Seconds())
	p.metrics.eventCount.WithLabelValues("publish", string(event.Type)).Inc()

	logger.GetLogger().Debugw("Published entry event",
		"type", event.Type,
		"project_id", projectID,
		"event_id", event.ID,
	)
	return nil
}

package cache

import (
	"context"
	"time"
)

type flagStore interface {
	Get(ctx context.Context, key string, def bool) (bool, error)
	Set(ctx context.Context, key string, value bool) error
}

type metricsCollector interface {
	ObserveLatency(operation string, duration time.Duration)
	IncrementCounter(metric string, labels ...string)
}

type MetricsDecorator struct {
	next      flagStore
	collector metricsCollector
}

func NewMetricsDecorator(next flagStore, collector metricsCollector) *MetricsDecorator {
	return &MetricsDecorator{next: next, collector: collector}
}

func (m *MetricsDecorator) Get(ctx context.Context, key string, def bool) (bool, error) {
	start := time.Now()
	v, err := m.next.Get(ctx, key, def)
	m.collector.ObserveLatency("flag_get", time.Since(start))
	if err != nil {
		m.collector.IncrementCounter("flag_get_errors", key)
	} else {
		m.collector.IncrementCounter("flag_get_success", key)
	}
	return v, err
}

func (m *MetricsDecorator) Set(ctx context.Context, key string, value bool) error {
	start := time.Now()
	err := m.next.Set(ctx, key, value)
	m.collector.ObserveLatency("flag_set", time.Since(start))
	if err != nil {
		m.collector.IncrementCounter("flag_set_errors", key)
	} else {
		m.collector.IncrementCounter("flag_set_success", key)
	}
	return err
}

package metrics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"

	"options-tracker/internal/alert"
	"options-tracker/internal/types"
)

const (
	namespace = "options_tracker"
	subsystem = "monitor"
)

const (
	ResultSent   = "sent"
	ResultFailed = "failed"
)

// Store persists counter snapshots between restarts
type Store interface {
	SaveMetric(ctx context.Context, name string, value float64) error
	GetMetric(ctx context.Context, name string) (float64, error)
}

// Collector owns the tracker counters. It observes the monitor, the price adapter and the notifiers.
type Collector struct {
	Cycles        prometheus.Counter
	CycleFailures prometheus.Counter
	PriceLookups  *prometheus.CounterVec
	Alerts        *prometheus.CounterVec
	Notifications *prometheus.CounterVec

	mu sync.Mutex
}

// known label values, used to restore labelled series from a snapshot
var (
	sources    = []string{"alphavantage", "synthetic"}
	severities = []string{
		types.SeverityNotice.String(),
		types.SeverityWarning.String(),
		types.SeverityHigh.String(),
		types.SeverityCritical.String(),
	}
	channels = []string{"webpush", "telegram"}
	results  = []string{ResultSent, ResultFailed}
)

func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cycles_total",
			Help:      "The total number of monitoring cycles run",
		}),
		CycleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cycle_failures_total",
			Help:      "The total number of monitoring cycles that failed",
		}),
		PriceLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "price_lookups_total",
				Help:      "Price lookups by the source that served them",
			},
			[]string{"source"},
		),
		Alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "alerts_total",
				Help:      "Alerts raised by severity",
			},
			[]string{"severity"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "notifications_total",
				Help:      "Notification attempts by channel and result",
			},
			[]string{"channel", "result"},
		),
	}

	reg.MustRegister(c.Cycles, c.CycleFailures, c.PriceLookups, c.Alerts, c.Notifications)
	return c
}

func (c *Collector) CycleCompleted(alert.CycleReport) {
	c.Cycles.Inc()
}

func (c *Collector) CycleFailed() {
	c.Cycles.Inc()
	c.CycleFailures.Inc()
}

func (c *Collector) AlertRaised(a types.Alert) {
	c.Alerts.WithLabelValues(a.Severity.String()).Inc()
}

func (c *Collector) PriceLookup(source string) {
	c.PriceLookups.WithLabelValues(source).Inc()
}

func (c *Collector) Notification(channel, result string) {
	c.Notifications.WithLabelValues(channel, result).Inc()
}

// Save writes every counter series into the store
func (c *Collector) Save(ctx context.Context, store Store) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := map[string]float64{
		"cycles_total":         GetMetricValue(c.Cycles),
		"cycle_failures_total": GetMetricValue(c.CycleFailures),
	}
	for _, vec := range []struct {
		name string
		vec  *prometheus.CounterVec
	}{
		{"price_lookups_total", c.PriceLookups},
		{"alerts_total", c.Alerts},
		{"notifications_total", c.Notifications},
	} {
		for key, value := range labelledValues(vec.name, vec.vec) {
			snapshot[key] = value
		}
	}

	for name, value := range snapshot {
		if err := store.SaveMetric(ctx, name, value); err != nil {
			return err
		}
	}

	log.WithField("series", len(snapshot)).Info("Metrics saved to database.")
	return nil
}

// Load adds the stored snapshot on top of the current counter values
func (c *Collector) Load(ctx context.Context, store Store) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	restore := func(name string, counter prometheus.Counter) error {
		v, err := store.GetMetric(ctx, name)
		if err != nil {
			return err
		}
		if v > 0 {
			counter.Add(v)
		}
		return nil
	}

	if err := restore("cycles_total", c.Cycles); err != nil {
		return err
	}
	if err := restore("cycle_failures_total", c.CycleFailures); err != nil {
		return err
	}
	for _, source := range sources {
		key := seriesKey("price_lookups_total", map[string]string{"source": source})
		if err := restore(key, c.PriceLookups.WithLabelValues(source)); err != nil {
			return err
		}
	}
	for _, severity := range severities {
		key := seriesKey("alerts_total", map[string]string{"severity": severity})
		if err := restore(key, c.Alerts.WithLabelValues(severity)); err != nil {
			return err
		}
	}
	for _, channel := range channels {
		for _, result := range results {
			key := seriesKey("notifications_total", map[string]string{"channel": channel, "result": result})
			if err := restore(key, c.Notifications.WithLabelValues(channel, result)); err != nil {
				return err
			}
		}
	}

	log.Info("Metrics loaded from database.")
	return nil
}

// GetMetricValue reads the current value of a single-series counter or gauge
func GetMetricValue(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	m, ok := <-metricChan
	if !ok {
		return 0
	}

	metricProto := &dto.Metric{}
	if err := m.Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		return metricProto.Gauge.GetValue()
	}
	return 0
}

func labelledValues(name string, vec *prometheus.CounterVec) map[string]float64 {
	metricChan := make(chan prometheus.Metric)
	go func() {
		vec.Collect(metricChan)
		close(metricChan)
	}()

	values := make(map[string]float64)
	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Errorf("Failed to read %s metric: %v", name, err)
			continue
		}
		labels := make(map[string]string, len(metricProto.Label))
		for _, label := range metricProto.Label {
			labels[label.GetName()] = label.GetValue()
		}
		values[seriesKey(name, labels)] = metricProto.Counter.GetValue()
	}
	return values
}

// seriesKey renders name{k=v,...} with labels sorted by name
func seriesKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, labels[k]))
	}
	return name + "{" + strings.Join(pairs, ",") + "}"
}

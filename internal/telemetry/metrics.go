package telemetry

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Monitor — клиент метрик, общий для всех Worker в процессе.
//
// Реализации обязаны быть потокобезопасными: одновременно выполняющиеся
// jobs вызывают Monitor параллельно.
type Monitor interface {
	// Increment увеличивает счётчик события на 1.
	Increment(event string, tags map[string]string)

	// Timer запускает таймер события. При enabled=false ничего не измеряет.
	Timer(event string, enabled bool, tags map[string]string) TimerHandle
}

// TimerHandle — запущенный таймер.
type TimerHandle interface {
	Stop()
}

// metricLabels — фиксированный набор labels.
// Prometheus не допускает разный набор labels у одной метрики,
// поэтому отсутствующие теги (token1/token2 у плоских очередей) пишутся пустыми.
var metricLabels = []string{"queue", "token0", "token1", "token2", "result"}

// PrometheusMonitor — Monitor поверх Prometheus.
//
// Событие "ponos.finish" становится counter ponos_finish_total,
// таймер "ponos.timer" — histogram ponos_timer_seconds.
type PrometheusMonitor struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusMonitor создаёт Monitor, регистрирующий метрики в reg.
func NewPrometheusMonitor(reg prometheus.Registerer) *PrometheusMonitor {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusMonitor{
		registerer: reg,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

var (
	defaultMonitorOnce sync.Once
	defaultMonitor     *PrometheusMonitor
)

// DefaultMonitor возвращает Monitor процесса, пишущий в prometheus.DefaultRegisterer.
// Его метрики отдаёт promhttp.Handler() на /metrics.
func DefaultMonitor() *PrometheusMonitor {
	defaultMonitorOnce.Do(func() {
		defaultMonitor = NewPrometheusMonitor(prometheus.DefaultRegisterer)
	})
	return defaultMonitor
}

// Increment реализует Monitor.
func (m *PrometheusMonitor) Increment(event string, tags map[string]string) {
	m.Counter(event).With(labelsFromTags(tags)).Inc()
}

// Timer реализует Monitor.
func (m *PrometheusMonitor) Timer(event string, enabled bool, tags map[string]string) TimerHandle {
	if !enabled {
		return noopTimer{}
	}
	obs := m.Histogram(event).With(labelsFromTags(tags))
	return &promTimer{timer: prometheus.NewTimer(obs)}
}

// Counter возвращает (и при необходимости регистрирует) counter события.
func (m *PrometheusMonitor) Counter(event string) *prometheus.CounterVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.counters[event]; ok {
		return c
	}

	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricName(event) + "_total",
		Help: "Count of " + event + " events.",
	}, metricLabels)

	if err := m.registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				c = existing
			}
		}
	}

	m.counters[event] = c
	return c
}

// Histogram возвращает (и при необходимости регистрирует) histogram таймера.
func (m *PrometheusMonitor) Histogram(event string) *prometheus.HistogramVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.histograms[event]; ok {
		return h
	}

	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metricName(event) + "_seconds",
		Help:    "Duration of " + event + " in seconds.",
		Buckets: prometheus.DefBuckets,
	}, metricLabels)

	if err := m.registerer.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				h = existing
			}
		}
	}

	m.histograms[event] = h
	return h
}

// metricName приводит имя события к имени метрики Prometheus.
func metricName(event string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, event)
}

func labelsFromTags(tags map[string]string) prometheus.Labels {
	labels := make(prometheus.Labels, len(metricLabels))
	for _, name := range metricLabels {
		labels[name] = tags[name]
	}
	return labels
}

type promTimer struct {
	once  sync.Once
	timer *prometheus.Timer
}

func (t *promTimer) Stop() {
	t.once.Do(func() {
		t.timer.ObserveDuration()
	})
}

type noopTimer struct{}

func (noopTimer) Stop() {}

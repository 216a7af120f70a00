package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Источники ответа поиска товаров.
const (
	SearchSourceCache = "cache"
	SearchSourceExact = "exact"
	SearchSourceFuzzy = "fuzzy"
	SearchSourceNone  = "none"
)

// QuotationMetrics содержит метрики смет, поиска и побочных эффектов.
// Все методы безопасны для nil-получателя.
type QuotationMetrics struct {
	quotationsCreated   prometheus.Counter
	quotationsFinalized prometheus.Counter
	lineItemsAdded      prometheus.Counter
	totalRecomputations prometheus.Counter
	timelineEvents      prometheus.Counter

	searchRequests     *prometheus.CounterVec
	sideEffectFailures *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
}

// NewQuotationMetrics регистрирует метрики в DefaultRegisterer.
func NewQuotationMetrics() *QuotationMetrics {
	return NewQuotationMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewQuotationMetricsWithRegisterer регистрирует метрики в переданном registerer.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewQuotationMetricsWithRegisterer(registerer prometheus.Registerer) *QuotationMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &QuotationMetrics{
		quotationsCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "qms_quotations_created_total",
			Help: "Total number of quotations created",
		}),
		quotationsFinalized: registerCounter(registerer, prometheus.CounterOpts{
			Name: "qms_quotations_finalized_total",
			Help: "Total number of quotations finalized",
		}),
		lineItemsAdded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "qms_line_items_added_total",
			Help: "Total number of line items added to quotations",
		}),
		totalRecomputations: registerCounter(registerer, prometheus.CounterOpts{
			Name: "qms_total_recomputations_total",
			Help: "Total number of quotation total price recomputations",
		}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "qms_timeline_events_total",
			Help: "Total number of quotation history events recorded",
		}),
		searchRequests: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "qms_search_requests_total",
			Help: "Product search requests by answer source",
		}, []string{"source"}),
		sideEffectFailures: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "qms_side_effect_failures_total",
			Help: "Failures of non-critical side effects (cache, counters, events, history)",
		}, []string{"component"}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "qms_operation_duration_seconds",
			Help:    "Duration of quotation service operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordQuotationCreated увеличивает счётчик созданных смет.
func (m *QuotationMetrics) RecordQuotationCreated() {
	if m == nil {
		return
	}
	m.quotationsCreated.Inc()
}

// RecordQuotationFinalized увеличивает счётчик финализированных смет.
func (m *QuotationMetrics) RecordQuotationFinalized() {
	if m == nil {
		return
	}
	m.quotationsFinalized.Inc()
}

// RecordLineItemsAdded добавляет n позиций.
func (m *QuotationMetrics) RecordLineItemsAdded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.lineItemsAdded.Add(float64(n))
}

// RecordTotalRecomputed увеличивает счётчик пересчётов итога.
func (m *QuotationMetrics) RecordTotalRecomputed() {
	if m == nil {
		return
	}
	m.totalRecomputations.Inc()
}

// RecordTimelineEvent увеличивает счётчик событий истории.
func (m *QuotationMetrics) RecordTimelineEvent() {
	if m == nil {
		return
	}
	m.timelineEvents.Inc()
}

// RecordSearch учитывает источник ответа поиска.
func (m *QuotationMetrics) RecordSearch(source string) {
	if m == nil {
		return
	}
	m.searchRequests.WithLabelValues(source).Inc()
}

// RecordSideEffectFailure учитывает сбой некритичного побочного эффекта.
func (m *QuotationMetrics) RecordSideEffectFailure(component string) {
	if m == nil {
		return
	}
	m.sideEffectFailures.WithLabelValues(component).Inc()
}

// RecordOperationDuration записывает длительность операции сервиса.
func (m *QuotationMetrics) RecordOperationDuration(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveOperation возвращает функцию, которая при вызове запишет длительность операции.
//
//	defer m.ObserveOperation("create")()
func (m *QuotationMetrics) ObserveOperation(operation string) func() {
	started := time.Now()
	return func() {
		m.RecordOperationDuration(operation, time.Since(started))
	}
}

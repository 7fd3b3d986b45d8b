package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteTotal counts quote computations by outcome.
	QuoteTotal *prometheus.CounterVec
	// OrderCreatedTotal counts checkout attempts by outcome.
	OrderCreatedTotal *prometheus.CounterVec
	// OrderValue records the payable total of created orders in currency units.
	OrderValue prometheus.Histogram
	// PriceDriftTotal counts reconciled lines whose live price differed from the stored one.
	PriceDriftTotal prometheus.Counter
	// UnavailableLineTotal counts cart lines flagged unavailable during reconciliation.
	UnavailableLineTotal prometheus.Counter
	// ConfirmationTaskTotal counts order confirmation task outcomes in the worker.
	ConfirmationTaskTotal *prometheus.CounterVec
	// QueueDLQTotal counts tasks moved to the dead-letter queue.
	QueueDLQTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_total",
			Help:      "Count of order quote computations by outcome.",
		}, []string{"result"})
		OrderCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_created_total",
			Help:      "Count of checkout attempts by outcome.",
		}, []string{"result"})
		OrderValue = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_value",
			Help:      "Payable totals of created orders in whole currency units.",
			Buckets:   []float64{100, 250, 500, 1000, 2500, 5000, 10000, 25000},
		})
		PriceDriftTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_drift_total",
			Help:      "Reconciled lines whose live price differed from the stored price.",
		})
		UnavailableLineTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unavailable_line_total",
			Help:      "Cart lines flagged unavailable during reconciliation.",
		})
		ConfirmationTaskTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmation_task_total",
			Help:      "Order confirmation task outcomes processed by the worker.",
		}, []string{"result"})
		QueueDLQTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_dlq_total",
			Help:      "Tasks moved to the dead-letter queue.",
		})

		mustRegisterCollector(reg, QuoteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteTotal = v
			}
		})
		mustRegisterCollector(reg, OrderCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, OrderValue, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				OrderValue = v
			}
		})
		mustRegisterCollector(reg, PriceDriftTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PriceDriftTotal = v
			}
		})
		mustRegisterCollector(reg, UnavailableLineTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				UnavailableLineTotal = v
			}
		})
		mustRegisterCollector(reg, ConfirmationTaskTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ConfirmationTaskTotal = v
			}
		})
		mustRegisterCollector(reg, QueueDLQTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				QueueDLQTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}

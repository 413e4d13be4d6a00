package notifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mEventsHandled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "push_events_handled_total",
		Help: "Notification events handled (all outcomes).",
	})
	mEventsNoDevice = promauto.NewCounter(prometheus.CounterOpts{
		Name: "push_events_no_device_total",
		Help: "Events short-circuited because the recipient has no endpoints.",
	})
	mDeliveriesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "push_deliveries_sent_total",
		Help: "Per-endpoint deliveries accepted by the gateway.",
	})
	mDeliveriesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "push_deliveries_failed_total",
		Help: "Per-endpoint deliveries rejected or timed out.",
	})
	mBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "push_batch_endpoints",
		Help:    "Endpoints per fan-out batch.",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})
)

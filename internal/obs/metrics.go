// Copyright 2025 James Ross
package obs

import (
	"fmt"
	"net/http"

	"github.com/joltworks/go-brew-queue/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_received_total",
		Help: "Total number of orders accepted into the queue",
	})
	DrinksReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drinks_received_total",
		Help: "Total number of drinks accepted into the queue",
	})
	OrdersCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_completed_total",
		Help: "Total number of orders fully completed",
	})
	DrinksCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drinks_completed_total",
		Help: "Total number of drinks marked complete",
	})
	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "queue_depth_items",
		Help: "Current number of live Items (orders + batches) in the queue",
	})
	PendingDrinks = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "queue_pending_drinks",
		Help: "Current number of drinks awaiting preparation",
	})
	BatchesFormed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "batches_formed_total",
		Help: "Total number of Batches created by the batching algorithm",
	})
)

func init() {
	prometheus.MustRegister(OrdersReceived, DrinksReceived, OrdersCompleted, DrinksCompleted, QueueDepth, PendingDrinks, BatchesFormed)
}

// StartMetricsServer exposes /metrics and returns a server for controlled shutdown.
// StartMetricsServer is retained for compatibility but consider using StartHTTPServer
// which also registers health endpoints.
func StartMetricsServer(cfg *config.Config) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Observability.MetricsPort), Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

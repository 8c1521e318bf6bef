package webhook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var deliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vendora_webhook_deliveries_total",
		Help: "Total number of webhook delivery attempts",
	},
	[]string{"event", "status"},
)

func observeDelivery(event string, success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	deliveriesTotal.WithLabelValues(event, status).Inc()
}

package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 写操作计数
type Metrics struct {
	requests *prometheus.CounterVec
}

// NewMetrics 在 reg 上注册计数器
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "drone_map",
			Name:      "requests_total",
			Help:      "Map data operations by operation and result.",
		}, []string{"op", "result"}),
	}
	reg.MustRegister(m.requests)
	return m
}

func (m *Metrics) observe(op string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.requests.WithLabelValues(op, result).Inc()
}

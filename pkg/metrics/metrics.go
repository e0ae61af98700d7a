package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 服務的 Prometheus 指標
type Metrics struct {
	transactions *prometheus.CounterVec
	conflicts    prometheus.Counter
	httpDuration *prometheus.HistogramVec
}

// New 建立並註冊指標，reg 為 nil 時使用獨立的 Registry
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "office",
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Ledger entries recorded, by kind.",
		}, []string{"kind"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "office",
			Subsystem: "ledger",
			Name:      "append_conflicts_total",
			Help:      "Concurrent append conflicts detected by the ledger store.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "office",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.transactions, m.conflicts, m.httpDuration)
	return m
}

// TransactionRecorded 計數一筆分錄
func (m *Metrics) TransactionRecorded(kind string) {
	m.transactions.WithLabelValues(kind).Inc()
}

// ConflictDetected 計數一次寫入衝突
func (m *Metrics) ConflictDetected() {
	m.conflicts.Inc()
}

// GinMiddleware 以路由樣板 (c.FullPath) 為標籤記錄延遲，避免 path 參數造成高基數
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 计划生成次数，source = computed | cache
	RetroplansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stride_retroplans_total",
			Help: "Retroplans served, by source",
		},
		[]string{"source"},
	)

	RetroplanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stride_retroplan_duration_seconds",
			Help:    "Time spent computing a retroplan",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	FeasibilityScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stride_retroplan_feasibility",
			Help:    "Feasibility score of computed retroplans",
			Buckets: []float64{0.1, 0.25, 0.5, 0.75, 0.9, 1},
		},
	)

	EnergyDebtDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stride_energy_debt_detected_total",
			Help: "Energy debt detections, by severity",
		},
		[]string{"severity"},
	)

	ComebackDetected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stride_comeback_detected_total",
			Help: "Comeback detections",
		},
	)

	GoalTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stride_goal_transitions_total",
			Help: "Goal status transitions, by target status",
		},
		[]string{"to"},
	)

	JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stride_job_runs_total",
			Help: "Background job executions",
		},
		[]string{"job", "result"},
	)
)

var once sync.Once

// Init 注册全部指标，重复调用无副作用
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			RetroplansTotal,
			RetroplanDuration,
			FeasibilityScore,
			EnergyDebtDetected,
			ComebackDetected,
			GoalTransitions,
			JobRuns,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

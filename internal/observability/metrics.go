// Package observability 汇总 Prometheus 指标：训练会话流转与 HTTP 请求耗时。
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gymtrack"

// Metrics 持有全部指标，实现 session.Recorder
type Metrics struct {
	registry *prometheus.Registry

	workoutTransitions  *prometheus.CounterVec
	exerciseTransitions *prometheus.CounterVec
	setsCompleted       prometheus.Counter
	sessionsOpen        prometheus.Gauge
	staleCancelled      prometheus.Counter
	requestDuration     *prometheus.HistogramVec
}

// New 在独立的 registry 上注册指标，测试之间互不干扰
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		workoutTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "workout_transitions_total",
			Help:      "Workout status transitions, by source and target status.",
		}, []string{"from", "to"}),
		exerciseTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "exercise_transitions_total",
			Help:      "Workout exercise status transitions, by source and target status.",
		}, []string{"from", "to"}),
		setsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "sets_completed_total",
			Help:      "Sets completed across all workouts.",
		}),
		sessionsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "open",
			Help:      "Workout sessions currently held in memory.",
		}),
		staleCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "stale_workouts_cancelled_total",
			Help:      "Workouts cancelled by the stale workout sweeper.",
		}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// WorkoutTransition 记录一次训练状态流转
func (m *Metrics) WorkoutTransition(from, to string) {
	m.workoutTransitions.WithLabelValues(from, to).Inc()
}

// ExerciseTransition 记录一次动作状态流转
func (m *Metrics) ExerciseTransition(from, to string) {
	m.exerciseTransitions.WithLabelValues(from, to).Inc()
}

// SetCompleted 记录完成一组
func (m *Metrics) SetCompleted() {
	m.setsCompleted.Inc()
}

// SessionsOpen 更新内存中的会话数
func (m *Metrics) SessionsOpen(n int) {
	m.sessionsOpen.Set(float64(n))
}

// StaleCancelled 记录清理任务取消的训练数量
func (m *Metrics) StaleCancelled(n int) {
	m.staleCancelled.Add(float64(n))
}

// Handler 返回 /metrics 的处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry 暴露底层 registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware 记录每个请求的耗时，未匹配路由的请求归入 "unmatched"
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		begin := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(begin).Seconds())
	}
}

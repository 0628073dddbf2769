package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nemanja-m/gopool/pkg/pool"
)

const namespace = "gopool"

// PoolMetrics holds Prometheus collectors fed by pool hooks.
type PoolMetrics struct {
	TasksSubmitted prometheus.Counter
	TasksRejected  prometheus.Counter
	TasksCompleted *prometheus.CounterVec
	TasksRunning   prometheus.Gauge
	TaskDuration   prometheus.Histogram
	WorkerTasks    *prometheus.CounterVec
}

// NewPoolMetrics creates the pool collectors and registers them with reg.
func NewPoolMetrics(reg prometheus.Registerer) *PoolMetrics {
	m := &PoolMetrics{
		TasksSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks accepted into the pool queue.",
		}),
		TasksRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "tasks_rejected_total",
			Help:      "Total number of tasks refused because the pool was shutting down.",
		}),
		TasksCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "tasks_completed_total",
			Help:      "Total number of tasks run to completion, by outcome.",
		}, []string{"outcome"}),
		TasksRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "tasks_running",
			Help:      "Number of tasks currently executing.",
		}),
		TaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "task_duration_seconds",
			Help:      "Task execution time.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
		WorkerTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "worker_tasks_total",
			Help:      "Total number of tasks executed per worker.",
		}, []string{"worker"}),
	}

	reg.MustRegister(
		m.TasksSubmitted,
		m.TasksRejected,
		m.TasksCompleted,
		m.TasksRunning,
		m.TaskDuration,
		m.WorkerTasks,
	)
	return m
}

// Hooks returns pool hooks that update m.
func (m *PoolMetrics) Hooks() pool.Hooks {
	return pool.Hooks{
		OnSubmit: m.TasksSubmitted.Inc,
		OnReject: m.TasksRejected.Inc,
		OnStart: func(int) {
			m.TasksRunning.Inc()
		},
		OnFinish: func(workerID int, elapsed time.Duration, panicked bool) {
			m.TasksRunning.Dec()
			m.TaskDuration.Observe(elapsed.Seconds())
			m.WorkerTasks.WithLabelValues(strconv.Itoa(workerID)).Inc()
			outcome := "ok"
			if panicked {
				outcome = "panic"
			}
			m.TasksCompleted.WithLabelValues(outcome).Inc()
		},
	}
}

// RegisterQueueGauges exposes the pool size and queue depth, read on scrape.
func RegisterQueueGauges(reg prometheus.Registerer, p *pool.Pool) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "tasks_queued",
			Help:      "Number of tasks waiting in the queue.",
		}, func() float64 { return float64(p.Stats().Queued) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "workers",
			Help:      "Number of pool workers.",
		}, func() float64 { return float64(p.Size()) }),
	)
}

// Package metrics exposes Prometheus instruments for the retrieval
// coordinator. Metrics are registered on the default registry at init.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "retrievit"

var (
	TasksSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks accepted by the scheduler.",
		},
		[]string{"type", "priority"},
	)

	TasksCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_completed_total",
			Help:      "Total number of tasks reaching a terminal state, labeled by final status.",
		},
		[]string{"type", "status"},
	)

	TaskDemotionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_demotions_total",
			Help:      "Total number of tasks requeued at low priority because no capable worker was available.",
		},
	)

	TaskExecutionSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_execution_seconds",
			Help:      "Task execution latency from dispatch to terminal state (seconds).",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"type", "status"},
	)

	WorkersBusy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_busy",
			Help:      "Number of workers currently executing a task.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		TasksSubmittedTotal,
		TasksCompletedTotal,
		TaskDemotionsTotal,
		TaskExecutionSeconds,
		WorkersBusy,
	)
}

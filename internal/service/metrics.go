package service

import "github.com/prometheus/client_golang/prometheus"

var TaskOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "task_operations_total",
		Help: "Task service operations by outcome",
	},
	[]string{"op", "result"},
)

func init() {
	prometheus.MustRegister(TaskOperations)
}

func observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	TaskOperations.WithLabelValues(op, result).Inc()
}

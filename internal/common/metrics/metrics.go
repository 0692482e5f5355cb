// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IntentClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_intent_classifications_total",
			Help: "Total number of intent classifications by source (pattern/model/fallback)",
		},
		[]string{"source"},
	)

	ClassificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "gateway_classification_duration_seconds",
			Help: "Duration of intent classification",
		},
	)

	EntitiesExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_entities_extracted_total",
			Help: "Total number of entities extracted by method (pattern/model)",
		},
		[]string{"method"},
	)

	ToolExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_tool_executions_total",
			Help: "Total number of tool executions by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)

	ToolExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "gateway_tool_execution_duration_seconds",
			Help: "Duration of tool handler execution",
		},
		[]string{"tool"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_upstream_requests_total",
			Help: "Total upstream requests by service (llm/backend) and outcome",
		},
		[]string{"service", "outcome"},
	)
)

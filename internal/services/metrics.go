package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics. Registered once via promauto on package init.
var (
	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "serena_messages_processed_total",
		Help: "Messages processed by the pipeline, labeled by detected intent.",
	}, []string{"intent"})

	generationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "serena_generation_errors_total",
		Help: "Generation gateway failures by error kind.",
	}, []string{"kind"})

	fallbackReplies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "serena_fallback_replies_total",
		Help: "Replies served from the local fallback instead of the model.",
	})

	coherenceReplacements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "serena_coherence_replacements_total",
		Help: "Generated replies replaced by the coherence validator.",
	})

	fanoutWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "serena_fanout_write_failures_total",
		Help: "Post-reply persistence failures by store.",
	}, []string{"store"})

	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "serena_pipeline_duration_seconds",
		Help:    "End-to-end message handling latency.",
		Buckets: prometheus.DefBuckets,
	})
)

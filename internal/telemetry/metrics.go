package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики воркера. Регистрируются в глобальном реестре Prometheus.
var (
	// TasksTotal — task, дошедшие до терминального статуса.
	TasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foldnode_tasks_total",
		Help: "Tasks that reached a terminal status, by status",
	}, []string{"status"})

	// TaskDuration — время обработки task от получения до терминального статуса.
	TaskDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "foldnode_task_duration_seconds",
		Help:    "Task processing time from acquisition to terminal status",
		Buckets: prometheus.ExponentialBuckets(30, 2, 10),
	})

	// PollsTotal — запросы next-task по исходу.
	PollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foldnode_polls_total",
		Help: "Coordinator next-task polls, by outcome",
	}, []string{"outcome"})

	// SearchChunksTotal — завершённые чанки поиска по базам.
	SearchChunksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foldnode_search_chunks_total",
		Help: "Search chunks completed, by source",
	}, []string{"source"})

	// SourceFailuresTotal — ошибки движка поиска, поглощённые на уровне базы.
	SourceFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foldnode_source_failures_total",
		Help: "Per-source search engine failures degraded to zero hits",
	}, []string{"source"})

	// UploadAttemptsTotal — попытки загрузки артефактов по результату.
	UploadAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foldnode_upload_attempts_total",
		Help: "Artifact upload attempts, by kind and result",
	}, []string{"kind", "result"})

	// StatusUpdatesTotal — доставка обновлений статуса по результату.
	StatusUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foldnode_status_updates_total",
		Help: "Status updates handled by the reporter, by result",
	}, []string{"result"})

	// MirrorSelections — выбранное зеркало (1 — degraded fallback на default).
	MirrorSelections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foldnode_mirror_selections_total",
		Help: "Mirror selections, by root and whether the default fallback was used",
	}, []string{"root", "fallback"})
)

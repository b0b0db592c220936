// metrics.go — Prometheus-метрики контроллера отложенного удаления.
package undo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// pendingDeletions — количество несработавших таймеров удаления (все страницы).
	pendingDeletions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ep_undo_pending_deletions",
		Help: "Количество записей, ожидающих коммита удаления",
	})

	// batchesTotal — количество начатых пакетов удаления.
	batchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ep_undo_batches_total",
		Help: "Общее количество пакетов удаления",
	})

	// undoTotal — количество отмен пакетов пользователем.
	undoTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ep_undo_undone_total",
		Help: "Общее количество отменённых пакетов удаления",
	})

	// commitsTotal — количество вызовов пакетного удаления по результату.
	commitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ep_undo_commits_total",
		Help: "Общее количество коммитов пакетного удаления",
	}, []string{"result"})

	// reconcilesTotal — количество перезапросов списка по результату.
	reconcilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ep_undo_reconciles_total",
		Help: "Общее количество перезапросов списка записей",
	}, []string{"result"})
)

package minhook

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/k2io/minhook/engine"
	"github.com/k2io/minhook/internal/metrics"
)

const (
	opInitialize   = "initialize"
	opUninitialize = "uninitialize"
	opCreate       = "create"
	opCreateAPI    = "create_api"
	opRemove       = "remove"
	opEnable       = "enable"
	opDisable      = "disable"
	opEnableAll    = "enable_all"
	opDisableAll   = "disable_all"
	opQueueEnable  = "queue_enable"
	opQueueDisable = "queue_disable"
	opApplyQueued  = "apply_queued"
	opApplyAll     = "apply_all"
	opUnapplyAll   = "unapply_all"
)

// RegisterMetrics registers the hook metrics with r.
func RegisterMetrics(r prometheus.Registerer) error {
	return metrics.Register(r)
}

func observe(op string, st engine.Status) {
	metrics.GetOperations(op, statusLabel(st)).Inc()
}

func statusLabel(st engine.Status) string {
	if !st.Known() {
		return "unknown"
	}
	return strings.ReplaceAll(st.String(), " ", "_")
}

// Package modkit provides module wiring and core deps
package modkit

import (
	"ringroster/internal/platform/config"
	"ringroster/internal/platform/logger"
	"ringroster/internal/platform/metrics"
	"ringroster/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// CH, Bus and Metrics are nil when their backend is disabled
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	PG      store.TxRunner
	CH      store.Clickhouse
	Bus     store.Bus
	Metrics *metrics.Registry
}

// FromStore copies the opened backends of st into Deps
func FromStore(st *store.Store, cfg config.Conf, reg *metrics.Registry) Deps {
	d := Deps{Cfg: cfg, Metrics: reg}
	if st == nil {
		return d
	}
	d.Log, d.PG, d.CH, d.Bus = st.Log, st.PG, st.CH, st.Bus
	return d
}

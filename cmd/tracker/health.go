package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rickgao/odds-data/internal/metrics"
	"github.com/rickgao/odds-data/internal/poller"
)

// statusSource is satisfied by *poller.Poller.
type statusSource interface {
	Status() poller.Status
}

// newHealthHandler serves /health and, when metricsHandler is set, the
// Prometheus endpoint at metricsPath.
func newHealthHandler(p statusSource, storePath string, interval time.Duration, metricsHandler http.Handler, metricsPath string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		st := p.Status()

		health := struct {
			Status      string     `json:"status"`
			Store       string     `json:"store"`
			Cycles      int64      `json:"cycles"`
			LastOutcome string     `json:"last_outcome,omitempty"`
			LastCycle   *time.Time `json:"last_cycle,omitempty"`
			LastSuccess *time.Time `json:"last_success,omitempty"`
			LastRecords int        `json:"last_records"`
		}{
			Status:      healthStatus(st, interval, time.Now()),
			Store:       storePath,
			Cycles:      st.Cycles,
			LastOutcome: st.LastOutcome,
			LastRecords: st.LastRecords,
		}
		if !st.LastCycle.IsZero() {
			health.LastCycle = &st.LastCycle
		}
		if !st.LastSuccess.IsZero() {
			health.LastSuccess = &st.LastSuccess
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	if metricsHandler != nil {
		mux.Handle(metricsPath, metricsHandler)
	}

	return mux
}

// healthStatus is "starting" before the first cycle, "degraded" while the
// last cycle failed, and "unhealthy" when nothing was persisted for three
// intervals.
func healthStatus(st poller.Status, interval time.Duration, now time.Time) string {
	switch {
	case st.Cycles == 0:
		return "starting"
	case st.LastSuccess.IsZero() || now.Sub(st.LastSuccess) > 3*interval:
		return "unhealthy"
	case st.LastOutcome != metrics.OutcomeSuccess:
		return "degraded"
	}
	return "healthy"
}

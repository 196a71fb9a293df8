package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/mind-engage/edukid/internal/logger"
)

// ReadyHandler pings every dependency and reports 503 with the failing names.
func ReadyHandler(deps map[string]Pinger, log *logger.Logger) http.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	names := make([]string, 0, len(deps))
	for n := range deps {
		names = append(names, n)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		ready := true
		for _, n := range names {
			if err := deps[n].PingContext(ctx); err != nil {
				log.Warn("not ready", "dependency", n, "err", err)
				status[n] = "down"
				ready = false
				continue
			}
			status[n] = "ok"
		}
		if !ready {
			respondJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		respondJSON(w, http.StatusOK, status)
	}
}

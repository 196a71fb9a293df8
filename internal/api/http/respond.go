package http

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/edukid/internal/apierr"
	"github.com/mind-engage/edukid/internal/logger"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError writes err and logs it when the caller is not at fault.
func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	if apierr.StatusOf(err) >= http.StatusInternalServerError {
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	apierr.Write(w, err)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// weekParam ?week=N 파싱. 없으면 fallback.
func weekParam(r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("week")
	if raw == "" {
		return fallback, true
	}
	week, err := strconv.Atoi(raw)
	if err != nil || week < 1 {
		return 0, false
	}
	return week, true
}

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/vigil/backend/internal/api/handlers"
	"github.com/wonny/vigil/backend/pkg/database"
	"github.com/wonny/vigil/backend/pkg/logger"
)

// Handlers groups everything the router wires up.
type Handlers struct {
	Predict  *handlers.PredictHandler
	Drift    *handlers.DriftHandler
	Weeks    *handlers.WeeksHandler
	Subgroup *handlers.SubgroupHandler
	Admin    *handlers.AdminHandler
	Stream   *handlers.StreamHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, adminKey string, db *database.DB, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(db)).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Prediction
	api.HandleFunc("/predict", h.Predict.Predict).Methods("POST")

	// Drift analysis
	api.HandleFunc("/drift/status", h.Drift.Status).Methods("GET")
	api.HandleFunc("/drift/unsupervised", h.Drift.Unsupervised).Methods("GET")
	api.HandleFunc("/drift/stream", h.Stream.Stream).Methods("GET")

	// Week comparison and degradation evidence
	api.HandleFunc("/weeks", h.Weeks.Compare).Methods("GET")
	api.HandleFunc("/degradation", h.Weeks.Degradation).Methods("GET")

	// Subgroup analysis
	api.HandleFunc("/subgroups", h.Subgroup.Analyze).Methods("GET")

	// Admin (X-Admin-Key 필수)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(adminAuthMiddleware(adminKey, log))
	admin.HandleFunc("/overview", h.Admin.Overview).Methods("GET")
	admin.HandleFunc("/logs/clear", h.Admin.ClearLogs).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server and DB pool health
func healthCheckHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"status":  "ok",
			"service": "vigil-api",
		}

		if db != nil {
			status, err := db.HealthCheck(r.Context())
			if err != nil || !status.Healthy {
				resp["status"] = "degraded"
				resp["database"] = "unreachable"
			} else {
				resp["database"] = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// adminAuthMiddleware rejects requests without the configured admin key.
// 키는 설정에서만 온다. 코드에 박지 않는다.
func adminAuthMiddleware(adminKey string, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" || r.Header.Get("X-Admin-Key") != adminKey {
				log.WithField("path", r.URL.Path).Warn("Admin request rejected")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Forbidden",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

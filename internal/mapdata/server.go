package mapdata

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/biz-in-support/bizmap/internal/model"
)

// RecordsSource supplies the records served by the API.
type RecordsSource interface {
	Records(ctx context.Context) ([]model.Record, error)
}

// NewRouter builds the read-only data API:
//
//	GET /health
//	GET /counties
//	GET /records?county=   (GeoJSON FeatureCollection)
func NewRouter(src RecordsSource, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/counties", func(w http.ResponseWriter, r *http.Request) {
		records, err := src.Records(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Counties(records))
	})

	r.Get("/records", func(w http.ResponseWriter, r *http.Request) {
		records, err := src.Records(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		fc := FeatureCollection(records, r.URL.Query().Get("county"))
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(fc); err != nil {
			zap.L().Warn("mapdata: encode feature collection", zap.Error(err))
		}
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("mapdata: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("mapdata: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("mapdata: load records", zap.Error(err))
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "records unavailable"})
}

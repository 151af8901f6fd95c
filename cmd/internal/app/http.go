package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authapi "github.com/rasedprogrammer/national-recruiting-agency/cmd/internal/auth/api"
)

// newRouter builds the full HTTP handler: health checks, metrics and the auth API,
// wrapped in the global middleware chain.
func (a *App) newRouter(auth *authapi.Handler, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(newHTTPMetrics(reg).middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/readyz", a.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	auth.Mount(r)

	var h http.Handler = r
	h = WithSecurityHeaders(h)
	h = WithCORS(h, a.cfg, a.log)
	h = WithRecovery(h, a.log)
	h = WithRequestLogging(h, a.log)
	h = WithRequestID(h)
	return h
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	if a.cfg.ReadinessRequireDB && a.pool == nil {
		http.Error(w, "db not configured", http.StatusServiceUnavailable)
		return
	}

	if a.pool != nil {
		if err := PingDB(r.Context(), a.pool, 2*time.Second); err != nil {
			a.log.WarnContext(r.Context(), "readyz.db.not_ready", "err", err)
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
	}
	if a.rdb != nil {
		if err := PingRedis(r.Context(), a.rdb, 2*time.Second); err != nil {
			a.log.WarnContext(r.Context(), "readyz.redis.not_ready", "err", err)
			http.Error(w, "redis not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready\n"))
}

package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/biscenic/commerce-backend/api/responses"
	"github.com/biscenic/commerce-backend/pkg/config"
	"github.com/biscenic/commerce-backend/pkg/logger"
)

const envHeader = "X-Biscenic-Env"

// Pinger is anything that can answer a readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := map[string]string{}
		ready := true
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				if logg != nil {
					logg.Error(ctx, "readiness check failed: "+name, err)
				}
				status[name] = "down"
				ready = false
				continue
			}
			status[name] = "up"
		}

		if !ready {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		status["status"] = "ready"
		responses.WriteSuccess(w, status)
	}
}

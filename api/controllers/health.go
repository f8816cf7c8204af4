package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/liamreece/leasepoint-backend/api/responses"
	"github.com/liamreece/leasepoint-backend/pkg/config"
	"github.com/liamreece/leasepoint-backend/pkg/db"
	"github.com/liamreece/leasepoint-backend/pkg/logger"
	"github.com/liamreece/leasepoint-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LeasePoint-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LeasePoint-Env", cfg.App.Env)

		checks := map[string]string{
			"db":    "ok",
			"redis": "ok",
		}
		healthy := true

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if dbP == nil {
			checks["db"] = "unconfigured"
			healthy = false
		} else if err := dbP.Ping(ctx); err != nil {
			if logg != nil {
				logg.Error(ctx, "readiness db ping failed", err)
			}
			checks["db"] = "unavailable"
			healthy = false
		}

		if redisP == nil {
			checks["redis"] = "unconfigured"
			healthy = false
		} else if err := redisP.Ping(ctx); err != nil {
			if logg != nil {
				logg.Error(ctx, "readiness redis ping failed", err)
			}
			checks["redis"] = "unavailable"
			healthy = false
		}

		if !healthy {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, checks)
			return
		}
		responses.WriteSuccess(w, checks)
	}
}

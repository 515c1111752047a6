package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/api/responses"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/config"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/db"
	pkgerrors "github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/errors"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/logger"
	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/redis"
)

const healthCheckTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CB-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness of the datasource and, when wired, Redis.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CB-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		checks := map[string]string{}

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["database"] = "down"
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not ready").WithDetails(checks))
				return
			}
			checks["database"] = "up"
		}

		if redisClient != nil {
			if err := redisClient.Ping(ctx); err != nil {
				checks["redis"] = "down"
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready").WithDetails(checks))
				return
			}
			checks["redis"] = "up"
		}

		checks["status"] = "ready"
		responses.WriteSuccess(w, checks)
	}
}

package controllers

import (
	"net/http"

	"github.com/swapyard/swapyard-backend/api/responses"
	"github.com/swapyard/swapyard-backend/pkg/config"
	"github.com/swapyard/swapyard-backend/pkg/db"
	pkgerrors "github.com/swapyard/swapyard-backend/pkg/errors"
	"github.com/swapyard/swapyard-backend/pkg/logger"
	pkgredis "github.com/swapyard/swapyard-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Swapyard-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Swapyard-Env", cfg.App.Env)

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not ready").
					WithDetails(map[string]any{"dependency": "database"}))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready").
					WithDetails(map[string]any{"dependency": "redis"}))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

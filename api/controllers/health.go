package controllers

import (
	"net/http"

	"github.com/modecraft/storefront-backend/api/responses"
	"github.com/modecraft/storefront-backend/internal/cartstore"
	"github.com/modecraft/storefront-backend/pkg/config"
	"github.com/modecraft/storefront-backend/pkg/db"
	pkgerrors "github.com/modecraft/storefront-backend/pkg/errors"
	"github.com/modecraft/storefront-backend/pkg/logger"
	"github.com/modecraft/storefront-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the datasources. A degraded cart store is reported
// but does not fail readiness, because carts keep working in memory.
func HealthReady(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	store *cartstore.Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		ctx := r.Context()

		failing := []string{}
		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				failing = append(failing, "database")
			}
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx); err != nil {
				failing = append(failing, "redis")
			}
		}

		if len(failing) > 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").
				WithDetails(map[string]any{"failing": failing}))
			return
		}

		status := map[string]any{"status": "ready"}
		if store != nil && store.Degraded() {
			status["cart_storage"] = "degraded"
		}
		responses.WriteSuccess(w, status)
	}
}

// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	healthfeature "github.com/dalemusser/dispatchhub/internal/app/features/health"
	inquiriesfeature "github.com/dalemusser/dispatchhub/internal/app/features/inquiries"
	linksfeature "github.com/dalemusser/dispatchhub/internal/app/features/links"
	usersfeature "github.com/dalemusser/dispatchhub/internal/app/features/users"
	linkstore "github.com/dalemusser/dispatchhub/internal/app/store/links"
	"github.com/dalemusser/dispatchhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for the dispatch API.
//
// WAFFLE calls this after configuration, backend connections, schema setup,
// and Startup have completed. Routes:
//
//	GET  /health      document store connectivity
//	GET  /metrics     Prometheus metrics
//	GET  /user/{id}   read a user document
//	POST /user        upsert-merge a user document
//	POST /inquiry     upsert-merge an inquiry document
//	POST /link        link a user to an inquiry
//
// The /user, /inquiry and /link routes share the per-IP api_rate_limit.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	docs := deps.Backends.Docs

	r := chi.NewRouter()

	healthHandler := healthfeature.NewHandler(docs, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if deps.Limiter != nil {
			r.Use(ratelimit.Middleware(deps.Limiter, logger))
		}

		usersHandler := usersfeature.NewHandler(docs, logger)
		r.Mount("/user", usersfeature.Routes(usersHandler))

		inquiriesHandler := inquiriesfeature.NewHandler(docs, logger)
		r.Mount("/inquiry", inquiriesfeature.Routes(inquiriesHandler))

		linksHandler := linksfeature.NewHandler(linkstore.New(docs), logger)
		r.Mount("/link", linksfeature.Routes(linksHandler))
	})

	return r, nil
}

// Package api composes the service modules into the HTTP API
package api

import (
	"ringroster/internal/platform/config"
	"ringroster/internal/platform/logger"
	"ringroster/internal/platform/metrics"
	phttp "ringroster/internal/platform/net/http"
	"ringroster/internal/platform/net/middleware"
	"ringroster/internal/platform/store"

	"ringroster/internal/modkit"
	"ringroster/internal/modkit/httpkit"
	"ringroster/internal/modkit/module"
	"ringroster/internal/modkit/swaggerkit"

	metamod "ringroster/internal/services/api/meta/module"
	contactsmod "ringroster/internal/services/contacts/module"
	fdomain "ringroster/internal/services/fields/domain"
	fieldsmod "ringroster/internal/services/fields/module"
	uploadsmod "ringroster/internal/services/uploads/module"
)

// Options are the API options
type Options struct {
	// Config is the unprefixed root; Mount reads CORE_API_* and the module prefixes from it
	Config  config.Conf
	Store   *store.Store
	Metrics *metrics.Registry
	// Auth overrides the CORE_API_TOKENS bearer map
	Auth middleware.AuthPort
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	apiCfg := opt.Config.Prefix("CORE_API_")
	log := logger.Named("api")
	deps := modkit.FromStore(opt.Store, opt.Config, opt.Metrics)

	auth := opt.Auth
	if auth == nil {
		tokens := middleware.BearerTokens(apiCfg.MayPairs("TOKENS"))
		if len(tokens) == 0 {
			log.Warn().Msg("CORE_API_TOKENS is empty, every protected route will answer 401")
		}
		auth = tokens
	}

	r.Use(middleware.Heartbeat("/ping"))

	// fields first, uploads validates custom values against its catalog
	fields := fieldsmod.New(deps)
	catalog := module.MustPortsOf[fdomain.CatalogPort](fields)

	open := []module.Module{
		metamod.New(deps),
	}
	protected := []module.Module{
		contactsmod.New(deps),
		uploadsmod.New(deps, catalog),
		fields,
	}

	stack := httpkit.CommonStack(httpkit.StackOptions{
		CORSOrigins: apiCfg.MayCSV("CORS_ORIGINS", nil),
		SkipLog:     []string{"/api/v1/meta/health", "/api/v1/meta/ready"},
	})
	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		for _, m := range open {
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
		httpkit.Protected(api, auth, func(pr httpkit.Router) {
			for _, m := range protected {
				module.Register(m.Name(), m.Ports())
				m.MountRoutes(pr)
			}
		})
	})

	swaggerkit.Mount(r, apiCfg, apiCfg.MayBool("SWAGGER", true))
	phttp.MountProfiler(r, "/debug", apiCfg.MayBool("PROFILER", false))
	if opt.Metrics != nil && apiCfg.MayBool("METRICS", true) {
		phttp.MountMetrics(r, "/metrics", opt.Metrics.Handler())
	}
}

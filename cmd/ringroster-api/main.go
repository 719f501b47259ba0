// @title         Ringroster API
// @version       0.1.0
// @description   Contacts, bulk uploads and custom fields for call campaigns

package main

import (
	"context"
	"os/signal"
	"syscall"

	"ringroster/internal/platform/config"
	"ringroster/internal/platform/logger"
	"ringroster/internal/platform/metrics"
	phttp "ringroster/internal/platform/net/http"
	"ringroster/internal/platform/store"
	"ringroster/internal/platform/store/schema"

	"ringroster/internal/services/api"
)

func main() {
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	logger.Init(logger.FromEnv())
	l := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// postgres always, clickhouse and nats when SERVICE_*_ENABLED
	st, err := store.Open(ctx, store.ConfigFromEnv(root, "ringroster"),
		store.WithLogger(*logger.Get()),
		store.WithClientInfo("api", apiCfg.MayString("INSTANCE", "api")),
	)
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	if root.Prefix("SERVICE_PGSQL_").MayBool("MIGRATE", false) {
		v, err := schema.Apply(ctx, st.PG)
		if err != nil {
			l.Fatal().Err(err).Msg("postgres migrations failed")
		}
		l.Info().Int("version", v).Msg("postgres schema ready")
		if err := schema.ApplyClickhouse(ctx, st.CH); err != nil {
			l.Fatal().Err(err).Msg("clickhouse schema failed")
		}
	}

	reg := metrics.New()
	srv := phttp.NewServer(apiCfg)
	api.Mount(srv.Router(), api.Options{
		Config:  root,
		Store:   st,
		Metrics: reg,
	})

	if err := srv.Run(ctx); err != nil {
		l.Fatal().Err(err).Msg("http server stopped")
	}
	l.Info().Msg("bye")
}

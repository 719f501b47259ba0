package store

import (
	"time"

	"ringroster/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG   PGConfig
	CH   CHConfig
	NATS NATSConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// ConnectRetries bounds the boot ping loop, default 20
	ConnectRetries int
	// PingTimeout bounds each boot ping, default 3s
	PingTimeout time.Duration
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled bool
	URL     string
}

// NATSConfig configures nats connectivity
type NATSConfig struct {
	Enabled bool
	URL     string
	// ConnectTimeout defaults to 5s
	ConnectTimeout time.Duration
}

// ConfigFromEnv reads SERVICE_PGSQL_*, SERVICE_CLICKHOUSE_* and SERVICE_NATS_* from c
// Postgres is always enabled; the other backends are opt in
func ConfigFromEnv(c config.Conf, appName string) Config {
	pgc := c.Prefix("SERVICE_PGSQL_")
	chc := c.Prefix("SERVICE_CLICKHOUSE_")
	nc := c.Prefix("SERVICE_NATS_")

	cfg := Config{
		AppName: appName,
		PG: PGConfig{
			Enabled:        true,
			URL:            pgc.MustString("DBURL"),
			MaxConns:       int32(pgc.MayInt("MAX_CONNS", 10)),
			LogSQL:         pgc.MayBool("LOG_SQL", false),
			SlowQueryMs:    pgc.MayInt("SLOW_MS", 250),
			ConnectRetries: pgc.MayInt("CONNECT_RETRIES", 20),
			PingTimeout:    pgc.MayDuration("PING_TIMEOUT", 3*time.Second),
		},
		CH: CHConfig{
			Enabled: chc.MayBool("ENABLED", false),
		},
		NATS: NATSConfig{
			Enabled:        nc.MayBool("ENABLED", false),
			ConnectTimeout: nc.MayDuration("CONNECT_TIMEOUT", 5*time.Second),
		},
	}
	if cfg.CH.Enabled {
		cfg.CH.URL = chc.MustString("DBURL")
	}
	if cfg.NATS.Enabled {
		cfg.NATS.URL = nc.MayString("URL", "nats://127.0.0.1:4222")
	}
	return cfg
}

package store

import (
	"time"

	"lifesync/internal/platform/config"
)

// Config selects and configures backends. Only postgres exists today
type Config struct {
	AppName string
	PG      PGConfig
}

// PGConfig configures the postgres state backend
type PGConfig struct {
	Enabled  bool
	URL      string
	MaxConns int32

	// LogSQL traces every statement; SlowQuery marks the ones worth a warning
	LogSQL    bool
	SlowQuery time.Duration

	ConnectRetries int
	PingTimeout    time.Duration
}

// PGFromConfig reads SERVICE_PGSQL_*. The backend is on only when DBURL is set
func PGFromConfig(cfg config.Conf) PGConfig {
	c := cfg.Prefix("SERVICE_PGSQL_")
	url := c.MayString("DBURL", "")
	return PGConfig{
		Enabled:        url != "",
		URL:            url,
		MaxConns:       int32(c.MayInt("MAX_CONNS", 4)),
		LogSQL:         c.MayBool("LOG_SQL", false),
		SlowQuery:      c.MayDuration("SLOW_QUERY", 500*time.Millisecond),
		ConnectRetries: c.MayInt("CONNECT_RETRIES", 20),
		PingTimeout:    c.MayDuration("PING_TIMEOUT", 3*time.Second),
	}
}

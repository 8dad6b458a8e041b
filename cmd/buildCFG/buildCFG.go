package buildCFG

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"tedxcmr/internal/rabbit"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultAdminUser     = "cmr"
	defaultAdminPassword = "cmr@2026"
	defaultPaymentURL    = "https://rapid.grayquest.com/cmru-tedx"
)

// Source is the subset of *config.Config the builders read.
type Source interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string
	SetDefault(key string, value any)
}

type ServerConfig struct {
	Port            string
	Mode            string
	StaticDir       string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	LogLevel        string
}

type DBConfig struct {
	Driver        string
	MasterDSN     string
	SlaveDSNs     []string
	Pool          *dbpg.Options
	SQLitePath    string
	MigrationsDir string
}

type RabbitConfig struct {
	Enabled bool
	rabbit.Config
}

type AdminConfig struct {
	Username     string
	Password     string
	PasswordHash string
}

type SessionConfig struct {
	CookieName    string
	TTL           time.Duration
	Secure        bool
	SweepInterval time.Duration
}

type PaymentConfig struct {
	URL string
}

func BuildServerConfig(cfg Source, log *zerolog.Logger) ServerConfig {
	cfg.SetDefault("server.port", "8080")
	cfg.SetDefault("server.mode", "release")
	cfg.SetDefault("server.static_dir", "")
	cfg.SetDefault("server.cors_origins", []string{})
	cfg.SetDefault("server.shutdown_timeout", 10*time.Second)
	cfg.SetDefault("server.max_body_bytes", 4<<20)
	cfg.SetDefault("log.level", "info")

	sc := ServerConfig{
		Port:            strings.TrimPrefix(cfg.GetString("server.port"), ":"),
		Mode:            cfg.GetString("server.mode"),
		StaticDir:       cfg.GetString("server.static_dir"),
		CORSOrigins:     cfg.GetStringSlice("server.cors_origins"),
		ShutdownTimeout: cfg.GetDuration("server.shutdown_timeout"),
		MaxBodyBytes:    int64(cfg.GetInt("server.max_body_bytes")),
		LogLevel:        cfg.GetString("log.level"),
	}
	if sc.ShutdownTimeout <= 0 {
		log.Warn().Dur("shutdown_timeout", sc.ShutdownTimeout).Msg("non-positive shutdown timeout, using 10s")
		sc.ShutdownTimeout = 10 * time.Second
	}
	return sc
}

func BuildDBConfig(cfg Source, log *zerolog.Logger) (DBConfig, error) {
	cfg.SetDefault("db.driver", DriverSQLite)
	cfg.SetDefault("db.sqlite_path", "tedx.db")
	cfg.SetDefault("db.migrations_dir", "migrations/postgres")
	cfg.SetDefault("db.pool.max_open_conns", 10)
	cfg.SetDefault("db.pool.max_idle_conns", 5)
	cfg.SetDefault("db.pool.conn_max_lifetime", 30*time.Minute)

	dc := DBConfig{
		Driver:        strings.ToLower(cfg.GetString("db.driver")),
		MasterDSN:     cfg.GetString("db.master_dsn"),
		SlaveDSNs:     cfg.GetStringSlice("db.slave_dsns"),
		SQLitePath:    cfg.GetString("db.sqlite_path"),
		MigrationsDir: cfg.GetString("db.migrations_dir"),
		Pool: &dbpg.Options{
			MaxOpenConns:    cfg.GetInt("db.pool.max_open_conns"),
			MaxIdleConns:    cfg.GetInt("db.pool.max_idle_conns"),
			ConnMaxLifetime: cfg.GetDuration("db.pool.conn_max_lifetime"),
		},
	}

	switch dc.Driver {
	case DriverPostgres:
		if dc.MasterDSN == "" {
			return DBConfig{}, errors.New("db.master_dsn is required for the postgres driver")
		}
		if len(dc.SlaveDSNs) > 0 {
			log.Warn().Int("replicas", len(dc.SlaveDSNs)).Msg("db.slave_dsns is ignored, all queries go to the primary")
		}
		log.Info().Msg("using postgres store")
	case DriverSQLite:
		if dc.SQLitePath == "" {
			return DBConfig{}, errors.New("db.sqlite_path is required for the sqlite driver")
		}
		log.Info().Str("path", dc.SQLitePath).Msg("using sqlite store")
	default:
		return DBConfig{}, fmt.Errorf("unknown db.driver %q", dc.Driver)
	}
	return dc, nil
}

func BuildRabbitConfig(cfg Source, log *zerolog.Logger) (RabbitConfig, error) {
	cfg.SetDefault("rabbit.enabled", false)
	cfg.SetDefault("rabbit.exchange", "tedx.events")
	cfg.SetDefault("rabbit.payment_queue", "tedx.payments")
	cfg.SetDefault("rabbit.connect.attempts", 5)
	cfg.SetDefault("rabbit.connect.delay", time.Second)

	rc := RabbitConfig{
		Enabled: cfg.GetBool("rabbit.enabled"),
		Config: rabbit.Config{
			URL:          cfg.GetString("rabbit.url"),
			Exchange:     cfg.GetString("rabbit.exchange"),
			PaymentQueue: cfg.GetString("rabbit.payment_queue"),
			Attempts:     cfg.GetInt("rabbit.connect.attempts"),
			Delay:        cfg.GetDuration("rabbit.connect.delay"),
		},
	}
	if !rc.Enabled {
		log.Info().Msg("RabbitMQ disabled, domain events will not be published")
		return rc, nil
	}
	if rc.URL == "" {
		return RabbitConfig{}, errors.New("rabbit.url is required when rabbit.enabled is true")
	}
	if rc.Attempts < 1 {
		rc.Attempts = 1
	}
	return rc, nil
}

func BuildAdminConfig(cfg Source, log *zerolog.Logger) AdminConfig {
	cfg.SetDefault("admin.username", defaultAdminUser)
	cfg.SetDefault("admin.password", defaultAdminPassword)
	cfg.SetDefault("admin.password_hash", "")

	ac := AdminConfig{
		Username:     cfg.GetString("admin.username"),
		Password:     cfg.GetString("admin.password"),
		PasswordHash: cfg.GetString("admin.password_hash"),
	}
	if ac.PasswordHash == "" && ac.Username == defaultAdminUser && ac.Password == defaultAdminPassword {
		log.Warn().Msg("admin credential is the built-in default, set admin.password_hash in production")
	}
	return ac
}

func BuildSessionConfig(cfg Source, log *zerolog.Logger) (SessionConfig, error) {
	cfg.SetDefault("session.cookie_name", "tedx_session")
	cfg.SetDefault("session.ttl", 12*time.Hour)
	cfg.SetDefault("session.secure", false)
	cfg.SetDefault("session.sweep_interval", 5*time.Minute)

	sc := SessionConfig{
		CookieName:    cfg.GetString("session.cookie_name"),
		TTL:           cfg.GetDuration("session.ttl"),
		Secure:        cfg.GetBool("session.secure"),
		SweepInterval: cfg.GetDuration("session.sweep_interval"),
	}
	if sc.CookieName == "" {
		return SessionConfig{}, errors.New("session.cookie_name must not be empty")
	}
	if sc.TTL <= 0 || sc.SweepInterval <= 0 {
		return SessionConfig{}, fmt.Errorf("session.ttl (%s) and session.sweep_interval (%s) must be positive", sc.TTL, sc.SweepInterval)
	}
	if !sc.Secure {
		log.Warn().Msg("session cookie is not marked Secure")
	}
	return sc, nil
}

func BuildPaymentConfig(cfg Source) PaymentConfig {
	cfg.SetDefault("payment.url", defaultPaymentURL)
	return PaymentConfig{URL: cfg.GetString("payment.url")}
}

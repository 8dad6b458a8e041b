package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"tedxcmr/cmd/buildCFG"
	"tedxcmr/internal/api/api"
	rabbitReader "tedxcmr/internal/consumerWorker"
	"tedxcmr/internal/metrics"
	"tedxcmr/internal/rabbit"
	"tedxcmr/internal/repo"
	"tedxcmr/internal/service"
	"tedxcmr/internal/session"
)

func main() {
	zlog.Init()
	log := zlog.Logger

	configPath := pflag.String("config", "config.yaml", "path to the YAML config file")
	envPath := pflag.String("env", "", "path to a .env file (defaults to ./.env when present)")
	migrateDown := pflag.Bool("migrate-down", false, "roll back postgres migrations on shutdown")

	cfg := config.New()
	cfg.ParseFlags()

	if *envPath == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Msg("failed to read .env")
		}
	}
	if err := cfg.Load(*configPath, *envPath, "TEDX"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}

	serverCfg := buildCFG.BuildServerConfig(cfg, &log)
	if err := zlog.SetLevel(serverCfg.LogLevel); err != nil {
		log.Warn().Err(err).Str("level", serverCfg.LogLevel).Msg("unknown log level, keeping default")
	}
	log = zlog.Logger

	dbCfg, err := buildCFG.BuildDBConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build DB config")
	}
	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
	}
	adminCfg := buildCFG.BuildAdminConfig(cfg, &log)
	sessionCfg, err := buildCFG.BuildSessionConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load session config")
	}
	paymentCfg := buildCFG.BuildPaymentConfig(cfg)

	var (
		repository repo.Repository
		pgRepo     *repo.PostgresRepository
	)
	switch dbCfg.Driver {
	case buildCFG.DriverPostgres:
		db, err := dbpg.New(dbCfg.MasterDSN, nil, dbCfg.Pool)
		if err != nil {
			log.Fatal().Msgf("failed to connect to DB: %v", err)
		}
		pgRepo, err = repo.NewRepository(db, &log)
		if err != nil {
			log.Fatal().Msgf("failed to initialize repository: %v", err)
		}
		if err := pgRepo.MigrateUp(dbCfg.MigrationsDir); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
		log.Info().Msg("Migrations applied successfully")
		repository = pgRepo
	case buildCFG.DriverSQLite:
		db, err := repo.OpenSQLite(dbCfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open sqlite")
		}
		bunRepo := repo.NewBunRepository(db, &log)
		if err := bunRepo.CreateSchema(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("failed to create sqlite schema")
		}
		repository = bunRepo
	}
	log.Info().Str("driver", dbCfg.Driver).Msg("Database connected successfully")

	verifier, err := session.NewCredentialVerifier(adminCfg.Username, adminCfg.Password, adminCfg.PasswordHash)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid admin credential")
	}
	sessions := session.NewStore(sessionCfg.TTL)
	guard := session.NewGuard(sessions, verifier, session.CookieConfig{
		Name:   sessionCfg.CookieName,
		Secure: sessionCfg.Secure,
	}, &log)

	m := metrics.New()
	m.TrackActiveSessions(sessions.Len)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	var (
		publisher service.Publisher = rabbit.NopPublisher{}
		rmq       *rabbit.Client
		reader    *rabbitReader.Reader
	)
	if rabbitCfg.Enabled {
		rmq, err = rabbit.NewRabbit(rabbitCfg.Config, &log)
		if err != nil {
			log.Fatal().Msgf("Failed to connect to RabbitMQ: %v", err)
		}
		publisher = rmq
		reader = rabbitReader.NewReader(rmq, repository, m, &log)
		reader.Start(workerCtx)
	}

	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		sessions.Run(workerCtx, sessionCfg.SweepInterval, &log)
	}()

	serviceInstance := service.NewService(service.Deps{
		Repo:       repository,
		Guard:      guard,
		Publisher:  publisher,
		Metrics:    m,
		Log:        &log,
		PaymentURL: paymentCfg.URL,
	})
	app := api.NewRouters(&api.Routers{
		Service:      serviceInstance,
		Guard:        guard,
		Metrics:      m,
		Log:          &log,
		Mode:         serverCfg.Mode,
		CORSOrigins:  serverCfg.CORSOrigins,
		StaticDir:    serverCfg.StaticDir,
		MaxBodyBytes: serverCfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:    ":" + serverCfg.Port,
		Handler: app,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	cancelWorkers()
	if reader != nil {
		reader.Stop()
	}
	<-sweeperDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Msgf("Error shutting down server: %v", err)
	}

	if rmq != nil {
		rmq.Close()
	}

	if *migrateDown && pgRepo != nil {
		log.Info().Msg("Rolling back migrations...")
		if err := pgRepo.MigrateDown(dbCfg.MigrationsDir); err != nil {
			log.Error().Msgf("failed to rollback migrations: %v", err)
		} else {
			log.Info().Msg("Migrations rolled back successfully")
		}
	}

	if err := repository.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close store")
	}
	log.Info().Msg("Shutdown complete")
}

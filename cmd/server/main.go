package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"roast-battle/auth"
	"roast-battle/codec"
	"roast-battle/contract"
	"roast-battle/domain"
	"roast-battle/infrastructure/grpc/server"
	"roast-battle/infrastructure/web"
	"roast-battle/internal"
	"roast-battle/moderation"
	"roast-battle/observability"
	"roast-battle/repositories"
	"roast-battle/runtime"
	"roast-battle/runtime/workers"
	"roast-battle/services"
	"roast-battle/sink"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	grpc3 "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"google.golang.org/grpc"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 10 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal or a server error.
// Returning instead of exiting lets the deferred closes of the stores run.
func run() (int, error) {
	// 1. Configuration & Logger
	// A missing .env file is fine, the environment alone may be enough.
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitoring, err := observability.NewMonitoringManager(logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("monitoring init failed: %w", err)
	}

	// 2. Coordinator
	subscribers := runtime.NewSubscriberRegistry(logger, config.SinkTimeout)
	coordinator := runtime.NewCoordinator(logger, subscribers, runtime.Config{
		TurnDuration:        config.TurnDuration,
		TickInterval:        config.TickInterval,
		TimerBroadcastEvery: config.TimerBroadcastEvery,
	})
	defer coordinator.Close()

	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	supervisor.Add(
		workers.NewBattleSweeper(logger, coordinator, config.SweepInterval, config.BattleMaxAge),
		workers.NewSubscriberSweeper(logger, subscribers, config.SubscriberSweepInterval, config.SubscriberStaleAfter),
		workers.NewKeepAliveWorker(logger, subscribers, config.HeartbeatInterval),
		workers.NewReporterWorker(logger, monitoring, coordinator, config.ReportInterval),
	)

	// 3. Archive of finished battles (BadgerDB + Bluge)
	var archive repositories.IArchiveRepository
	if config.ArchiveEnabled {
		db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			logger.Info("Closing BadgerDB...")
			_ = db.Close()
		}()

		blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
		if err != nil {
			return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
		}
		defer func() {
			logger.Info("Closing Bluge...")
			_ = blugeWriter.Close()
		}()

		if logger.Enabled(ctx, slog.LevelDebug) {
			endpoint := "/inspect"
			logger.Info("Debug Badger inspector available",
				"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
			database.StartDebugServer(db, config.DebugPort, endpoint, ArchiveMapper)
		}

		repository := repositories.NewArchiveRepository(db, blugeWriter, logger, config.LimitArchive)
		archiveSink := sink.NewArchiveSink(config.ArchiveBufferSize)
		coordinator.RegisterArchive(archiveSink)
		supervisor.Add(workers.NewArchiveWorker(logger, archiveSink.Records(), repository, monitoring))
		archive = repository
	}

	// 4. Services
	var moderator *moderation.Moderator
	if config.ModerationEnabled {
		data, err := moderation.NewEmbeddedLoader().LoadAll("words")
		if err != nil {
			return exitRuntime, fmt.Errorf("failed to load censored words: %w", err)
		}
		moderator, err = moderation.NewModerator(data.Words, charReplacement)
		if err != nil {
			return exitRuntime, err
		}
		logger.Info("Moderation enabled", "languages", data.Languages, "words", len(data.Words))
	}

	battleService := services.NewBattleService(logger, coordinator, moderator, monitoring, services.BattleServiceConfig{
		MaxAge: config.BattleMaxAge,
	})
	roastService := services.NewRoastService(logger, battleService,
		roastGenerator(config), speechSynthesizer(config), monitoring,
		services.RoastServiceConfig{
			GenerateTimeout:   config.GenerateTimeout,
			SynthesizeTimeout: config.SynthesizeTimeout,
		})

	var issuer *auth.TokenIssuer
	if config.HostPassphraseHash != "" {
		issuer = auth.NewTokenIssuer(config.HostTokenSecret, config.HostTokenDuration)
	} else {
		logger.Warn("HOST_PASSPHRASE_HASH is not set, host routes are open")
	}
	hostService := services.NewHostService(config.HostPassphraseHash, issuer)

	address := fmt.Sprintf("%s:%d", config.Host, config.GRPCPort)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	workersCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(workersCtx)
	}()

	errChan := make(chan error, 2)

	// 5. HTTP Server
	handlers := web.NewHandlers(logger, battleService, roastService, hostService, archive, monitoring, web.Config{
		SubscriberBufferSize: config.SubscriberBufferSize,
		AllowedOrigin:        config.AllowedOrigin,
		SearchLimit:          config.SearchLimit,
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.HTTPPort),
		Handler:           web.NewRouter(handlers),
		ReadHeaderTimeout: 5 * time.Second,
		// Event streams end with the signal context instead of holding Shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 6. gRPC Server
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc3.UnaryLoggingInterceptor(logger),
			auth.HostInterceptor(issuer, server.UpdateBattleMethod),
		))
	server.NewBattleServer(logger, battleService, config.SubscriberBufferSize).Register(grpcServer)
	go func() {
		logger.Info("Starting gRPC server", "address", address)
		for serviceName := range grpcServer.GetServiceInfo() {
			logger.Debug("gRPC exposed services", "name", serviceName)
		}
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	code, runErr := exitOK, error(nil)
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 8. Graceful shutdown: streams first, then workers so the archive drains before the stores close.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	grpcServer.Stop()
	coordinator.Close()
	stopWorkers()
	<-supervisorDone
	logger.Info("Program stopped cleanly")

	return code, runErr
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}

func roastGenerator(config internal.Config) contract.IRoastGenerator {
	if config.OpenAIAPIKey == "" {
		return nil
	}
	return services.NewOpenAIGenerator(config.OpenAIBaseURL, config.OpenAIAPIKey, config.GenerateTimeout)
}

func speechSynthesizer(config internal.Config) contract.ISpeechSynthesizer {
	if config.ElevenLabsAPIKey == "" {
		return nil
	}
	return services.NewElevenLabsSynthesizer(config.ElevenLabsBaseURL, config.ElevenLabsAPIKey, config.SynthesizeTimeout)
}

// ArchiveMapper shows archived battles in the Badger inspector.
func ArchiveMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	if strings.HasPrefix(key, repositories.IndexKey("")) {
		row.Type = "INDEX"
		row.Detail = string(val)
		return row
	}

	var record domain.BattleRecord
	if err := codec.Unmarshal(val, &record); err != nil {
		row.Detail = "Error: unmarshal failed"
		return row
	}
	row.Type = "BATTLE"
	outcome := lo.Ternary(record.Tie, "tie", string(lo.FromPtr(record.Winner)))
	row.Detail = fmt.Sprintf("%s | %s | human %d - ai %d | %d roasts",
		record.Battle.ID, outcome, record.TotalTally.Human, record.TotalTally.AI, len(record.Roasts))
	return row
}

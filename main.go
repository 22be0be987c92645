package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wfunc/trivianight/broadcast"
	"github.com/wfunc/trivianight/config"
	"github.com/wfunc/trivianight/idgen"
	"github.com/wfunc/trivianight/logger"
	"github.com/wfunc/trivianight/monitor"
	"github.com/wfunc/trivianight/persistence"
	"github.com/wfunc/trivianight/registry"
	trivia_rpc "github.com/wfunc/trivianight/rpc"
	"github.com/wfunc/trivianight/server"
	"github.com/wfunc/trivianight/services"
	"github.com/wfunc/trivianight/session"
	"github.com/wfunc/trivianight/timer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cmd := &cli.Command{
		Name:   "trivianight",
		Usage:  "live trivia game server",
		Flags:  []cli.Flag{configFlag()},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the game server",
				Flags:  []cli.Flag{configFlag()},
				Action: serve,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "config",
		Value: ".",
		Usage: "directory containing config.yaml",
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return err
	}

	// Results archive
	store, err := persistence.Open(cfg.Archive)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer store.Close()
	if cfg.Archive.Enabled {
		logger.Log.Infow("Archiving finished games", "driver", cfg.Archive.Driver)
	}

	// Game core
	sessions := session.NewManager()
	broadcaster := broadcast.NewGameBroadcaster(sessions)
	games := services.NewGameService(
		registry.New(),
		idgen.NewGenerator(cfg.Game.CodeLength),
		broadcaster,
		services.Options{
			IdleTimeout:       cfg.Game.IdleTimeout,
			MaxUsernameLength: cfg.Game.MaxUsernameLength,
			Archiver:          store,
		},
	)

	mon := monitor.NewMonitor("trivianight")
	metricsServer := mon.StartServer(cfg.Server.MetricsAddress)

	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, games, sessions, broadcaster, mon)

	// Admin RPC
	rpcServer, err := trivia_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		return fmt.Errorf("start rpc server: %w", err)
	}
	if err := rpcServer.Register(trivia_rpc.NewAdminService(games, store, gameServer.SweepIdle)); err != nil {
		return fmt.Errorf("register admin service: %w", err)
	}
	go rpcServer.Start()

	healthServer, err := trivia_rpc.NewHealthServer(cfg.Server.HealthAddress)
	if err != nil {
		return fmt.Errorf("start health server: %w", err)
	}
	go healthServer.Start()

	// Idle sweep
	timers := timer.NewTimerManager()
	timers.Every(cfg.Game.SweepInterval, func() { gameServer.SweepIdle() })

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- gameServer.Start() }()

	select {
	case <-ctx.Done():
		logger.Log.Info("Shutdown signal received")
	case err = <-errCh:
		if err != nil {
			logger.Log.Errorf("Game server stopped: %v", err)
		}
	}

	healthServer.SetServing(false)
	timers.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := gameServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Log.Warnf("Game server shutdown: %v", shutdownErr)
	}
	if shutdownErr := metricsServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Log.Warnf("Metrics server shutdown: %v", shutdownErr)
	}
	rpcServer.Stop()
	healthServer.Stop()

	logger.Log.Info("Server stopped")
	return err
}

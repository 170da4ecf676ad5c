package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/ipg-client/internal/config"
	"github.com/rickgao/ipg-client/internal/connection"
	"github.com/rickgao/ipg-client/internal/database"
	"github.com/rickgao/ipg-client/internal/event"
	"github.com/rickgao/ipg-client/internal/history"
	"github.com/rickgao/ipg-client/internal/model"
	"github.com/rickgao/ipg-client/internal/protocol"
	"github.com/rickgao/ipg-client/internal/version"
)

func main() {
	cmd := &cli.Command{
		Name:    "ipgclient",
		Usage:   "headless Inter Planet Game client",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
				Sources: cli.EnvVars("IPG_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "url",
				Usage:   "game server url (overrides server.url)",
				Sources: cli.EnvVars("IPG_SERVER_URL"),
			},
			&cli.StringFlag{
				Name:    "name",
				Usage:   "player name sent on every connect (overrides player.name)",
				Sources: cli.EnvVars("IPG_PLAYER_NAME"),
			},
			&cli.StringFlag{
				Name:  "health-addr",
				Usage: "listen address for the health endpoint, empty to disable",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "print every inbound frame to stdout",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log at debug level and print traced frames in full",
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ipgclient:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := loadConfig(cmd.String("config"), cmd.String("url"), cmd.String("name"))
	if err != nil {
		return err
	}

	// Set up structured logging
	logger := newLogger(cfg.Logging.Level, cmd.Bool("verbose"))
	slog.SetDefault(logger)

	logger.Info("starting ipg client",
		"version", version.Version,
		"commit", version.Commit,
		"url", cfg.Server.URL,
	)

	bus := event.NewBus(logger)
	client := protocol.NewClient(nil, logger)
	trace := cmd.Bool("trace")
	manager := connection.NewManager(managerConfig(cfg), bus, func(t connection.Transport) connection.Codec {
		client.Bind(t)
		if trace {
			return &tracingCodec{Codec: client, out: os.Stdout, full: cmd.Bool("verbose")}
		}
		return client
	}, logger)
	defer manager.Close()

	watchGame(bus, manager, client, cfg.Player.Name, logger)

	g, gctx := errgroup.WithContext(ctx)

	var writer *history.Writer
	if cfg.History.Enabled {
		w, stopHistory, err := startHistory(gctx, cfg.History, bus, manager, logger)
		if err != nil {
			return err
		}
		defer stopHistory()
		writer = w
	}

	if addr := cmd.String("health-addr"); addr != "" {
		srv := &http.Server{
			Addr:    addr,
			Handler: newHealthHandler(manager, client, writer),
		}
		g.Go(func() error {
			logger.Info("starting health server", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("health server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := manager.Connect(cfg.Server.URL); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err = g.Wait()
	logger.Info("shutting down", "stats", manager.Stats())
	return err
}

// loadConfig reads the config file if given, applies flag overrides, and validates.
func loadConfig(path, url, name string) (*config.ClientConfig, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadWithDefaults(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if url != "" {
		cfg.Server.URL = url
	}
	if name != "" {
		cfg.Player.Name = name
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func newLogger(level string, verbose bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))
}

func managerConfig(cfg *config.ClientConfig) connection.ManagerConfig {
	c := cfg.Connection
	return connection.ManagerConfig{
		SecureOrigin:      cfg.Server.SecureOrigin,
		PendingThreshold:  c.PendingThreshold,
		ReconnectBaseWait: c.ReconnectBaseDelay,
		ReconnectMaxWait:  c.ReconnectMaxDelay,
		PingInterval:      c.PingInterval,
		Transport: connection.TransportConfig{
			HandshakeTimeout: c.HandshakeTimeout,
			WriteTimeout:     c.WriteTimeout,
			SendRate:         c.OutboundRate(),
			SendBurst:        c.SendBurst,
		},
	}
}

// watchGame logs connection and lobby changes and re-sends the player name
// after every connect.
func watchGame(bus *event.Bus, manager *connection.Manager, client *protocol.Client, name string, logger *slog.Logger) {
	bus.Subscribe(event.ConnectionStatusChange, func() {
		logger.Info("connection status", "status", manager.Status().String())
	})

	bus.Subscribe(event.ConnectionOpen, func() {
		if name == "" {
			return
		}
		if err := client.SetName(name); err != nil {
			logger.Warn("failed to set player name", "name", name, "error", err)
		}
	})

	logGames := func() {
		logger.Info("game list updated", "games", len(client.Games()))
	}
	bus.Subscribe(protocol.EventGameList, logGames)
	bus.Subscribe(protocol.EventNewGame, logGames)

	bus.Subscribe(protocol.EventMapList, func() {
		logger.Info("maps available", "maps", client.Maps())
	})
}

// startHistory connects to the history database and starts recording.
// The returned func stops recording and flushes what is queued.
func startHistory(
	ctx context.Context,
	cfg config.HistoryConfig,
	bus *event.Bus,
	manager *connection.Manager,
	logger *slog.Logger,
) (*history.Writer, func(), error) {
	logger.Info("connecting to history database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect history database: %w", err)
	}

	if err := history.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	queue := history.NewQueue[model.ConnectionEvent](cfg.BufferSize, cfg.MaxBufferSize)
	writer := history.NewWriter(history.WriterConfig{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
	}, queue, pool, logger)
	if err := writer.Start(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	recorder := history.NewRecorder(bus, manager, queue, logger)
	recorder.Start()

	stop := func() {
		recorder.Close()
		queue.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		writer.Stop(shutdownCtx)
		pool.Close()
	}

	return writer, stop, nil
}

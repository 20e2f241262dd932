package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/prabidush11/Web-Development/internal/api"
	"github.com/prabidush11/Web-Development/internal/assets"
	"github.com/prabidush11/Web-Development/internal/config"
	"github.com/prabidush11/Web-Development/internal/crypto"
	"github.com/prabidush11/Web-Development/internal/delivery"
	"github.com/prabidush11/Web-Development/internal/live"
	"github.com/prabidush11/Web-Development/internal/logger"
	"github.com/prabidush11/Web-Development/internal/presence"
	"github.com/prabidush11/Web-Development/internal/seen"
	"github.com/prabidush11/Web-Development/internal/store"
	"github.com/prabidush11/Web-Development/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

var (
	addr     string
	dbPath   string
	debug    bool
	logLevel string
)

func main() {
	root := &cobra.Command{
		Use:          "chat-server",
		Short:        "Direct messaging server with live presence",
		SilenceUsage: true,
		RunE:         run,
	}

	root.Flags().StringVar(&addr, "addr", "", "listen address (default :$PORT or :5000)")
	root.Flags().StringVar(&dbPath, "db", "", "sqlite database path (ignored when DATABASE_URL is set)")
	root.Flags().BoolVar(&debug, "debug", false, "enable debug mode")
	root.Flags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	if err := root.Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	var overrides config.Overrides
	if cmd.Flags().Changed("addr") {
		overrides.Addr = &addr
	}
	if cmd.Flags().Changed("db") {
		overrides.DatabasePath = &dbPath
	}
	if cmd.Flags().Changed("debug") {
		overrides.Debug = &debug
	}

	// Load configuration
	cfg, err := config.Load(overrides)
	if err != nil {
		return err
	}

	if cfg.Debug {
		logger.SetOutput(os.Stderr, true)
		logger.SetLevel(logger.LevelDebug)
	}
	if logLevel != "" {
		logger.SetLevel(logger.ParseLevel(logLevel))
	}

	// Set Gin mode
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		logger.Warnf("JWT_SECRET not set; using an ephemeral secret, tokens will not survive a restart")
		if secret, err = crypto.RandBytes(make([]byte, 32)); err != nil {
			return err
		}
	}
	jwtManager, err := crypto.NewJWTManager(secret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	uploader, err := assets.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL, cfg.MaxImageBytes)
	if err != nil {
		return err
	}

	managerOpts := []live.Option{live.WithOutboxSize(cfg.OutboxSize)}
	if cfg.RedisURL != "" {
		mirror, err := presence.NewRedisMirror(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warnf("Presence mirror disabled: %v", err)
		} else {
			defer mirror.Close()
			managerOpts = append(managerOpts, live.WithMirror(mirror.Publish))
			logger.Infof("Mirroring presence to Redis")
		}
	}
	manager := live.NewManager(presence.NewRegistry(), managerOpts...)
	reconciler := seen.NewReconciler(db)

	logger.Infof("Initializing Socket.IO server...")
	socketIOServer := websocket.NewSocketIOServer(jwtManager, db, reconciler, manager)
	defer socketIOServer.Close()

	simpleServer := websocket.NewSimpleServer(jwtManager, db, reconciler, manager, cfg.AllowedOrigins)

	router := api.NewRouter(api.Deps{
		Store:          db,
		JWT:            jwtManager,
		Uploader:       uploader,
		Seen:           reconciler,
		Dispatcher:     delivery.NewDispatcher(manager.Registry()),
		UploadDir:      uploader.Dir(),
		AllowedOrigins: cfg.AllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		SocketIO:       socketIOServer,
		Simple:         simpleServer,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("Chat server starting on %s", cfg.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Infof("Shutting down...")
	manager.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("HTTP shutdown: %v", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.DataStore, error) {
	if cfg.DatabaseURL != "" {
		logger.Infof("Connecting to PostgreSQL")
		return store.NewPostgresStore(ctx, cfg.DatabaseURL)
	}
	logger.Infof("Opening database: %s", cfg.DatabasePath)
	return store.NewSQLiteStore(cfg.DatabasePath)
}

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"medpredict/artifact"
	"medpredict/config"
	"medpredict/db"
	mhttp "medpredict/http"
	"medpredict/logging"
	"medpredict/monitoring"
	"medpredict/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the prediction HTTP server",
	Long: `Loads every condition's artifacts, then serves POST /predict/{condition}
and the operational endpoints under /api. A condition whose artifacts fail to
load is reported as unavailable; the others keep serving.`,
	RunE: runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	logger := logging.New("serve")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := artifact.NewStore(artifact.NewFileLoader(cfg.Artifacts.Dir), logging.New("artifact"))
	for _, st := range store.Load(ctx) {
		if !st.Available {
			logger.Warn("condition unavailable at startup",
				zap.String("condition", st.Condition.String()),
				zap.String("error", st.Error),
			)
		}
	}

	p, err := pipeline.New(store, cfg.Cache.Size, logging.New("pipeline"))
	if err != nil {
		return err
	}

	var predictionLog *db.PredictionLog
	if cfg.Database.Enabled {
		predictionLog, err = db.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer predictionLog.Close()
		logger.Info("prediction log enabled", zap.String("path", cfg.Database.Path))
	}

	hub := monitoring.NewWebSocketHub(logging.New("ws"))
	go hub.Start()
	defer hub.Stop()

	server := mhttp.NewServer(serverConfig(cfg), mhttp.Dependencies{
		Pipeline:      p,
		Store:         store,
		Metrics:       monitoring.NewMetricsCollector(),
		Hub:           hub,
		PredictionLog: predictionLog,
		Logger:        logging.New("http"),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		return server.Stop(context.WithoutCancel(gctx))
	})
	if cfg.Artifacts.Watch {
		watcher, err := artifact.NewWatcher(store, cfg.Artifacts.Dir, cfg.Artifacts.Debounce, logging.New("watcher"))
		if err != nil {
			logger.Warn("artifact watcher disabled", zap.Error(err))
		} else {
			g.Go(func() error { return watcher.Run(gctx) })
		}
	}
	return g.Wait()
}

func serverConfig(cfg *config.Config) mhttp.ServerConfig {
	return mhttp.ServerConfig{
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"diffreview/internal/adapters/analysis"
	httpadapter "diffreview/internal/adapters/http"
	"diffreview/internal/classify"
	comparesvc "diffreview/internal/services/comparisons"
	projectsvc "diffreview/internal/services/projects"
	"diffreview/internal/services/review"
	"diffreview/internal/workers/comparerunner"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the review API",
		Example: `  # listen on LISTEN_ADDR (default :8080)
  diffreview serve

  # override the address
  diffreview serve --addr :9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			db, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if cfg.AutoMigrate {
				if err := db.Migrate(ctx, "up"); err != nil {
					return err
				}
			}

			profiles, err := classify.NewRegistry("")
			if err != nil {
				return err
			}
			if cfg.ScoreProfilesFile != "" {
				if err := profiles.RegisterFile(cfg.ScoreProfilesFile); err != nil {
					return err
				}
			}
			if err := profiles.SetDefault(cfg.ScoreProfile); err != nil {
				return err
			}

			engine := analysis.New(cfg.AnalysisURL, cfg.AnalysisTimeout)
			comparisons := comparesvc.New(engine, db, logger)
			pool := comparerunner.NewPool(db, comparisons, logger)
			if cfg.CompareWorkers > 0 {
				pool.Run(ctx, cfg.CompareWorkers)
				logger.Info("compare workers started", "count", cfg.CompareWorkers)
			}

			reviews := review.New(review.Deps{
				Comparer: pool,
				Updater:  db,
				History:  db,
				Projects: db,
				Deleter:  comparisons,
				Logger:   logger,
			})
			defer reviews.CloseAll()

			api := httpadapter.New(reviews, projectsvc.New(db), comparisons, db, db, profiles, logger)
			server := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           api.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", cfg.ListenAddr, "env", cfg.Env, "profile", profiles.Default().Name)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
				shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
				defer stop()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Error("server shutdown failed", "err", err)
					return err
				}
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides LISTEN_ADDR")
	return cmd
}

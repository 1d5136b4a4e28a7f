package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/classpilot/classpilot"
	"github.com/classpilot/classpilot/server"
	"github.com/classpilot/classpilot/session"
	"github.com/classpilot/classpilot/store/bolt"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the assistant as an HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		loop, catalog, err := newLoop(cfg, log)
		if err != nil {
			return err
		}

		db, err := bolt.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		sessions := session.NewManager(cfg.SessionTTL)
		srv := server.New(server.Deps{
			Loop:     loop,
			Gate:     classpilot.NewGate(nil),
			Catalog:  catalog,
			Sessions: sessions,
			Convs:    bolt.NewConversationStore(db),
			Usage:    bolt.NewUsageStore(db),
			Log:      log,
		})

		httpSrv := &http.Server{
			Addr:    cfg.Addr,
			Handler: srv.Router(),
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			ticker := time.NewTicker(10 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if n := sessions.Sweep(); n > 0 {
						log.Debug().Int("expired", n).Msg("swept sessions")
					}
				}
			}
		}()

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", cfg.Addr).Str("provider", cfg.Provider).Msg("listening")
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

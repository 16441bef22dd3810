package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/shaderscene"
	"github.com/gogpu/shaderscene/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Starts a render loop and exposes prompt, state, teardown and metrics endpoints over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("listen") {
			cfg.HTTP.Listen, _ = cmd.Flags().GetString("listen")
		}

		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		loopDone := make(chan error, 1)
		go func() { loopDone <- rt.run(ctx) }()

		srv := &http.Server{
			Addr:              cfg.HTTP.Listen,
			Handler:           server.NewHandler(rt.app, rt.registry),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			shaderscene.Logger().Info("HTTP server listening", "address", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			stop()
			<-loopDone
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			fmt.Fprintln(cmd.ErrOrStderr(), "\nShutdown signal received, shutting down server...")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = srv.Close()
			}
			return <-loopDone
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", ":8080", "Address to listen on (overrides config)")
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-agent/internal/logger"
	"github.com/spigell/interview-agent/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interview API over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address (default is :8000)")
	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
}

func serve(ctx context.Context) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync() //nolint:errcheck

	config, err := getConfig(viper.GetViper())
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the interview-agent", zap.String("version", version))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the application", zap.Error(err))
	}
	defer application.Close()

	listener, err := net.Listen("tcp", config.Server.Address)
	if err != nil {
		logger.Fatal("listening", zap.String("address", config.Server.Address), zap.Error(err))
	}

	srv := &http.Server{
		Handler:           server.NewRouter(application.service, application.recorder.Handler(), logger),
		ReadHeaderTimeout: config.Server.ReadTimeout,
		ReadTimeout:       config.Server.ReadTimeout,
		WriteTimeout:      config.Server.WriteTimeout,
	}

	logger.Info("listening", zap.String("address", listener.Addr().String()))
	if err := runHTTPServer(ctx, srv, listener, config.Server.ShutdownTimeout, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}

// runHTTPServer serves until ctx is done and then drains in-flight requests.
// Requests run on their own base context, so a signal does not cancel them;
// only requests still running after shutdownTimeout are cancelled.
func runHTTPServer(ctx context.Context, srv *http.Server, listener net.Listener, shutdownTimeout time.Duration, log *zap.Logger) error {
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	srv.BaseContext = func(net.Listener) context.Context { return baseCtx }

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Duration("timeout", shutdownTimeout))

	shutdownCtx, cancel := shutdownContext(shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		cancelBase()
		srv.Close()
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

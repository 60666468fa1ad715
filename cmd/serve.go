package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"options-tracker/config"
	"options-tracker/internal/alert"
	"options-tracker/internal/api"
	"options-tracker/internal/auth"
	"options-tracker/internal/database"
	"options-tracker/internal/metrics"
)

const (
	shutdownTimeout     = 10 * time.Second
	metricsSaveInterval = 5 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the alert monitor and the metrics server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}

	collector := metrics.New(prometheus.DefaultRegisterer)
	if err := collector.Load(ctx, store); err != nil {
		log.WithError(err).Warn("Could not restore metrics")
	}

	prices := newPriceAdapter(collector)
	bot := newBot(prices)
	dispatcher := newDispatcher(collector, bot)

	monitor := alert.NewMonitor(store, store, prices, dispatcher,
		alert.WithInterval(config.GetDuration("monitor_interval")),
		alert.WithObserver(collector),
	)
	if err := monitor.Start(ctx); err != nil {
		_ = store.Close(context.Background())
		return err
	}

	if bot != nil {
		go bot.Run(ctx)
	}
	go saveMetricsPeriodically(ctx, collector, store)

	router := api.NewRouter(api.Config{
		CORSOrigins:    config.GetList("cors_origins"),
		VAPIDPublicKey: config.GetString("vapid_public_key"),
		Debug:          config.GetBool("debug"),
	}, store, prices, auth.NewIssuer(config.GetString("jwt_secret_key")))

	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.GetInt("port")),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := newMetricsAndHealthServer(config.GetInt("metrics_port"))

	errCh := make(chan error, 2)
	go serve(apiServer, "API", errCh)
	go serve(metricsServer, "metrics and health", errCh)

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err = <-errCh:
		log.WithError(err).Error("Server failed, shutting down")
	}

	shutdown(apiServer, metricsServer, monitor, collector, store)
	return err
}

func serve(srv *http.Server, name string, errCh chan<- error) {
	log.Infof("Launching %s endpoint on %s", name, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- errors.Wrapf(err, "%s server", name)
	}
}

// shutdown stops intake first, then the monitor, and closes the store last
func shutdown(apiServer, metricsServer *http.Server, monitor *alert.Monitor, collector *metrics.Collector, store database.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		log.WithError(err).Error("API server shutdown")
	}
	monitor.Stop()

	if err := collector.Save(ctx, store); err != nil {
		log.WithError(err).Error("Failed to save metrics")
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Metrics server shutdown")
	}
	if err := store.Close(ctx); err != nil {
		log.WithError(err).Error("Failed to close database")
	}
	log.Info("Metrics saved, shutting down...")
}

func saveMetricsPeriodically(ctx context.Context, collector *metrics.Collector, store database.Store) {
	ticker := time.NewTicker(metricsSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := collector.Save(ctx, store); err != nil {
				log.WithError(err).Warn("Periodic metrics save failed")
			}
		}
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func newMetricsAndHealthServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthCheckHandler)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

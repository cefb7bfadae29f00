package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/hamed0406/bengreen/internal/config"
	"github.com/hamed0406/bengreen/internal/cycles"
	"github.com/hamed0406/bengreen/internal/dispatch"
	"github.com/hamed0406/bengreen/internal/httpapi"
	apimw "github.com/hamed0406/bengreen/internal/httpapi/middleware"
	"github.com/hamed0406/bengreen/internal/logging"
	"github.com/hamed0406/bengreen/internal/metrics"
	"github.com/hamed0406/bengreen/internal/notify"
	"github.com/hamed0406/bengreen/internal/probe"
	"github.com/hamed0406/bengreen/internal/registry"
	"github.com/hamed0406/bengreen/internal/repo/memory"
	"github.com/hamed0406/bengreen/internal/report"
	"github.com/hamed0406/bengreen/internal/scheduler"
)

func main() {
	cfg, err := config.Load(os.Getenv("BENGREEN_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	probes := probe.Defaults(probe.Deps{Out: os.Stdout, Config: cfg.Probes})
	reg := probe.Register(registry.NewBuilder(), probes...).MustBuild()

	d := dispatch.New(logger, reg, report.New(cfg.Label, os.Stdout))
	d.Metrics = metrics.New(promReg)
	d.Notifier = notify.New(cfg.SlackWebhook)

	runs := memory.New(cfg.API.HistorySize)
	api := httpapi.NewServer(logger, d, runs, promReg)
	api.Crashes = cfg.Probes.Crashes

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc := scheduler.NewRechecker(logger, d, runs, cfg.API.ScheduleProbes, cfg.API.ScheduleInterval)
	go rc.Run(ctx)

	keys := apimw.Keys{Public: cfg.API.PublicAPIKeys, Admin: cfg.API.AdminAPIKeys}
	lim := httpapi.Limits{
		PublicRPM:   cfg.API.PublicRPM,
		PublicBurst: cfg.API.PublicBurst,
		AdminRPM:    cfg.API.AdminRPM,
		AdminBurst:  cfg.API.AdminBurst,
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.API.AllowedOrigins, lim),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api_listen",
		zap.String("addr", cfg.Addr),
		zap.Strings("probes", reg.Names()),
		zap.String("fault_mode", cfg.Probes.FaultMode),
		zap.String("cycle_source", cycles.Source()),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	logger.Info("api_stopped")
}

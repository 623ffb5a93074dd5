package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tailored-agentic-units/hitl/observability"
)

func parseLevel(s string) (observability.Level, error) {
	switch strings.ToLower(s) {
	case "debug", "verbose":
		return observability.LevelVerbose, nil
	case "", "info":
		return observability.LevelInfo, nil
	case "warn", "warning":
		return observability.LevelWarning, nil
	case "error":
		return observability.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", s)
	}
}

// newLogObserver builds the observer named by cfg.Format writing to w. The
// returned func flushes buffered output.
func newLogObserver(cfg LogConfig, w io.Writer) (observability.Observer, func() error, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Format {
	case "", "slog":
		logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.SlogLevel()}))
		return observability.NewSlogObserver(logger), func() error { return nil }, nil

	case "zap":
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(w),
			level.ZapLevel(),
		)
		logger := zap.New(core)
		return observability.NewZapObserver(logger), func() error {
			// Sync on a terminal returns EINVAL; the output is unbuffered there.
			_ = logger.Sync()
			return nil
		}, nil

	default:
		obs, err := observability.GetObserver(cfg.Format)
		if err != nil {
			return nil, nil, err
		}
		return obs, func() error { return nil }, nil
	}
}

// metricsServer exposes a PrometheusObserver's registry over HTTP.
type metricsServer struct {
	server *http.Server
	errs   chan error
}

func startMetrics(addr, namespace string) (observability.Observer, *metricsServer, error) {
	reg := prometheus.NewRegistry()
	obs, err := observability.NewPrometheusObserver(namespace, reg)
	if err != nil {
		return nil, nil, fmt.Errorf("register metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	m := &metricsServer{
		server: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		errs:   make(chan error, 1),
	}
	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.errs <- err
		}
		close(m.errs)
	}()
	return obs, m, nil
}

func (m *metricsServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.server.Shutdown(ctx); err != nil {
		return err
	}
	return <-m.errs
}

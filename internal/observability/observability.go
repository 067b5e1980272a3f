// Package observability configures the process-wide logging pipeline:
// structured slog output on stderr, optionally bridged into an OpenTelemetry
// log exporter when the standard OTEL_EXPORTER_OTLP_ENDPOINT variable is set.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// instrumentationName identifies this process in exported log records.
const instrumentationName = "credvault"

// Instrument installs the default slog logger. Format is "text" or "json".
// When OTEL_EXPORTER_OTLP_ENDPOINT is set, records are additionally exported
// via OTLP (protocol chosen by OTEL_EXPORTER_OTLP_PROTOCOL, HTTP by default).
func Instrument(level slog.Level, format string) error {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text", "":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unsupported log format: %s", format)
	}

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		provider, err := newLoggerProvider(context.Background(), level)
		if err != nil {
			return fmt.Errorf("setting up OTLP log export: %w", err)
		}
		otelHandler := otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider))
		handler = fanout{handler, otelHandler}
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// newLoggerProvider builds the OTel log pipeline: OTLP exporter behind a
// batch processor, filtered to the configured minimum severity. At debug
// level, records are mirrored to stdout for troubleshooting the export path.
func newLoggerProvider(ctx context.Context, level slog.Level) (*sdklog.LoggerProvider, error) {
	var (
		exporter sdklog.Exporter
		err      error
	)
	switch strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL")) {
	case "grpc":
		exporter, err = otlploggrpc.New(ctx)
	default:
		exporter, err = otlploghttp.New(ctx)
	}
	if err != nil {
		return nil, err
	}

	processors := []sdklog.LoggerProviderOption{
		sdklog.WithProcessor(minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severity(level))),
	}

	if level <= slog.LevelDebug {
		stdout, err := stdoutlog.New()
		if err != nil {
			return nil, err
		}
		processors = append(processors, sdklog.WithProcessor(sdklog.NewSimpleProcessor(stdout)))
	}

	return sdklog.NewLoggerProvider(processors...), nil
}

// severity maps slog levels onto minsev severities.
func severity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}

// fanout dispatches each record to every handler.
type fanout []slog.Handler

// Compile-time check that fanout implements slog.Handler.
var _ slog.Handler = (fanout)(nil)

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}
	return next
}

package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
)

// ServiceName identifies this process in exported log records.
const ServiceName = "messagebridge"

// Log export targets accepted by Instrument.
const (
	ExportNone     = "none"
	ExportStdout   = "stdout"
	ExportOTLPGRPC = "otlp-grpc"
	ExportOTLPHTTP = "otlp-http"
)

// Instrument installs the default slog logger and the W3C trace context
// propagator. With an export other than "none", records are also sent
// through an OpenTelemetry log pipeline. OTLP exporters read their endpoint
// from the standard OTEL_EXPORTER_OTLP_* environment variables.
//
// The returned shutdown flushes pending exports and must be called before
// the process exits.
func Instrument(ctx context.Context, level slog.Level, logFormat, export string) (func(context.Context) error, error) {
	return instrument(ctx, os.Stdout, level, logFormat, export)
}

func instrument(ctx context.Context, w io.Writer, level slog.Level, logFormat, export string) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	stdout, err := newStdoutHandler(w, level, logFormat)
	if err != nil {
		return nil, err
	}
	handler := slog.Handler(newTraceContextHandler(stdout))

	exporter, err := newLogExporter(ctx, w, export)
	if err != nil {
		return nil, err
	}

	shutdown := func(context.Context) error { return nil }
	if exporter != nil {
		provider := newLoggerProvider(exporter, level)
		global.SetLoggerProvider(provider)

		handler = newFanoutHandler(handler, otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(provider)))
		shutdown = provider.Shutdown
	}

	slog.SetDefault(slog.New(handler))

	return shutdown, nil
}

// newStdoutHandler creates a handler for human-readable logs.
func newStdoutHandler(w io.Writer, level slog.Level, logFormat string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch strings.ToLower(logFormat) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected: json, text)", logFormat)
	}

	return handler, nil
}

// newLogExporter returns nil for ExportNone.
func newLogExporter(ctx context.Context, w io.Writer, export string) (sdklog.Exporter, error) {
	var (
		exporter sdklog.Exporter
		err      error
	)

	switch strings.ToLower(export) {
	case "", ExportNone:
		return nil, nil
	case ExportStdout:
		exporter, err = stdoutlog.New(stdoutlog.WithWriter(w))
	case ExportOTLPGRPC:
		exporter, err = otlploggrpc.New(ctx)
	case ExportOTLPHTTP:
		exporter, err = otlploghttp.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported log export %q (expected: %s, %s, %s, %s)",
			export, ExportNone, ExportStdout, ExportOTLPGRPC, ExportOTLPHTTP)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s log exporter: %w", export, err)
	}

	return exporter, nil
}

func newLoggerProvider(exporter sdklog.Exporter, level slog.Level) *sdklog.LoggerProvider {
	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severityFor(level))

	return sdklog.NewLoggerProvider(
		sdklog.WithProcessor(processor),
		sdklog.WithResource(resource.NewSchemaless(attribute.String("service.name", ServiceName))),
	)
}

// severityFor maps a slog level to the nearest OpenTelemetry severity floor.
func severityFor(level slog.Level) minsev.Severity {
	switch {
	case level < slog.LevelInfo:
		return minsev.SeverityDebug
	case level < slog.LevelWarn:
		return minsev.SeverityInfo
	case level < slog.LevelError:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}

// ParseLevel parses a log level name such as "debug" or "WARN".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Join(fmt.Errorf("unsupported log level %q (expected: debug, info, warn, error)", s), err)
	}
	return level, nil
}

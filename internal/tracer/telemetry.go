package tracer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"catalog-admin/internal/config"
	"catalog-admin/internal/logger"
	"catalog-admin/internal/version"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"google.golang.org/grpc"
)

const shutdownTimeout = 5 * time.Second

var (
	once         sync.Once
	shutdownFunc = func() {}
	initErr      error
)

var pyroLogrus = func() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l
}()

// Instance sets up the global tracer provider and propagators once and, when
// configured, the profiling agent. The returned func flushes pending spans.
func Instance(globalCtx context.Context) (func(), error) {
	once.Do(func() {
		cfg := config.Instance()

		tp, err := newProvider(globalCtx, cfg)
		if err != nil {
			logger.Error(globalCtx, "Failed to create tracer provider", logger.Err(err))
			initErr = err
			return
		}

		// Set tracer provider WITH pyroscope attached
		otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp))
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		logger.Info(globalCtx, "OpenTelemetry Tracer initialized")

		if cfg.RemoteProfilingHttpURI != "" {
			_, err := pyroscope.Start(pyroscope.Config{
				ApplicationName: cfg.AppName,
				ServerAddress:   cfg.RemoteProfilingHttpURI,
				Logger:          pyroLogrus,
				Tags:            map[string]string{"env": cfg.Env, "version": version.Version},
			})
			if err != nil {
				logger.Error(globalCtx, "Pyroscope failed to start", logger.Err(err))
			} else {
				logger.Info(globalCtx, "Pyroscope started successfully")
			}
		}

		shutdownFunc = func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(globalCtx), shutdownTimeout)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error(ctx, "Error shutting down tracer provider", logger.Err(err))
			}
		}
	})

	return shutdownFunc, initErr
}

func newProvider(ctx context.Context, cfg *config.Config) (*trace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.AppName),
			semconv.ServiceVersionKey.String(version.Version),
			attribute.String("env", cfg.Env),
		),
	)
	if err != nil {
		return nil, err
	}

	opts := []trace.TracerProviderOption{trace.WithResource(res)}

	exp, kind, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if exp != nil {
		opts = append(opts, trace.WithBatcher(exp))
	}
	logger.Info(ctx, "Trace exporter selected", slog.String("exporter", kind))

	return trace.NewTracerProvider(opts...), nil
}

// newExporter prefers the remote collector, then stdout. It returns a nil
// exporter when neither is configured; spans are still created for log
// correlation but go nowhere.
func newExporter(ctx context.Context, cfg *config.Config) (trace.SpanExporter, string, error) {
	switch {
	case cfg.RemoteTraceRpcURI != "":
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.RemoteTraceRpcURI),
			otlptracegrpc.WithCompressor("gzip"),
			otlptracegrpc.WithDialOption(grpc.WithUserAgent(cfg.AppName+"/"+version.Version)),
		)
		return exp, "otlp", err
	case cfg.TraceStdout:
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		return exp, "stdout", err
	default:
		return nil, "none", nil
	}
}

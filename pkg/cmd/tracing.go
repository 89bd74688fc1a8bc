package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/approvals/pkg/otelhelper"
)

// SetupTracing installs the OTLP tracer provider for serviceName when enabled.
// Failures are logged; the services keep running with the no-op tracer.
func SetupTracing(ctx context.Context, enabled bool, serviceName string, logger *slog.Logger) {
	if !enabled {
		return
	}

	_, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		logger.WarnContext(ctx, "Failed to initialize tracing", "error", err)

		return
	}

	logger.InfoContext(ctx, "Tracing enabled", "service", serviceName)
}

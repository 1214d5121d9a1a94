package serviceutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"playerdata/internal/telemetry"
)

// Returns a context that will live until Ctrl+C is pressed
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	return ctx
}

func Fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

// SetupTelemetry installs a stdout SlogAPI as the default logger and starts otel
// export if a telemetry.json5 is found. The returned function flushes and stops it.
func SetupTelemetry(ctx context.Context, serviceName string, debug bool) (telemetry.API, func()) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	tel := telemetry.NewSlogAPI(os.Stdout, level)
	slog.SetDefault(tel.Logger())

	otel, err := telemetry.SetupFromEnv(ctx, serviceName)
	if err != nil {
		tel.ReportWarning("telemetry.setup", err)
	}

	return tel, func() {
		err := otel.Shutdown(context.Background())
		if err != nil {
			tel.ReportWarning("telemetry.shutdown", err)
		}
	}
}

package osutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext returns a context that is cancelled on the first SIGINT or SIGTERM,
// long running work gets to stop at its next checkpoint. A second signal exits
// the process right away.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		slog.Warn("received signal, stopping after the current step", "signal", sig.String())
		cancel()

		<-sigs
		os.Exit(130)
	}()

	return ctx
}

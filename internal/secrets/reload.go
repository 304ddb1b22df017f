package secrets

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
)

// ReloadOnSignal reloads v every time the process receives one of sigs,
// until ctx is done.
func ReloadOnSignal(ctx context.Context, v *Vault, log *slog.Logger, sigs ...os.Signal) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				if err := v.Reload(); err != nil {
					log.Error("secret reload failed, keeping previous values", "error", err)
					continue
				}
				log.Info("secrets reloaded")
			}
		}
	}()
}

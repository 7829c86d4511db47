package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/archivio-maledetto/archivio/archivio/config"
	"github.com/disgoorg/disgo/handler"
)

const slowCommandThreshold = 2 * time.Second

// WrapWithLogging wraps a command handler with start/finish logging and the
// command execution timeout.
func WrapWithLogging(name string, h handler.CommandHandler) handler.CommandHandler {
	return WrapWithTimeout(name, config.CommandExecutionTimeout, h)
}

// WrapWithTimeout is WrapWithLogging for deferred commands that may run past
// the default timeout.
func WrapWithTimeout(name string, timeout time.Duration, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		start := time.Now()

		slog.Info("Command started",
			slog.String("type", "cmd"),
			slog.String("name", name),
			slog.String("user_id", e.User().ID.String()),
			slog.String("user_name", e.User().Username),
			slog.String("channel_id", e.ChannelID().String()),
		)

		done := make(chan error, 1)
		go func() {
			done <- h(e)
		}()

		select {
		case err := <-done:
			logCompletion(name, e.User().ID.String(), e.User().Username, time.Since(start), err)
			return err

		case <-time.After(timeout):
			slog.Error("Command timed out",
				slog.String("type", "cmd"),
				slog.String("name", name),
				slog.String("user_id", e.User().ID.String()),
				slog.String("user_name", e.User().Username),
				slog.String("status", "timeout"),
				slog.Duration("timeout", timeout),
			)
			return fmt.Errorf("command timed out after %s", timeout)
		}
	}
}

func logCompletion(name, userID, userName string, took time.Duration, err error) {
	attrs := []any{
		slog.String("type", "cmd"),
		slog.String("name", name),
		slog.String("user_id", userID),
		slog.String("user_name", userName),
		slog.Duration("took", took),
	}

	switch {
	case err != nil:
		slog.Error("Command failed", append(attrs,
			slog.Any("error", err),
			slog.String("status", "failed"),
		)...)
	case took > slowCommandThreshold:
		slog.Warn("Command executed slowly", append(attrs,
			slog.String("status", "slow"),
		)...)
	default:
		slog.Info("Command completed", append(attrs,
			slog.String("status", "success"),
		)...)
	}
}

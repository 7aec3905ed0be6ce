package logger

import (
	"log/slog"
	"os"
)

// FatalWithLogger logs the message at error level then exits. Only for
// startup failures before the server loop takes over signal handling.
func FatalWithLogger(logger *slog.Logger, msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}

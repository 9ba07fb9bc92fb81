package logger

import (
	"log"
	"log/slog"
)

// New returns a stdlib logger that forwards to l at error level, tagged with
// component. It is meant for APIs such as http.Server.ErrorLog.
func New(l *slog.Logger, component string) *log.Logger {
	return slog.NewLogLogger(l.With("component", component).Handler(), slog.LevelError)
}

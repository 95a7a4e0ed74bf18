// ABOUTME: Structured leveled logger shared by sync, analysis, and servers
// ABOUTME: Thin constructor over charmbracelet/log with a discard option for tests
package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// New builds a logger writing to w at the named level; unknown levels fall back to info.
func New(level string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "touchbase",
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

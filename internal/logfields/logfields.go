package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPage       = "page"
	KeyPackage    = "package"
	KeySymbol     = "symbol"
	KeySource     = "source"
	KeyCommand    = "command"
	KeyTarget     = "target"
	KeyWorker     = "worker"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Page(id string) slog.Attr         { return slog.String(KeyPage, id) }
func Package(name string) slog.Attr    { return slog.String(KeyPackage, name) }
func Symbol(name string) slog.Attr     { return slog.String(KeySymbol, name) }
func Source(path string) slog.Attr     { return slog.String(KeySource, path) }
func Command(cmd string) slog.Attr     { return slog.String(KeyCommand, cmd) }
func Target(raw string) slog.Attr      { return slog.String(KeyTarget, raw) }
func Worker(n int) slog.Attr           { return slog.Int(KeyWorker, n) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID     = "build_id"
	KeyStage       = "stage"
	KeyDurationMS  = "duration_ms"
	KeyDeclaration = "declaration"
	KeySourceSet   = "source_set"
	KeyDialect     = "dialect"
	KeyPage        = "page"
	KeyPath        = "path"
	KeyWorkers     = "workers"
	KeyCount       = "count"
	KeySubject     = "subject"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Declaration(dri string) slog.Attr { return slog.String(KeyDeclaration, dri) }
func SourceSet(id string) slog.Attr    { return slog.String(KeySourceSet, id) }
func Dialect(d string) slog.Attr       { return slog.String(KeyDialect, d) }
func Page(name string) slog.Attr       { return slog.String(KeyPage, name) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Workers(n int) slog.Attr          { return slog.Int(KeyWorkers, n) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Subject(s string) slog.Attr       { return slog.String(KeySubject, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

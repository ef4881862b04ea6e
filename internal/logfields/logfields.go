package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyTemplate   = "template"
	KeyFile       = "file"
	KeyFolder     = "folder"
	KeyOutput     = "output"
	KeyPath       = "path"
	KeyPages      = "pages"
	KeyFailed     = "failed"
	KeyDurationMS = "duration_ms"
	KeyTrigger    = "trigger"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Template(name string) slog.Attr  { return slog.String(KeyTemplate, name) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Folder(f string) slog.Attr       { return slog.String(KeyFolder, f) }
func Output(o string) slog.Attr       { return slog.String(KeyOutput, o) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Pages(n int) slog.Attr           { return slog.Int(KeyPages, n) }
func Failed(n int) slog.Attr          { return slog.Int(KeyFailed, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Trigger(t string) slog.Attr      { return slog.String(KeyTrigger, t) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

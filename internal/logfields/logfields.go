package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyFormat     = "format"
	KeySymbol     = "symbol"
	KeyKind       = "kind"
	KeyOrigin     = "origin"
	KeyArtifact   = "artifact"
	KeyRecords    = "records"
	KeyDiags      = "diagnostics"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Format(f string) slog.Attr       { return slog.String(KeyFormat, f) }
func Symbol(id string) slog.Attr      { return slog.String(KeySymbol, id) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Origin(o string) slog.Attr       { return slog.String(KeyOrigin, o) }
func Artifact(name string) slog.Attr  { return slog.String(KeyArtifact, name) }
func Records(n int) slog.Attr         { return slog.Int(KeyRecords, n) }
func Diags(n int) slog.Attr           { return slog.Int(KeyDiags, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

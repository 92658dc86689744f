package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID     = "build_id"
	KeyStage       = "stage"
	KeyDurationMS  = "duration_ms"
	KeyPath        = "path"
	KeyURL         = "url"
	KeyLayout      = "layout"
	KeyCollection  = "collection"
	KeyTag         = "tag"
	KeyPages       = "pages"
	KeyPassthrough = "passthrough"
	KeyOutput      = "output"
	KeyAddr        = "addr"
	KeyError       = "error"
	KeyMethod      = "method"
	KeyStatus      = "status"
	KeyRemoteAddr  = "remote_addr"
	KeyTrigger     = "trigger"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Layout(name string) slog.Attr     { return slog.String(KeyLayout, name) }
func Collection(name string) slog.Attr { return slog.String(KeyCollection, name) }
func Tag(t string) slog.Attr           { return slog.String(KeyTag, t) }
func Pages(n int) slog.Attr            { return slog.Int(KeyPages, n) }
func Passthrough(n int) slog.Attr      { return slog.Int(KeyPassthrough, n) }
func Output(dir string) slog.Attr      { return slog.String(KeyOutput, dir) }
func Addr(a string) slog.Attr          { return slog.String(KeyAddr, a) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr    { return slog.String(KeyRemoteAddr, a) }
func Trigger(t string) slog.Attr       { return slog.String(KeyTrigger, t) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// Package logging provides scoped structured logging shared by every
// subsystem of the engine core. Logging is gated by a LogScopes bitmask so
// that, for example, enabling translator tracing doesn't also dump every
// task state transition; the zero value logs nothing and costs a single
// bitmask test per call site.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// LogScopes is a bitmask of subsystems that may emit structured log events.
type LogScopes uint64

const (
	LogScopeNone LogScopes = 0

	LogScopeTranslator LogScopes = 1 << iota
	LogScopeTask
	LogScopeWaitQueue
	LogScopeMPSC
	LogScopeWAVL
	LogScopeFiber
	LogScopeVMContext

	LogScopeAll = LogScopes(0xffffffffffffffff)
)

func scopeName(s LogScopes) string {
	switch s {
	case LogScopeTranslator:
		return "translator"
	case LogScopeTask:
		return "task"
	case LogScopeWaitQueue:
		return "waitqueue"
	case LogScopeMPSC:
		return "mpsc"
	case LogScopeWAVL:
		return "wavl"
	case LogScopeFiber:
		return "fiber"
	case LogScopeVMContext:
		return "vmcontext"
	default:
		return ""
	}
}

// IsEnabled returns true if scope (or every scope in a group) is enabled.
func (f LogScopes) IsEnabled(scope LogScopes) bool {
	return f&scope == scope
}

// String implements fmt.Stringer by listing each enabled scope.
func (f LogScopes) String() string {
	if f == LogScopeAll {
		return "all"
	}
	var b strings.Builder
	for i := 0; i <= 63; i++ {
		target := LogScopes(1 << i)
		if f.IsEnabled(target) {
			if name := scopeName(target); name != "" {
				if b.Len() > 0 {
					b.WriteByte('|')
				}
				b.WriteString(name)
			}
		}
	}
	return b.String()
}

// Logger wraps a *zap.Logger with the enabled LogScopes, and no-ops entirely
// when a given call site's scope isn't active so callers can leave tracing
// calls in hot paths (translator dispatch, task transitions) without
// measuring the cost of a disabled logger.
type Logger struct {
	enabled LogScopes
	z       *zap.Logger
}

// NewLogger wraps z, active only for the scopes set in enabled. A nil z
// is replaced with zap.NewNop(). A zero-value Logger (not built by
// NewLogger) has a nil z and is not safe to call Scoped on.
func NewLogger(enabled LogScopes, z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{enabled: enabled, z: z}
}

// Scoped returns a child logger that only emits when scope is active,
// tagged with the scope's name so multiple subsystems sharing one sink are
// distinguishable.
func (l *Logger) Scoped(scope LogScopes) *ScopedLogger {
	return &ScopedLogger{
		active: l.enabled.IsEnabled(scope),
		z:      l.z.Named(scopeName(scope)),
	}
}

// ScopedLogger is bound to a single LogScopes bit.
type ScopedLogger struct {
	active bool
	z      *zap.Logger
}

// Debug logs at debug level if this scope is active. kvs is a flat list
// of alternating key, value the way this codebase's tracing call sites
// prefer over building a []zap.Field at each call.
func (s *ScopedLogger) Debug(msg string, kvs ...interface{}) {
	if !s.active {
		return
	}
	s.z.Debug(msg, kvFields(kvs)...)
}

func kvFields(kvs []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		key, _ := kvs[i].(string)
		fields = append(fields, zap.Any(key, kvs[i+1]))
	}
	if len(kvs)%2 != 0 {
		fields = append(fields, zap.Any("odd_arg", kvs[len(kvs)-1]))
	}
	return fields
}

// Sprintf is a convenience for building the occasional one-off debug string
// without paying for zap.Any boxing when the scope is disabled.
func Sprintf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogScopes_isEnabled(t *testing.T) {
	f := LogScopeNone
	require.False(t, f.IsEnabled(LogScopeTask))
	f |= LogScopeTask
	require.True(t, f.IsEnabled(LogScopeTask))
	require.False(t, f.IsEnabled(LogScopeMPSC))
}

func TestLogScopes_string(t *testing.T) {
	require.Equal(t, "", LogScopeNone.String())
	require.Equal(t, "task", LogScopeTask.String())
	require.Equal(t, "task|mpsc", (LogScopeTask | LogScopeMPSC).String())
	require.Equal(t, "all", LogScopeAll.String())
}

func TestScopedLogger_onlyEmitsWhenActive(t *testing.T) {
	core, observed := observer.New(zap.DebugLevel)
	l := NewLogger(LogScopeTask, zap.New(core))

	l.Scoped(LogScopeTask).Debug("transitioned", "from", "idle", "to", "running")
	l.Scoped(LogScopeMPSC).Debug("enqueued", "len", 3)

	entries := observed.All()
	require.Len(t, entries, 1)
	require.Equal(t, "transitioned", entries[0].Message)
}

package doctor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tau-OS/kumo/internal/config"
	"github.com/tau-OS/kumo/internal/wfipc"
	"github.com/tau-OS/kumo/internal/wfipc/wfipctest"
)

func loaded() config.Loaded {
	return config.Loaded{Path: "/tmp/kumo.jsonc", Config: config.Default()}
}

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "a", Pass: true, Message: "fine"},
		{Name: "b", Pass: false, Message: "broken"},
	}}
	require.False(t, report.OK())
	require.Equal(t, "[OK] a: fine\n[FAIL] b: broken", report.String())
}

func TestRunPassesAgainstLiveSocket(t *testing.T) {
	t.Setenv("XDG_SESSION_TYPE", "wayland")
	path := wfipctest.Start(t, wfipctest.HandlerFunc(func(context.Context, wfipctest.Request) any {
		return []map[string]any{{"id": 1}, {"id": 2}}
	}))
	t.Setenv(wfipc.SocketEnv, path)

	report := Run(context.Background(), loaded(), "")
	require.True(t, report.OK(), report.String())
	require.Contains(t, report.String(), "2 view(s)")
}

func TestRunReportsUnsetSocket(t *testing.T) {
	t.Setenv("XDG_SESSION_TYPE", "wayland")
	t.Setenv(wfipc.SocketEnv, "")

	report := Run(context.Background(), loaded(), "")
	require.False(t, report.OK())
	require.Contains(t, report.String(), "[FAIL] socket:")
	require.Contains(t, report.String(), wfipc.SocketEnv)
}

func TestRunReportsMissingSocketFile(t *testing.T) {
	t.Setenv("XDG_SESSION_TYPE", "x11")
	missing := filepath.Join(t.TempDir(), "gone.sock")

	report := Run(context.Background(), loaded(), missing)
	require.False(t, report.OK())
	require.Contains(t, report.String(), "[FAIL] XDG_SESSION_TYPE")
	require.Contains(t, report.String(), "missing or not a unix socket")
	require.NotContains(t, report.String(), "ipc.list-views")
}

func TestRunReportsRemoteError(t *testing.T) {
	t.Setenv("XDG_SESSION_TYPE", "wayland")
	path := wfipctest.Start(t, wfipctest.Fail("ipc plugin disabled"))

	report := Run(context.Background(), loaded(), path)
	require.False(t, report.OK())
	require.Contains(t, report.String(), "[FAIL] ipc.list-views")
	require.Contains(t, report.String(), "ipc plugin disabled")
}

package wfipc_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tau-OS/kumo/internal/wfipc"
	"github.com/tau-OS/kumo/internal/wfipc/wfipctest"
)

func TestSharedReusesConnection(t *testing.T) {
	require.NoError(t, wfipc.ResetShared())
	t.Cleanup(func() { _ = wfipc.ResetShared() })

	path := wfipctest.Start(t, wfipctest.Echo)

	first, err := wfipc.Shared(context.Background(), path, wfipc.Options{})
	require.NoError(t, err)
	second, err := wfipc.Shared(context.Background(), "/ignored/after/first/use", wfipc.Options{})
	require.NoError(t, err)
	require.Same(t, first, second)

	resp, err := second.Do(context.Background(), wfipc.ListViews{})
	require.NoError(t, err)
	require.JSONEq(t, `{"ok": true, "echo": "list-views"}`, string(resp))
}

func TestSharedDialFailureIsNotCached(t *testing.T) {
	require.NoError(t, wfipc.ResetShared())
	t.Cleanup(func() { _ = wfipc.ResetShared() })

	_, err := wfipc.Shared(context.Background(), filepath.Join(t.TempDir(), "nope.sock"), wfipc.Options{})
	require.ErrorIs(t, err, wfipc.ErrConnectFailed)

	path := wfipctest.Start(t, wfipctest.Echo)
	conn, err := wfipc.Shared(context.Background(), path, wfipc.Options{})
	require.NoError(t, err)
	require.Equal(t, path, conn.Path())
}

func TestResetSharedClosesAndRedials(t *testing.T) {
	require.NoError(t, wfipc.ResetShared())
	t.Cleanup(func() { _ = wfipc.ResetShared() })

	path := wfipctest.Start(t, wfipctest.Echo)

	first, err := wfipc.Shared(context.Background(), path, wfipc.Options{})
	require.NoError(t, err)
	require.NoError(t, wfipc.ResetShared())
	require.True(t, first.Closed())

	second, err := wfipc.Shared(context.Background(), path, wfipc.Options{})
	require.NoError(t, err)
	require.NotSame(t, first, second)
}

func TestSocketPath(t *testing.T) {
	t.Setenv(wfipc.SocketEnv, "/run/user/1000/wayfire-wayland-1-.socket")

	path, err := wfipc.SocketPath(" /tmp/explicit.sock ")
	require.NoError(t, err)
	require.Equal(t, "/tmp/explicit.sock", path)

	path, err = wfipc.SocketPath("")
	require.NoError(t, err)
	require.Equal(t, "/run/user/1000/wayfire-wayland-1-.socket", path)

	t.Setenv(wfipc.SocketEnv, "")
	_, err = wfipc.SocketPath("")
	require.ErrorIs(t, err, wfipc.ErrConnectFailed)
	require.ErrorIs(t, err, wfipc.ErrSocketUnset)
}

func TestIsSocketFile(t *testing.T) {
	path := wfipctest.Start(t, wfipctest.Echo)

	ok, err := wfipc.IsSocketFile(path)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = wfipc.IsSocketFile(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = wfipc.IsSocketFile(t.TempDir())
	require.NoError(t, err)
	require.False(t, ok)
}

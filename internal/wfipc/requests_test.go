package wfipc_test

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/tau-OS/kumo/internal/wfipc"
	"github.com/tau-OS/kumo/internal/wfipc/wfipctest"
)

func compositor(t *testing.T, configured chan<- wfipc.ConfigureView) string {
	t.Helper()

	return wfipctest.Start(t, wfipctest.HandlerFunc(func(_ context.Context, req wfipctest.Request) any {
		switch req.Method {
		case wfipc.MethodListViews:
			return []map[string]any{
				{"id": 1, "app-id": "foot", "title": "shell", "role": "toplevel", "mapped": true, "output-id": 2,
					"geometry": map[string]any{"x": 0, "y": 0, "width": 640, "height": 480}},
				{"id": 5, "app-id": "firefox", "title": "web", "role": "toplevel", "mapped": true, "output-id": 2},
			}
		case wfipc.MethodOutputInfo:
			var data struct {
				ID int `json:"id"`
			}
			_ = json.Unmarshal(req.Data, &data)
			if data.ID != 2 {
				return map[string]any{"error": "no such output"}
			}
			return map[string]any{"id": 2, "name": "DP-1",
				"geometry": map[string]any{"x": 0, "y": 0, "width": 2560, "height": 1440}}
		case wfipc.MethodConfigureView:
			var cmd wfipc.ConfigureView
			if err := json.Unmarshal(req.Data, &cmd); err != nil {
				return map[string]any{"error": err.Error()}
			}
			configured <- cmd
			return map[string]any{"result": "ok"}
		default:
			return map[string]any{"error": "unknown method"}
		}
	}))
}

func TestTypedRequests(t *testing.T) {
	configured := make(chan wfipc.ConfigureView, 1)
	path := compositor(t, configured)

	conn, err := wfipc.Dial(context.Background(), path, wfipc.Options{})
	require.NoError(t, err)
	defer conn.Close()

	views, err := wfipc.ListViewsInfo(context.Background(), conn)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, "foot", views[0].AppID)
	require.Equal(t, uint32(640), views[0].Geometry.Width)
	require.Equal(t, 2, views[1].OutputID)

	out, err := wfipc.OutputDetails(context.Background(), conn, 2)
	require.NoError(t, err)
	require.Equal(t, "DP-1", out.Name)
	require.Equal(t, uint32(1440), out.Geometry.Height)

	_, err = wfipc.OutputDetails(context.Background(), conn, 9)
	require.True(t, wfipc.IsRemote(err))
	require.Contains(t, err.Error(), "no such output")

	geometry := wfipc.Geometry{X: -20, Y: 40, Width: 800, Height: 600}
	require.NoError(t, wfipc.Configure(context.Background(), conn, 5, geometry))
	got := <-configured
	require.Equal(t, 5, got.ID)
	require.Equal(t, geometry, got.Geometry)

	require.NoError(t, wfipc.Configure(context.Background(), conn, 6, wfipc.Geometry{Width: 0, Height: 10}))
	got = <-configured
	require.Equal(t, 6, got.ID)
	require.Equal(t, uint32(0), got.Geometry.Width)
}

func TestTypedRequestDecodeFailureIsMalformed(t *testing.T) {
	path := wfipctest.Start(t, wfipctest.Echo)

	conn, err := wfipc.Dial(context.Background(), path, wfipc.Options{})
	require.NoError(t, err)
	defer conn.Close()

	_, err = wfipc.ListViewsInfo(context.Background(), conn)
	require.ErrorIs(t, err, wfipc.ErrMalformed)
}

// Package doctor runs readiness diagnostics for the session, the Wayfire socket, and a live round trip.
package doctor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tau-OS/kumo/internal/config"
	"github.com/tau-OS/kumo/internal/wfipc"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/socket/round-trip checks. socketOverride is the
// --socket flag value, if any.
func Run(ctx context.Context, cfg config.Loaded, socketOverride string) Report {
	checks := []Check{{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	}}

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "wayland")
	}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))

	explicit := socketOverride
	if explicit == "" {
		explicit = cfg.Config.Socket
	}
	path, err := wfipc.SocketPath(explicit)
	if err != nil {
		checks = append(checks, Check{Name: "socket", Pass: false, Message: err.Error()})
		return Report{Checks: checks}
	}
	checks = append(checks, Check{Name: "socket", Pass: true, Message: fmt.Sprintf("using %q", path)})

	socketCheck := checkSocketFile(path)
	checks = append(checks, socketCheck)
	if !socketCheck.Pass {
		return Report{Checks: checks}
	}

	checks = append(checks, checkRoundTrip(ctx, path, cfg.Config))
	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

func checkSocketFile(path string) Check {
	ok, err := wfipc.IsSocketFile(path)
	switch {
	case err != nil:
		return Check{Name: "socket.file", Pass: false, Message: err.Error()}
	case !ok:
		return Check{Name: "socket.file", Pass: false, Message: fmt.Sprintf("%s is missing or not a unix socket", path)}
	default:
		return Check{Name: "socket.file", Pass: true, Message: "unix socket present"}
	}
}

// checkRoundTrip dials a private connection and lists views. It does not use
// the shared connection so a broken probe cannot poison later commands.
func checkRoundTrip(ctx context.Context, path string, cfg config.Config) Check {
	opts := wfipc.Options{DialTimeout: cfg.DialTimeout, CallTimeout: cfg.CallTimeout, MaxFrameSize: cfg.MaxFrameSize}
	if opts.CallTimeout == 0 {
		opts.CallTimeout = cfg.DialTimeout
	}

	conn, err := wfipc.Dial(ctx, path, opts)
	if err != nil {
		return Check{Name: "ipc.list-views", Pass: false, Message: err.Error()}
	}
	defer conn.Close()

	views, err := wfipc.ListViewsInfo(ctx, conn)
	if err != nil {
		return Check{Name: "ipc.list-views", Pass: false, Message: err.Error()}
	}
	return Check{Name: "ipc.list-views", Pass: true, Message: fmt.Sprintf("compositor answered with %d view(s)", len(views))}
}

package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tau-OS/kumo/internal/cli"
	"github.com/tau-OS/kumo/internal/config"
	"github.com/tau-OS/kumo/internal/doctor"
	"github.com/tau-OS/kumo/internal/logging"
	"github.com/tau-OS/kumo/internal/version"
	"github.com/tau-OS/kumo/internal/wfipc"
)

const binaryName = "kumo-wf"

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	// EnvFile is the dotenv file read before config; empty means ./.env.
	EnvFile string
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	if err := config.LoadEnv(r.EnvFile); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logRuntime, err := logging.New(cfgLoaded.Config.LogLevel)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		if cfgLoaded.Exists {
			fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		}
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	if parsed.Command == cli.CommandDoctor {
		report := doctor.Run(ctx, cfgLoaded, parsed.SocketPath)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	}

	s := session{
		Runner: r,
		cfg:    cfgLoaded.Config,
		logger: logger,
		socket: parsed.SocketPath,
	}
	defer func() { _ = wfipc.ResetShared() }()

	switch parsed.Command {
	case cli.CommandWatch:
		count := cfgLoaded.Config.Watch.Count
		if parsed.CountSet {
			count = parsed.Count
		}
		return s.finish(parsed.Command, s.watch(ctx, count))
	case cli.CommandViews:
		return s.finish(parsed.Command, s.views(ctx))
	case cli.CommandOutput:
		return s.finish(parsed.Command, s.output(ctx, parsed.Args[0]))
	case cli.CommandConfigure:
		return s.finish(parsed.Command, s.configure(ctx, parsed.Args))
	case cli.CommandCall:
		return s.finish(parsed.Command, s.call(ctx, parsed.Args))
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// usageError marks failures caused by bad command arguments.
type usageError struct{ error }

// session carries what every IPC command needs.
type session struct {
	Runner
	cfg    config.Config
	logger *slog.Logger
	socket string
}

func (s session) finish(cmd cli.Command, err error) int {
	if err == nil {
		s.logger.Info("command complete", "command", cmd)
		return 0
	}

	s.logger.Error("command failed", "command", cmd, "error", err.Error())
	fmt.Fprintf(s.Stderr, "error: %v\n", err)

	var usage usageError
	if errors.As(err, &usage) {
		return 2
	}
	return 1
}

func (s session) conn(ctx context.Context) (*wfipc.Conn, error) {
	explicit := s.socket
	if explicit == "" {
		explicit = s.cfg.Socket
	}
	path, err := wfipc.SocketPath(explicit)
	if err != nil {
		return nil, err
	}
	return wfipc.Shared(ctx, path, wfipc.Options{
		DialTimeout:  s.cfg.DialTimeout,
		CallTimeout:  s.cfg.CallTimeout,
		MaxFrameSize: s.cfg.MaxFrameSize,
		Logger:       s.logger,
	})
}

const (
	// reconnectFloor spaces redials even when watch.interval_ms is 0.
	reconnectFloor = 250 * time.Millisecond
	// maxIdleRedials ends a reconnecting watch after this many redials in a
	// row that delivered no event.
	maxIdleRedials = 5
)

// watch prints one JSON line per event. With watch.reconnect set, a closed
// connection is redialed, paced by one limiter for the whole watch; a failed
// redial, or maxIdleRedials redials without an event, ends the watch.
func (s session) watch(ctx context.Context, count int) error {
	var polls *rate.Limiter
	if s.cfg.Watch.Interval > 0 {
		polls = rate.NewLimiter(rate.Every(s.cfg.Watch.Interval), 1)
	}
	redials := rate.NewLimiter(rate.Every(max(s.cfg.Watch.Interval, reconnectFloor)), 1)

	delivered := 0
	idle := 0
	for {
		conn, err := s.conn(ctx)
		if err != nil {
			return err
		}

		watcher := wfipc.Watcher{Limiter: polls}
		if count > 0 {
			watcher.Limit = count - delivered
		}
		before := delivered
		err = watcher.Run(ctx, conn, func(ev wfipc.Event) error {
			delivered++
			s.logger.Debug("watch event", "event", ev.Name, "bytes", len(ev.Raw))
			_, werr := fmt.Fprintln(s.Stdout, string(ev.Raw))
			return werr
		})
		if err == nil || ctx.Err() != nil {
			return nil
		}
		if !s.cfg.Watch.Reconnect || !errors.Is(err, wfipc.ErrConnectionClosed) {
			return fmt.Errorf("watch: %w", err)
		}

		if delivered > before {
			idle = 0
		} else {
			idle++
		}
		if idle > maxIdleRedials {
			return fmt.Errorf("watch: gave up after %d reconnects without an event: %w", maxIdleRedials, err)
		}

		s.logger.Warn("watch connection closed; reconnecting", "delivered", delivered, "idle_redials", idle, "error", err.Error())
		_ = wfipc.ResetShared()
		if err := redials.Wait(ctx); err != nil {
			return nil
		}
	}
}

func (s session) views(ctx context.Context) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	views, err := wfipc.ListViewsInfo(ctx, conn)
	if err != nil {
		return fmt.Errorf("list views: %w", err)
	}

	names, err := s.outputNames(ctx, conn, views)
	if err != nil {
		return err
	}

	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	for _, v := range views {
		output, ok := names[v.OutputID]
		if !ok {
			output = strconv.Itoa(v.OutputID)
		}
		g := v.Geometry
		fmt.Fprintf(s.Stdout, "id=%d app-id=%q title=%q output=%s geometry=%dx%d+%d+%d\n",
			v.ID, v.AppID, v.Title, output, g.Width, g.Height, g.X, g.Y)
	}
	return nil
}

// outputNames resolves every distinct output concurrently. The requests queue
// on the connection's single-flight guard. Outputs the compositor refuses to
// describe are left unnamed.
func (s session) outputNames(ctx context.Context, conn *wfipc.Conn, views []wfipc.View) (map[int]string, error) {
	var mu sync.Mutex
	names := make(map[int]string)
	seen := make(map[int]bool)

	g, gctx := errgroup.WithContext(ctx)
	for _, v := range views {
		id := v.OutputID
		if seen[id] {
			continue
		}
		seen[id] = true
		g.Go(func() error {
			out, err := wfipc.OutputDetails(gctx, conn, id)
			if err != nil {
				if wfipc.IsRemote(err) || errors.Is(err, wfipc.ErrMalformed) {
					s.logger.Warn("output lookup failed", "output_id", id, "error", err.Error())
					return nil
				}
				return fmt.Errorf("output %d: %w", id, err)
			}
			mu.Lock()
			names[id] = out.Name
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}

func (s session) output(ctx context.Context, rawID string) error {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return usageError{fmt.Errorf("output id must be an integer, got %q", rawID)}
	}
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	resp, err := conn.Do(ctx, wfipc.OutputInfo{ID: id})
	if err != nil {
		return fmt.Errorf("output info: %w", err)
	}
	return s.printJSON(resp)
}

func (s session) configure(ctx context.Context, args []string) error {
	cmd, err := parseConfigure(args)
	if err != nil {
		return usageError{err}
	}
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if err := wfipc.Configure(ctx, conn, cmd.ID, cmd.Geometry); err != nil {
		return fmt.Errorf("configure view: %w", err)
	}
	fmt.Fprintln(s.Stdout, "ok")
	return nil
}

func parseConfigure(args []string) (wfipc.ConfigureView, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return wfipc.ConfigureView{}, fmt.Errorf("view id must be an integer, got %q", args[0])
	}
	x, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		return wfipc.ConfigureView{}, fmt.Errorf("x must be a 32-bit integer, got %q", args[1])
	}
	y, err := strconv.ParseInt(args[2], 10, 32)
	if err != nil {
		return wfipc.ConfigureView{}, fmt.Errorf("y must be a 32-bit integer, got %q", args[2])
	}
	width, err := strconv.ParseUint(args[3], 10, 32)
	if err != nil {
		return wfipc.ConfigureView{}, fmt.Errorf("width must be an unsigned 32-bit integer, got %q", args[3])
	}
	height, err := strconv.ParseUint(args[4], 10, 32)
	if err != nil {
		return wfipc.ConfigureView{}, fmt.Errorf("height must be an unsigned 32-bit integer, got %q", args[4])
	}
	if width == 0 || height == 0 {
		return wfipc.ConfigureView{}, fmt.Errorf("width and height must be > 0, got %sx%s", args[3], args[4])
	}
	return wfipc.ConfigureView{
		ID: id,
		Geometry: wfipc.Geometry{
			X:      int32(x),
			Y:      int32(y),
			Width:  uint32(width),
			Height: uint32(height),
		},
	}, nil
}

func (s session) call(ctx context.Context, args []string) error {
	cmd := wfipc.Call{Name: args[0]}
	if len(args) == 2 {
		if err := json.Unmarshal([]byte(args[1]), &cmd.Args); err != nil {
			return usageError{fmt.Errorf("call data must be a JSON object: %w", err)}
		}
	}
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	resp, err := conn.Do(ctx, cmd)
	if err != nil {
		return fmt.Errorf("call %s: %w", cmd.Name, err)
	}
	return s.printJSON(resp)
}

func (s session) printJSON(raw json.RawMessage) error {
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	out.WriteByte('\n')
	_, err := s.Stdout.Write(out.Bytes())
	return err
}

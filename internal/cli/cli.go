package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandWatch     Command = "watch"
	CommandViews     Command = "views"
	CommandOutput    Command = "output"
	CommandConfigure Command = "configure"
	CommandCall      Command = "call"
	CommandDoctor    Command = "doctor"
	CommandVersion   Command = "version"
	CommandHelp      Command = "help"
)

// arity is the accepted positional-argument range per command.
var arity = map[Command][2]int{
	CommandWatch:     {0, 0},
	CommandViews:     {0, 0},
	CommandOutput:    {1, 1},
	CommandConfigure: {5, 5},
	CommandCall:      {1, 2},
	CommandDoctor:    {0, 0},
	CommandVersion:   {0, 0},
	CommandHelp:      {0, 0},
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	SocketPath string
	Count      int
	CountSet   bool
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	commandSeen := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config", "--socket", "--count":
			i++
			if i >= len(args) {
				return Parsed{}, fmt.Errorf("%s requires a value", arg)
			}
			if err := parsed.setFlag(arg, args[i]); err != nil {
				return Parsed{}, err
			}
		default:
			if strings.HasPrefix(arg, "-") && !isNumber(arg) {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}
			if commandSeen {
				parsed.Args = append(parsed.Args, arg)
				continue
			}

			cmd := Command(arg)
			if _, ok := arity[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}
			commandSeen = true
			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
		}
	}

	if err := parsed.validate(); err != nil {
		return Parsed{}, err
	}
	return parsed, nil
}

func (p *Parsed) setFlag(name, value string) error {
	switch name {
	case "--config":
		p.ConfigPath = value
	case "--socket":
		p.SocketPath = value
	case "--count":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("--count requires a non-negative integer, got %q", value)
		}
		p.Count = n
		p.CountSet = true
	}
	return nil
}

func (p Parsed) validate() error {
	bounds := arity[p.Command]
	if len(p.Args) < bounds[0] {
		return fmt.Errorf("%s requires %d argument(s)", p.Command, bounds[0])
	}
	if len(p.Args) > bounds[1] {
		return fmt.Errorf("unexpected arguments after command %q", p.Command)
	}
	if p.CountSet && p.Command != CommandWatch {
		return errors.New("--count only applies to watch")
	}
	return nil
}

func isNumber(arg string) bool {
	_, err := strconv.ParseInt(arg, 10, 64)
	return err == nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--socket PATH] <command> [args]

Commands:
  watch [--count N]                      Print window-rule events as they arrive
  views                                  List views and the outputs they are on
  output <id>                            Print one output description
  configure <id> <x> <y> <width> <height>
                                         Move and resize a view
  call <method> [json-data]              Send an arbitrary IPC method
  doctor                                 Run environment and socket checks
  version                                Print version information
  help                                   Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/kumo/config.jsonc)
  --socket PATH   Wayfire IPC socket (default: $WAYFIRE_SOCKET)
  --count N       Stop watch after N events (0 = forever)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}

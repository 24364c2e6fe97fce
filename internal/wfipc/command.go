package wfipc

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Wire method names understood by the compositor.
const (
	MethodWatch         = "window-rules/events/watch"
	MethodOutputInfo    = "window-rules/output-info"
	MethodListViews     = "list-views"
	MethodConfigureView = "configure-view"
)

// Command is one outbound request. Its JSON encoding is the envelope's data object.
type Command interface {
	Method() string
}

// Watch asks for the next pending window-rule event.
type Watch struct{}

func (Watch) Method() string { return MethodWatch }

// OutputInfo asks for the description of one output.
type OutputInfo struct {
	ID int `json:"id"`
}

func (OutputInfo) Method() string { return MethodOutputInfo }

// ListViews asks for every view the compositor manages.
type ListViews struct{}

func (ListViews) Method() string { return MethodListViews }

// ConfigureView moves and resizes a view.
type ConfigureView struct {
	ID       int      `json:"id"`
	Geometry Geometry `json:"geometry"`
}

func (ConfigureView) Method() string { return MethodConfigureView }

// Geometry is a view rectangle in output-layout coordinates.
type Geometry struct {
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Call is an arbitrary method with free-form data, for methods that have no
// dedicated type. A nil Args map is sent as {}.
type Call struct {
	Name string
	Args map[string]any
}

func (c Call) Method() string { return c.Name }

func (c Call) MarshalJSON() ([]byte, error) {
	if c.Args == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.Args)
}

// Envelope is the payload of every request frame.
type Envelope struct {
	Method string  `json:"method"`
	Data   Command `json:"data"`
}

// NewEnvelope wraps cmd in the {method, data} request shape.
func NewEnvelope(cmd Command) Envelope {
	return Envelope{Method: cmd.Method(), Data: cmd}
}

// ErrorValue returns the "error" member of a top-level JSON object. String
// values are unquoted; any other value is returned as its JSON text. Arrays,
// scalars, and objects without the key are not errors.
func ErrorValue(raw []byte) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &object); err != nil {
		return "", false
	}
	value, ok := object["error"]
	if !ok {
		return "", false
	}

	var text string
	if err := json.Unmarshal(value, &text); err == nil {
		return text, true
	}
	return string(bytes.TrimSpace(value)), true
}

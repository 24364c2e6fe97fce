package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

type fileConfig struct {
	Socket        *string    `json:"socket"`
	DialTimeoutMS *int       `json:"dial_timeout_ms"`
	CallTimeoutMS *int       `json:"call_timeout_ms"`
	MaxFrameBytes *uint32    `json:"max_frame_bytes"`
	LogLevel      *string    `json:"log_level"`
	Watch         *fileWatch `json:"watch"`
}

type fileWatch struct {
	Count      *int  `json:"count"`
	IntervalMS *int  `json:"interval_ms"`
	Reconnect  *bool `json:"reconnect"`
}

// Parse reads JSONC configuration content on top of base. Line and block
// comments and trailing commas are accepted; unknown keys are rejected.
func Parse(content string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		warnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, warnings, nil
	}

	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload fileConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	payload.applyTo(&cfg)

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload fileConfig) applyTo(cfg *Config) {
	if payload.Socket != nil {
		cfg.Socket = strings.TrimSpace(*payload.Socket)
	}
	if payload.DialTimeoutMS != nil {
		cfg.DialTimeout = time.Duration(*payload.DialTimeoutMS) * time.Millisecond
	}
	if payload.CallTimeoutMS != nil {
		cfg.CallTimeout = time.Duration(*payload.CallTimeoutMS) * time.Millisecond
	}
	if payload.MaxFrameBytes != nil {
		cfg.MaxFrameSize = *payload.MaxFrameBytes
	}
	if payload.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*payload.LogLevel))
	}
	if payload.Watch != nil {
		if payload.Watch.Count != nil {
			cfg.Watch.Count = *payload.Watch.Count
		}
		if payload.Watch.IntervalMS != nil {
			cfg.Watch.Interval = time.Duration(*payload.Watch.IntervalMS) * time.Millisecond
		}
		if payload.Watch.Reconnect != nil {
			cfg.Watch.Reconnect = *payload.Watch.Reconnect
		}
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}
	limit := min(int(offset), len(content))

	line, col := 1, 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

package config

import (
	"fmt"
	"strings"
)

var logLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if cfg.DialTimeout < 0 {
		return nil, fmt.Errorf("dial_timeout_ms must be >= 0")
	}
	if cfg.CallTimeout < 0 {
		return nil, fmt.Errorf("call_timeout_ms must be >= 0")
	}
	if cfg.Watch.Count < 0 {
		return nil, fmt.Errorf("watch.count must be >= 0")
	}
	if cfg.Watch.Interval < 0 {
		return nil, fmt.Errorf("watch.interval_ms must be >= 0")
	}
	if _, ok := logLevels[strings.ToLower(strings.TrimSpace(cfg.LogLevel))]; !ok {
		return nil, fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}

	if cfg.CallTimeout > 0 {
		warnings = append(warnings, Warning{
			Message: "call_timeout_ms also bounds watch polls; quiet periods longer than the timeout end the watch",
		})
	}
	if cfg.MaxFrameSize > 0 && cfg.MaxFrameSize < 1024 {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("max_frame_bytes=%d is very small; list-views replies may be rejected", cfg.MaxFrameSize),
		})
	}

	return warnings, nil
}

// Package config resolves, parses, validates, and defaults kumo configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by kumo-wf.
type Config struct {
	// Socket overrides $WAYFIRE_SOCKET when non-empty.
	Socket       string
	DialTimeout  time.Duration
	CallTimeout  time.Duration
	MaxFrameSize uint32
	Watch        WatchConfig
	LogLevel     string
}

// WatchConfig controls the event-watch loop.
type WatchConfig struct {
	Count     int
	Interval  time.Duration
	Reconnect bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

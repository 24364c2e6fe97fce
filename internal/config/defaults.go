package config

import "time"

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		DialTimeout:  2 * time.Second,
		CallTimeout:  0,
		MaxFrameSize: 64 << 20,
		Watch: WatchConfig{
			Count:     0,
			Interval:  0,
			Reconnect: false,
		},
		LogLevel: "info",
	}
}

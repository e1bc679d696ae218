package config

const (
	defaultBaseURL        = "http://localhost:8080"
	defaultRequestTimeout = 30
	defaultStateDir       = "~/.local/share/tally"
	defaultLogDir         = "~/.local/share/tally/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultLocale         = "en-US"
	defaultNtfyTimeout    = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			BaseURL:        defaultBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Display: Display{
			Locale: defaultLocale,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
	}
}

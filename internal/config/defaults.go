package config

const (
	defaultLogDir           = "~/.local/share/ytcc/logs"
	defaultStateDir         = "~/.local/share/ytcc"
	defaultBinary           = "yt-dlp"
	defaultSubLangs         = "en.*"
	defaultSocketTimeout    = 15
	defaultToolRetries      = 3
	defaultFragmentRetries  = 3
	defaultSleepRequests    = 1
	defaultMinSleepInterval = 1
	defaultMaxSleepInterval = 3
	defaultMaxAttempts      = 3
	defaultAttemptTimeout   = 120
	defaultFallbackCooldown = 5
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		YtDlp: YtDlp{
			Binary:           defaultBinary,
			SubLangs:         defaultSubLangs,
			SocketTimeout:    defaultSocketTimeout,
			ToolRetries:      defaultToolRetries,
			FragmentRetries:  defaultFragmentRetries,
			SleepRequests:    defaultSleepRequests,
			MinSleepInterval: defaultMinSleepInterval,
			MaxSleepInterval: defaultMaxSleepInterval,
		},
		Acquire: Acquire{
			MaxAttempts:      defaultMaxAttempts,
			AttemptTimeout:   defaultAttemptTimeout,
			FallbackCooldown: defaultFallbackCooldown,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

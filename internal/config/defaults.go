package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:           "info",
			DefaultProvider:    "gemini",
			MaxConcurrentTasks: 16,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Telex: TelexConfig{
			APIBase: "https://api.telex.im/v1",
		},
		Providers: map[string]ProviderConfig{
			"gemini": {
				Enabled:      true,
				APIBase:      "https://generativelanguage.googleapis.com/v1beta",
				DefaultModel: "gemini-2.5-flash",
			},
			"openai": {
				Enabled:      false,
				APIBase:      "https://api.openai.com/v1",
				DefaultModel: "gpt-4o-mini",
			},
		},
		Store: StoreConfig{
			Enabled:       false,
			DBPath:        "~/.orunmila/events.db",
			Dedup:         true,
			RetentionDays: 30,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

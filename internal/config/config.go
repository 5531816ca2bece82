package config

type Config interface {
	EnvConfig
	OAuthConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetBackendURL() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	OAuth
	Sessions
}

func New() Config {
	return mainConfig{}
}

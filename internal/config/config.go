package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	RatesConfig
	ChatConfig
	StoreConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsDev() bool
	GetLogLevel() string
	IsDebug() bool
}

type APIConfig interface {
	IsDev() bool
	GetAPIURL() string
	GetAppOrigin() string
	GetAPITimeout() time.Duration
	GetRefreshCoalescing() bool
}

type RatesConfig interface {
	GetDolarAPIURL() string
	GetExchangeHostURL() string
	GetDolarSiURL() string
	GetFallbackRate() float64
	GetRatesPerSecond() float64
}

type ChatConfig interface {
	GetHFToken() string
	GetHFModel() string
	GetInferenceURL() string
	GetChatRatePerSecond() float64
}

type StoreConfig interface {
	GetStoreBackend() string
	GetStorePath() string
	GetStoreKey() string
	GetRedisURL() string
	GetDatabaseURL() string
	GetSessionNamespace() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	API
	Rates
	Chat
	Store
	Cors
}

func New() Config {
	return mainConfig{}
}

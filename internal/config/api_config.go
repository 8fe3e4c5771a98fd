package config

import (
	"strconv"
	"time"
)

const (
	apiURLVar          = "API_URL"
	appOriginVar       = "APP_ORIGIN"
	apiTimeoutVar      = "API_TIMEOUT"
	refreshCoalesceVar = "REFRESH_COALESCING"

	defaultAPITimeout = 30 * time.Second
)

type API struct {
	EnvVars
}

var _ APIConfig = API{}

// GetAPIURL is the absolute backend URL used outside development.
func (API) GetAPIURL() string {
	return GetEnv(apiURLVar, "")
}

// GetAppOrigin is the origin hosting the /api proxy during development.
func (API) GetAppOrigin() string {
	return GetEnv(appOriginVar, "http://localhost:3000")
}

// GetAPITimeout reads API_TIMEOUT in milliseconds.
func (API) GetAPITimeout() time.Duration {
	ms, err := strconv.Atoi(GetEnv(apiTimeoutVar, ""))
	if err != nil || ms <= 0 {
		return defaultAPITimeout
	}
	return time.Duration(ms) * time.Millisecond
}

func (API) GetRefreshCoalescing() bool {
	return GetBool(refreshCoalesceVar, false)
}

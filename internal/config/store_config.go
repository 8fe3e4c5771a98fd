package config

import (
	"os"
	"path/filepath"
)

type Store struct{}

var _ StoreConfig = Store{}

// GetStoreBackend is one of memory, file, redis or postgres.
func (Store) GetStoreBackend() string {
	return GetEnv("STORE_BACKEND", "file")
}

func (Store) GetStorePath() string {
	if p := os.Getenv("STORE_PATH"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "dolarito-session.json")
	}
	return filepath.Join(dir, "dolarito", "session.json")
}

// GetStoreKey is the passphrase sealing the file store. Empty leaves it in plain JSON.
func (Store) GetStoreKey() string {
	return GetEnv("STORE_KEY", "")
}

func (Store) GetRedisURL() string {
	return GetEnv("REDIS_URL", "")
}

func (Store) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}

func (Store) GetSessionNamespace() string {
	return GetEnv("SESSION_NAMESPACE", "default")
}

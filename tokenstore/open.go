package tokenstore

import "strings"

// Backend names accepted by STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// NormalizeBackend maps aliases onto the backend names.
func NormalizeBackend(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "file", "local", "localstorage":
		return BackendFile
	case "mem", "memory":
		return BackendMemory
	case "redis":
		return BackendRedis
	case "pg", "postgres", "postgresql":
		return BackendPostgres
	}
	return strings.ToLower(name)
}

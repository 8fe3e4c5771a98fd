package server

// Route path constants
const (
	// Chat proxy
	RouteChat = "/api/chat"

	// Operations
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)

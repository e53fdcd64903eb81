package api

// Config is the API server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// RateLimit is the number of chat messages per second allowed per client
	// IP. Zero disables rate limiting.
	RateLimit float64

	// Burst is the number of chat messages a client may send at once.
	Burst int

	// Version is reported by the MCP endpoint.
	Version string
}

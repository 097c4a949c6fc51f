// Package timeouts defines shared timeout constants used across the
// service. Centralizing these values keeps the durations discoverable
// and prevents drift between the HTTP surface and the stream handlers.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// SSEHeartbeat is the interval between keep-alive comments on an idle
// event stream, keeping proxies from closing the connection.
const SSEHeartbeat = 30 * time.Second

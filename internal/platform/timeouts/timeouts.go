// Package timeouts defines shared timeout constants used across services.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// ImportLock bounds how long a package may sit in the importing state
// before another caller may reclaim it. A crashed worker must not wedge
// a package in importing forever.
const ImportLock = 5 * time.Minute

// ImportRequest caps a single import attempt end to end, including
// decode and the transactional apply.
const ImportRequest = 2 * time.Minute

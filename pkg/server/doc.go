// Package server provides the HTTP front end for the clinical inference
// gateway.
//
// This package ties the gateway pipeline to the transport layer: it decodes
// JSON request bodies into gateway requests, maps pipeline rejections to
// HTTP status codes, and manages server lifecycle including start, graceful
// shutdown, and health checks.
//
// # Routes
//
//   - POST /v1/translate  translate medical text between English and a
//     supported language
//   - POST /v1/triage     produce a severity assessment from a symptom
//     description
//   - GET  /health        liveness probe
//   - GET  /metrics       Prometheus metrics (when enabled)
//
// # Status Mapping
//
// Gateway rejections carry a kind that determines the HTTP status:
//
//   - validation_error      → 400
//   - rate_limit_exceeded   → 429 with a Retry-After header
//   - generation_failed     → 502
//
// Any other error is an internal fault and maps to 500 with a generic body.
//
// # Graceful Shutdown
//
// Start blocks until the context is cancelled, a SIGTERM or SIGINT arrives,
// or the listener fails. Shutdown stops accepting new connections and waits
// for in-flight requests up to the server's write timeout.
package server

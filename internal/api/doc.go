// Package api implements the daemon's HTTP REST API and WebSocket server.
//
// This package provides:
//   - REST endpoints for bridge listing and removal, on-demand discovery
//     scans, and dispatch telemetry
//   - WebSocket hub broadcasting resource change events from the monitor
//   - Middleware stack (request ID, logging, recovery, body size limit)
//
// # Architecture
//
// The API server sits between clients (CLI, dashboards, automations) and
// the bridge repository, discovery scanner, and telemetry store. Resource
// changes are observed by the monitor, which broadcasts them through the
// hub; the API itself never talks to a bridge directly.
//
// # Security
//
// Bridge application keys and cloud tokens never appear in responses.
// The server binds to loopback by default; exposing it further is an
// operator decision made in configuration.
//
// # Graceful Degradation
//
// Discovery and telemetry are optional. Their endpoints answer 503 when
// the backing component is disabled, so callers can tell "not collecting"
// apart from "no data".
package api

// Package server implements the HTTP gateway that fronts the prediction
// service.
//
// The gateway exposes three routes:
//
//   - POST /api/index is reverse-proxied to the upstream prediction server's
//     root path. Every proxied request carries an X-Request-ID header.
//   - GET /health reports the gateway status together with the upstream's
//     own /health document and the host's CPU and memory load.
//   - GET /metrics serves Prometheus metrics from a registry private to the
//     server instance.
//
// All routes pass through SecurityMiddleware (security headers, CORS, request
// body limit) and the request metrics middleware.
package server

// Package middleware contains HTTP middleware for the Fiber application.
//
// It provides cross-cutting concerns that sit between the request and the handler.
//
// # Components
//
//   - Auth: Implements API key validation to protect the admin endpoints.
//   - RequestID: Generates a unique request id for every incoming request,
//     injecting it into the context and response headers so the log lines of
//     one request correlate.
//
// These middleware components are designed to be registered globally or per-route group
// in the main application setup.
package middleware

// Package logger provides structured logging based on Zap.
//
// Configuration covers the minimum level (debug selects the development
// encoder) and the encoding (json for production, console for local runs).
//
// The WithRequestID helper extracts the request id the admin server's
// middleware stored in the Fiber context and attaches it to the log entry,
// so all logs related to one request can be correlated.
package logger

// Package httputil provides small helpers for writing JSON API responses
// with a consistent error envelope across all handlers.
package httputil

// Package middleware provides HTTP middleware for the file forge service.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Response compression (gzip, deflate)
//   - Prometheus request metrics
//   - CORS headers for the configured frontend origin
//   - Upload body size limiting
package middleware

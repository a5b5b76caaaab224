// Package observability builds the service logger and its Prometheus metrics.
package observability

// Package metrics provides Prometheus instrumentation for the file forge
// service.
//
// All metrics are registered via promauto at package load and share the
// file_forge_ prefix. They cover HTTP traffic, transformation jobs, ZIP
// fan-out progress, external tool subprocesses, URL downloads, scratch
// directory usage, and memory pressure.
//
// Call InitializeMetrics once at startup to pre-populate every expected
// label combination so the first scrape exports the full series set.
package metrics

// Package archive implements the ZIP fan-out/fan-in pattern shared by the
// batch endpoints.
//
// Fan-out: extract an uploaded archive, run a per-file transform over the
// entries with a bounded worker pool, and collect successes while skipping
// entries that fail. Fan-in: bundle the surviving outputs back into a single
// result ZIP. A request only fails outright when every entry fails.
package archive

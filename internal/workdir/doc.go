// Package workdir manages per-request scratch directories.
//
// Every transformation request gets its own directory under the configured
// work root. All intermediate files (the upload, extracted archive entries,
// converter outputs) live there and the whole directory is removed when the
// response has been written. Nothing is ever written outside a scratch
// directory.
package workdir

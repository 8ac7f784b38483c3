// Package filetypes provides shared type definitions and dispatch tables for
// file handling across the file forge service.
//
// It defines extension sets for each conversion pipeline, MIME type lookup,
// upload filename sanitization, and content sniffing via magic bytes so that
// responses describe what was actually produced rather than trusting the
// uploaded name.
package filetypes

// Package pdfops implements the PDF operations: password protection and
// removal, per-page watermark stamping, image-to-PDF conversion, page
// rasterization and text extraction, and ghostscript recompression.
//
// Structural PDF work (encryption, watermarks, image import) goes through
// pdfcpu, which is pure Go. Rasterization and text extraction use go-fitz
// (MuPDF). Recompression shells out to ghostscript since pdfcpu does not
// re-encode embedded image streams.
package pdfops

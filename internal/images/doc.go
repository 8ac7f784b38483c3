// Package images implements the image processing operations: recompression,
// format conversion, Lanczos upscaling, watermark composition, placeholder
// rendering, and background removal.
//
// Where libvips is available (see InitVips) the heavy encode/decode paths go
// through govips for decode-time shrinking and fast encoders. Every
// operation that can be expressed in pure Go also carries an imaging-based
// fallback so the service degrades instead of failing when libvips is
// missing; WebP encoding is the exception and requires libvips.
package images

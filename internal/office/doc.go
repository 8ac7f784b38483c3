// Package office handles office document conversion and repacking: document
// to PDF and PDF to Word through headless LibreOffice, picture-deck PPTX
// generation, and recompression of media embedded in OOXML containers.
package office

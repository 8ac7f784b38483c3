// Package fetch implements batch media downloading through yt-dlp, plus URL
// extraction from uploaded link lists (plain text, PDF and docx).
//
// Downloads run on a bounded worker pool. Each URL gets its own staging
// directory so yt-dlp output templates never collide; finished files are
// moved into the shared output directory with duplicate-name counters.
package fetch

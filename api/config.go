// Package api is a development stand-in for the document service: a fiber
// server that answers document queries from a local directory of PDFs,
// speaking the same wire protocol as the real service.
package api

import (
	"log/slog"
	"time"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// DocsDir holds the served PDFs. Uploads are written here.
	DocsDir string

	// Token, when set, is required as a bearer token on /api routes.
	Token string

	// ChunkDelay paces streamed answer chunks, for demos.
	ChunkDelay time.Duration

	// MaxSources caps the source records of one answer. Defaults to 3.
	MaxSources int

	// Extract overrides PDF text extraction.
	Extract Extractor

	Logger *slog.Logger
}

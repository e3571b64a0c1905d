// Package backup provides zip export and import of a user's reading data.
//
// An export is a zip archive of JSONL files (articles.jsonl, tags.jsonl,
// highlights.jsonl) plus a manifest.json describing the contents. Imports
// are additive: records already present are skipped, never overwritten.
package backup

import (
	"errors"
	"time"
)

// FormatVersion is the export format version. Increment major on breaking changes.
const FormatVersion = "1.0"

// Archive entry names.
const (
	manifestFile   = "manifest.json"
	articlesFile   = "articles.jsonl"
	tagsFile       = "tags.jsonl"
	highlightsFile = "highlights.jsonl"
)

var (
	// ErrInvalidArchive indicates the uploaded data is not a readable zip.
	ErrInvalidArchive = errors.New("invalid archive")

	// ErrInvalidManifest indicates the manifest is missing or malformed.
	ErrInvalidManifest = errors.New("invalid or missing manifest")

	// ErrVersionMismatch indicates the export version is not supported.
	ErrVersionMismatch = errors.New("export version not supported")
)

// Manifest describes export contents and metadata.
type Manifest struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`

	ServerName string `json:"server_name"`

	Counts EntityCounts `json:"counts"`
}

// EntityCounts tracks record counts for validation and progress reporting.
type EntityCounts struct {
	Articles   int `json:"articles"`
	Tags       int `json:"tags"`
	Highlights int `json:"highlights"`
}

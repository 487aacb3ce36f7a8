package epubfix

import "errors"

// Sentinel errors returned by the epubfix package.
var (
	// ErrInvalidArchive indicates the input is not a readable ZIP-based
	// ePub container (for example an unreadable archive or unsafe entry paths).
	ErrInvalidArchive = errors.New("epubfix: invalid ePub archive")

	// ErrFileNotFound indicates the requested file does not exist
	// in the working tree.
	ErrFileNotFound = errors.New("epubfix: file not found in working tree")
)

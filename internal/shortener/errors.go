package shortener

import "errors"

var (
	// ErrNotFound indicates the requested link does not exist.
	ErrNotFound = errors.New("link not found")

	// ErrInvalidCode indicates a short code that violates the allowed
	// alphabet or length constraints.
	ErrInvalidCode = errors.New("invalid short code")

	// ErrCodeTaken indicates the short code is already claimed by a live
	// link. The caller must pick a different custom code or fall back to
	// allocation.
	ErrCodeTaken = errors.New("short code already in use")

	// ErrCorruptArchive indicates an archived payload that fails to
	// decompress on read.
	ErrCorruptArchive = errors.New("archived link payload is corrupt")
)

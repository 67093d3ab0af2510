package shortener

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

// CompressedLink is the archival form of a Link whose body has been
// compacted. Once the archive exists the live Link row is deleted; a code
// that resolves to an archive is inactive for redirect purposes.
type CompressedLink struct {
	ID           uuid.UUID
	LinkID       uuid.UUID // identity of the original link
	Code         Code
	Body         []byte // gzip-compressed original URL text
	CreatedAt    time.Time
	ExpiresAt    *time.Time
	TotalClicks  int // click count at the time of compression
	CompressedAt time.Time
}

// NewCompressedLink archives a live link, compressing its body losslessly.
func NewCompressedLink(link *Link, now time.Time) (*CompressedLink, error) {
	body, err := compressBody(link.OriginalURL)
	if err != nil {
		return nil, fmt.Errorf("compress link body: %w", err)
	}

	return &CompressedLink{
		ID:           uuid.New(),
		LinkID:       link.ID,
		Code:         link.Code,
		Body:         body,
		CreatedAt:    link.CreatedAt,
		ExpiresAt:    link.ExpiresAt,
		TotalClicks:  link.ClickCount,
		CompressedAt: now,
	}, nil
}

// Recover reconstructs the original URL text exactly. A payload that fails
// to decompress surfaces ErrCorruptArchive rather than empty data.
func (c *CompressedLink) Recover() (string, error) {
	r, err := gzip.NewReader(bytes.NewReader(c.Body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCorruptArchive, err)
	}
	defer r.Close()

	original, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCorruptArchive, err)
	}

	return string(original), nil
}

func compressBody(url string) ([]byte, error) {
	var buf bytes.Buffer

	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(url)); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

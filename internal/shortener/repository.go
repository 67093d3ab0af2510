package shortener

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LinkStore defines storage operations for live links.
type LinkStore interface {
	// CreateLink inserts a new link. Returns ErrCodeTaken if the code is
	// already claimed.
	CreateLink(ctx context.Context, link *Link) error

	// LinkByCode returns the live link with the given code, or ErrNotFound.
	LinkByCode(ctx context.Context, code Code) (*Link, error)

	// LinkByID returns the live link with the given identity, or ErrNotFound.
	LinkByID(ctx context.Context, id uuid.UUID) (*Link, error)

	// CodeInUse reports whether a live link already claims the code.
	CodeInUse(ctx context.Context, code Code) (bool, error)

	// UpdateLink persists mutations to an existing link.
	UpdateLink(ctx context.Context, link *Link) error

	// IncrementClicks bumps the link's click counter by one.
	IncrementClicks(ctx context.Context, id uuid.UUID) error

	// DeleteLinks removes the links with the given identities.
	DeleteLinks(ctx context.Context, ids []uuid.UUID) error

	// ExpiredLinks returns all links whose expiry is at or before now.
	ExpiredLinks(ctx context.Context, now time.Time) ([]*Link, error)

	// DormantLinks returns links created before the cutoff that have no
	// click event after the cutoff.
	DormantLinks(ctx context.Context, cutoff time.Time) ([]*Link, error)

	// CountLinks returns the number of live links.
	CountLinks(ctx context.Context) (int64, error)

	// CountExpiredLinks returns the number of live links already expired at now.
	CountExpiredLinks(ctx context.Context, now time.Time) (int64, error)
}

// ClickStore defines storage operations for the raw click log.
type ClickStore interface {
	// AppendClick records one redirect hit.
	AppendClick(ctx context.Context, event *ClickEvent) error

	// LinkIDsWithClicksBefore returns the identities of links that have at
	// least one click event before the cutoff.
	LinkIDsWithClicksBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)

	// ClicksBefore returns a link's click events before the cutoff.
	ClicksBefore(ctx context.Context, linkID uuid.UUID, cutoff time.Time) ([]*ClickEvent, error)

	// DeleteClicksBefore removes a link's click events before the cutoff
	// and returns the number removed.
	DeleteClicksBefore(ctx context.Context, linkID uuid.UUID, cutoff time.Time) (int64, error)

	// CountClicks returns the number of raw click events.
	CountClicks(ctx context.Context) (int64, error)
}

// SummaryStore defines storage operations for aggregated click summaries.
type SummaryStore interface {
	CreateSummary(ctx context.Context, summary *ClickSummary) error
	CountSummaries(ctx context.Context) (int64, error)
}

// ArchiveStore defines storage operations for compressed link archives.
type ArchiveStore interface {
	CreateArchive(ctx context.Context, archive *CompressedLink) error

	// ArchiveByCode returns the archive holding the given code, or ErrNotFound.
	ArchiveByCode(ctx context.Context, code Code) (*CompressedLink, error)

	CountArchives(ctx context.Context) (int64, error)
}

// Store is the full persistence contract consumed by the core. WithinTx
// runs fn against a transactional view of the store; if fn returns an
// error every write made inside it is rolled back.
type Store interface {
	LinkStore
	ClickStore
	SummaryStore
	ArchiveStore

	WithinTx(ctx context.Context, fn func(Store) error) error
}

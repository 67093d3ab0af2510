package store

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/linkcycle/internal/shortener"
)

// memState holds the raw entity maps. Entities are stored by value so
// callers never alias internal state.
type memState struct {
	links        map[uuid.UUID]shortener.Link
	codes        map[shortener.Code]uuid.UUID
	clicks       map[uuid.UUID]shortener.ClickEvent
	summaries    map[uuid.UUID]shortener.ClickSummary
	archives     map[uuid.UUID]shortener.CompressedLink
	archiveCodes map[shortener.Code]uuid.UUID
}

func newMemState() memState {
	return memState{
		links:        make(map[uuid.UUID]shortener.Link),
		codes:        make(map[shortener.Code]uuid.UUID),
		clicks:       make(map[uuid.UUID]shortener.ClickEvent),
		summaries:    make(map[uuid.UUID]shortener.ClickSummary),
		archives:     make(map[uuid.UUID]shortener.CompressedLink),
		archiveCodes: make(map[shortener.Code]uuid.UUID),
	}
}

func (s *memState) clone() memState {
	c := newMemState()

	for k, v := range s.links {
		c.links[k] = v
	}

	for k, v := range s.codes {
		c.codes[k] = v
	}

	for k, v := range s.clicks {
		c.clicks[k] = v
	}

	for k, v := range s.summaries {
		c.summaries[k] = v
	}

	for k, v := range s.archives {
		c.archives[k] = v
	}

	for k, v := range s.archiveCodes {
		c.archiveCodes[k] = v
	}

	return c
}

func (s *memState) createLink(link *shortener.Link) error {
	if _, taken := s.codes[link.Code]; taken {
		return shortener.ErrCodeTaken
	}

	s.links[link.ID] = *link
	s.codes[link.Code] = link.ID

	return nil
}

func (s *memState) linkByCode(code shortener.Code) (*shortener.Link, error) {
	id, ok := s.codes[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return s.linkByID(id)
}

func (s *memState) linkByID(id uuid.UUID) (*shortener.Link, error) {
	link, ok := s.links[id]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return &link, nil
}

func (s *memState) updateLink(link *shortener.Link) error {
	if _, ok := s.links[link.ID]; !ok {
		return shortener.ErrNotFound
	}

	s.links[link.ID] = *link

	return nil
}

func (s *memState) incrementClicks(id uuid.UUID) error {
	link, ok := s.links[id]
	if !ok {
		return shortener.ErrNotFound
	}

	link.ClickCount++
	s.links[id] = link

	return nil
}

func (s *memState) deleteLinks(ids []uuid.UUID) {
	for _, id := range ids {
		link, ok := s.links[id]
		if !ok {
			continue
		}

		delete(s.codes, link.Code)
		delete(s.links, id)
	}
}

func (s *memState) expiredLinks(now time.Time) []*shortener.Link {
	var out []*shortener.Link

	for _, link := range s.links {
		if link.ExpiresAt != nil && !link.ExpiresAt.After(now) {
			l := link
			out = append(out, &l)
		}
	}

	sortLinks(out)

	return out
}

func (s *memState) dormantLinks(cutoff time.Time) []*shortener.Link {
	lastClick := make(map[uuid.UUID]time.Time, len(s.clicks))

	for _, click := range s.clicks {
		if click.ClickedAt.After(lastClick[click.LinkID]) {
			lastClick[click.LinkID] = click.ClickedAt
		}
	}

	var out []*shortener.Link

	for _, link := range s.links {
		if !link.CreatedAt.Before(cutoff) {
			continue
		}

		if last, ok := lastClick[link.ID]; ok && last.After(cutoff) {
			continue
		}

		l := link
		out = append(out, &l)
	}

	sortLinks(out)

	return out
}

func (s *memState) appendClick(event *shortener.ClickEvent) {
	s.clicks[event.ID] = *event
}

func (s *memState) linkIDsWithClicksBefore(cutoff time.Time) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})

	var out []uuid.UUID

	for _, click := range s.clicks {
		if !click.ClickedAt.Before(cutoff) {
			continue
		}

		if _, ok := seen[click.LinkID]; ok {
			continue
		}

		seen[click.LinkID] = struct{}{}
		out = append(out, click.LinkID)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})

	return out
}

func (s *memState) clicksBefore(linkID uuid.UUID, cutoff time.Time) []*shortener.ClickEvent {
	var out []*shortener.ClickEvent

	for _, click := range s.clicks {
		if click.LinkID == linkID && click.ClickedAt.Before(cutoff) {
			c := click
			out = append(out, &c)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ClickedAt.Before(out[j].ClickedAt)
	})

	return out
}

func (s *memState) deleteClicksBefore(linkID uuid.UUID, cutoff time.Time) int64 {
	var removed int64

	for id, click := range s.clicks {
		if click.LinkID == linkID && click.ClickedAt.Before(cutoff) {
			delete(s.clicks, id)

			removed++
		}
	}

	return removed
}

func (s *memState) createSummary(summary *shortener.ClickSummary) {
	s.summaries[summary.ID] = *summary
}

func (s *memState) createArchive(archive *shortener.CompressedLink) error {
	s.archives[archive.ID] = *archive
	s.archiveCodes[archive.Code] = archive.ID

	return nil
}

func (s *memState) archiveByCode(code shortener.Code) (*shortener.CompressedLink, error) {
	id, ok := s.archiveCodes[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	archive := s.archives[id]

	return &archive, nil
}

func sortLinks(links []*shortener.Link) {
	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.Before(links[j].CreatedAt)
	})
}

// memTx is the unlocked transactional view handed to WithinTx functions.
// The MemoryStore holds its write lock for the duration of the
// transaction, so no additional locking is needed here.
type memTx struct {
	state *memState
}

func (t *memTx) CreateLink(_ context.Context, link *shortener.Link) error {
	return t.state.createLink(link)
}

func (t *memTx) LinkByCode(_ context.Context, code shortener.Code) (*shortener.Link, error) {
	return t.state.linkByCode(code)
}

func (t *memTx) LinkByID(_ context.Context, id uuid.UUID) (*shortener.Link, error) {
	return t.state.linkByID(id)
}

func (t *memTx) CodeInUse(_ context.Context, code shortener.Code) (bool, error) {
	_, ok := t.state.codes[code]

	return ok, nil
}

func (t *memTx) UpdateLink(_ context.Context, link *shortener.Link) error {
	return t.state.updateLink(link)
}

func (t *memTx) IncrementClicks(_ context.Context, id uuid.UUID) error {
	return t.state.incrementClicks(id)
}

func (t *memTx) DeleteLinks(_ context.Context, ids []uuid.UUID) error {
	t.state.deleteLinks(ids)

	return nil
}

func (t *memTx) ExpiredLinks(_ context.Context, now time.Time) ([]*shortener.Link, error) {
	return t.state.expiredLinks(now), nil
}

func (t *memTx) DormantLinks(_ context.Context, cutoff time.Time) ([]*shortener.Link, error) {
	return t.state.dormantLinks(cutoff), nil
}

func (t *memTx) CountLinks(_ context.Context) (int64, error) {
	return int64(len(t.state.links)), nil
}

func (t *memTx) CountExpiredLinks(_ context.Context, now time.Time) (int64, error) {
	return int64(len(t.state.expiredLinks(now))), nil
}

func (t *memTx) AppendClick(_ context.Context, event *shortener.ClickEvent) error {
	t.state.appendClick(event)

	return nil
}

func (t *memTx) LinkIDsWithClicksBefore(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	return t.state.linkIDsWithClicksBefore(cutoff), nil
}

func (t *memTx) ClicksBefore(_ context.Context, linkID uuid.UUID, cutoff time.Time) ([]*shortener.ClickEvent, error) {
	return t.state.clicksBefore(linkID, cutoff), nil
}

func (t *memTx) DeleteClicksBefore(_ context.Context, linkID uuid.UUID, cutoff time.Time) (int64, error) {
	return t.state.deleteClicksBefore(linkID, cutoff), nil
}

func (t *memTx) CountClicks(_ context.Context) (int64, error) {
	return int64(len(t.state.clicks)), nil
}

func (t *memTx) CreateSummary(_ context.Context, summary *shortener.ClickSummary) error {
	t.state.createSummary(summary)

	return nil
}

func (t *memTx) CountSummaries(_ context.Context) (int64, error) {
	return int64(len(t.state.summaries)), nil
}

func (t *memTx) CreateArchive(_ context.Context, archive *shortener.CompressedLink) error {
	return t.state.createArchive(archive)
}

func (t *memTx) ArchiveByCode(_ context.Context, code shortener.Code) (*shortener.CompressedLink, error) {
	return t.state.archiveByCode(code)
}

func (t *memTx) CountArchives(_ context.Context) (int64, error) {
	return int64(len(t.state.archives)), nil
}

func (t *memTx) WithinTx(_ context.Context, fn func(shortener.Store) error) error {
	// Already inside the store lock; nested units of work just run inline.
	return fn(t)
}

// Compile-time check.
var _ shortener.Store = (*memTx)(nil)

package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/linkcycle/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Store, used in
// tests and for local development. WithinTx snapshots the state and
// restores it when the transactional function fails, so batch atomicity
// holds just like in the SQL store.
type MemoryStore struct {
	mu    sync.RWMutex
	state memState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

func (m *MemoryStore) CreateLink(_ context.Context, link *shortener.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.createLink(link)
}

func (m *MemoryStore) LinkByCode(_ context.Context, code shortener.Code) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.linkByCode(code)
}

func (m *MemoryStore) LinkByID(_ context.Context, id uuid.UUID) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.linkByID(id)
}

func (m *MemoryStore) CodeInUse(_ context.Context, code shortener.Code) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.state.codes[code]

	return ok, nil
}

func (m *MemoryStore) UpdateLink(_ context.Context, link *shortener.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.updateLink(link)
}

func (m *MemoryStore) IncrementClicks(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.incrementClicks(id)
}

func (m *MemoryStore) DeleteLinks(_ context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.deleteLinks(ids)

	return nil
}

func (m *MemoryStore) ExpiredLinks(_ context.Context, now time.Time) ([]*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.expiredLinks(now), nil
}

func (m *MemoryStore) DormantLinks(_ context.Context, cutoff time.Time) ([]*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.dormantLinks(cutoff), nil
}

func (m *MemoryStore) CountLinks(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.state.links)), nil
}

func (m *MemoryStore) CountExpiredLinks(_ context.Context, now time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.state.expiredLinks(now))), nil
}

func (m *MemoryStore) AppendClick(_ context.Context, event *shortener.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.appendClick(event)

	return nil
}

func (m *MemoryStore) LinkIDsWithClicksBefore(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.linkIDsWithClicksBefore(cutoff), nil
}

func (m *MemoryStore) ClicksBefore(_ context.Context, linkID uuid.UUID, cutoff time.Time) ([]*shortener.ClickEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.clicksBefore(linkID, cutoff), nil
}

func (m *MemoryStore) DeleteClicksBefore(_ context.Context, linkID uuid.UUID, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.deleteClicksBefore(linkID, cutoff), nil
}

func (m *MemoryStore) CountClicks(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.state.clicks)), nil
}

func (m *MemoryStore) CreateSummary(_ context.Context, summary *shortener.ClickSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.createSummary(summary)

	return nil
}

func (m *MemoryStore) CountSummaries(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.state.summaries)), nil
}

func (m *MemoryStore) CreateArchive(_ context.Context, archive *shortener.CompressedLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.createArchive(archive)
}

func (m *MemoryStore) ArchiveByCode(_ context.Context, code shortener.Code) (*shortener.CompressedLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.archiveByCode(code)
}

func (m *MemoryStore) CountArchives(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.state.archives)), nil
}

// WithinTx runs fn against an unlocked view of the state while holding the
// write lock. The state is restored from a snapshot when fn fails.
func (m *MemoryStore) WithinTx(_ context.Context, fn func(shortener.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()

	if err := fn(&memTx{state: &m.state}); err != nil {
		m.state = snapshot

		return err
	}

	return nil
}

// Summaries returns a copy of all stored summaries; test helper.
func (m *MemoryStore) Summaries() []shortener.ClickSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]shortener.ClickSummary, 0, len(m.state.summaries))
	for _, s := range m.state.summaries {
		out = append(out, s)
	}

	return out
}

// Archives returns a copy of all stored archives; test helper.
func (m *MemoryStore) Archives() []shortener.CompressedLink {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]shortener.CompressedLink, 0, len(m.state.archives))
	for _, a := range m.state.archives {
		out = append(out, a)
	}

	return out
}

// Compile-time check.
var _ shortener.Store = (*MemoryStore)(nil)

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/linkcycle/internal/shortener"
)

// pgQuerier is the subset of pgx operations shared by *pgxpool.Pool and
// pgx.Tx, letting PostgresStore run the same queries inside and outside
// a transaction.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore is a PostgreSQL implementation of shortener.Store.
type PostgresStore struct {
	db pgQuerier
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

// WithinTx runs fn inside a database transaction. Nested calls open a
// savepoint, so an inner failure rolls back only the inner writes.
func (p *PostgresStore) WithinTx(ctx context.Context, fn func(shortener.Store) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&PostgresStore{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (p *PostgresStore) CreateLink(ctx context.Context, link *shortener.Link) error {
	query := `
		INSERT INTO links (id, code, original_url, created_at, expires_at, click_count, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO NOTHING
	`

	tag, err := p.db.Exec(ctx, query,
		link.ID,
		string(link.Code),
		link.OriginalURL,
		link.CreatedAt,
		link.ExpiresAt,
		link.ClickCount,
		link.Active,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrCodeTaken
	}

	return nil
}

const linkColumns = `id, code, original_url, created_at, expires_at, click_count, active`

func (p *PostgresStore) LinkByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE code = $1`

	return p.scanLink(p.db.QueryRow(ctx, query, string(code)))
}

func (p *PostgresStore) LinkByID(ctx context.Context, id uuid.UUID) (*shortener.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1`

	return p.scanLink(p.db.QueryRow(ctx, query, id))
}

func (p *PostgresStore) CodeInUse(ctx context.Context, code shortener.Code) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM links WHERE code = $1)`

	var inUse bool
	if err := p.db.QueryRow(ctx, query, string(code)).Scan(&inUse); err != nil {
		return false, err
	}

	return inUse, nil
}

func (p *PostgresStore) UpdateLink(ctx context.Context, link *shortener.Link) error {
	query := `
		UPDATE links
		SET original_url = $2, expires_at = $3, click_count = $4, active = $5
		WHERE id = $1
	`

	tag, err := p.db.Exec(ctx, query,
		link.ID,
		link.OriginalURL,
		link.ExpiresAt,
		link.ClickCount,
		link.Active,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) IncrementClicks(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE links SET click_count = click_count + 1 WHERE id = $1`

	tag, err := p.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) DeleteLinks(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := `DELETE FROM links WHERE id = ANY($1)`

	_, err := p.db.Exec(ctx, query, ids)

	return err
}

func (p *PostgresStore) ExpiredLinks(ctx context.Context, now time.Time) ([]*shortener.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE expires_at IS NOT NULL AND expires_at <= $1
		ORDER BY created_at, code
	`

	rows, err := p.db.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}

	return p.collectLinks(rows)
}

func (p *PostgresStore) DormantLinks(ctx context.Context, cutoff time.Time) ([]*shortener.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links l
		WHERE l.created_at < $1
		  AND NOT EXISTS (
			SELECT 1 FROM click_events c
			WHERE c.link_id = l.id AND c.clicked_at > $1
		  )
		ORDER BY l.created_at, l.code
	`

	rows, err := p.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}

	return p.collectLinks(rows)
}

func (p *PostgresStore) CountLinks(ctx context.Context) (int64, error) {
	return p.count(ctx, `SELECT COUNT(*) FROM links`)
}

func (p *PostgresStore) CountExpiredLinks(ctx context.Context, now time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM links WHERE expires_at IS NOT NULL AND expires_at <= $1`

	return p.count(ctx, query, now)
}

func (p *PostgresStore) AppendClick(ctx context.Context, event *shortener.ClickEvent) error {
	query := `
		INSERT INTO click_events (id, link_id, clicked_at, user_agent, client_ip, referrer)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := p.db.Exec(ctx, query,
		event.ID,
		event.LinkID,
		event.ClickedAt,
		event.UserAgent,
		event.ClientIP,
		event.Referrer,
	)

	return err
}

func (p *PostgresStore) LinkIDsWithClicksBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT link_id
		FROM click_events
		WHERE clicked_at < $1
		ORDER BY link_id
	`

	rows, err := p.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (p *PostgresStore) ClicksBefore(
	ctx context.Context, linkID uuid.UUID, cutoff time.Time,
) ([]*shortener.ClickEvent, error) {
	query := `
		SELECT id, link_id, clicked_at, user_agent, client_ip, referrer
		FROM click_events
		WHERE link_id = $1 AND clicked_at < $2
		ORDER BY clicked_at, id
	`

	rows, err := p.db.Query(ctx, query, linkID, cutoff)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*shortener.ClickEvent, error) {
		var event shortener.ClickEvent

		err := row.Scan(
			&event.ID,
			&event.LinkID,
			&event.ClickedAt,
			&event.UserAgent,
			&event.ClientIP,
			&event.Referrer,
		)

		return &event, err
	})
}

func (p *PostgresStore) DeleteClicksBefore(
	ctx context.Context, linkID uuid.UUID, cutoff time.Time,
) (int64, error) {
	query := `DELETE FROM click_events WHERE link_id = $1 AND clicked_at < $2`

	tag, err := p.db.Exec(ctx, query, linkID, cutoff)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (p *PostgresStore) CountClicks(ctx context.Context) (int64, error) {
	return p.count(ctx, `SELECT COUNT(*) FROM click_events`)
}

func (p *PostgresStore) CreateSummary(ctx context.Context, summary *shortener.ClickSummary) error {
	query := `
		INSERT INTO click_summaries
			(id, link_id, period_start, period_end, click_count,
			 user_agents, client_ips, referrers, compacted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := p.db.Exec(ctx, query,
		summary.ID,
		summary.LinkID,
		summary.PeriodStart,
		summary.PeriodEnd,
		summary.ClickCount,
		summary.UserAgents,
		summary.ClientIPs,
		summary.Referrers,
		summary.Compacted,
	)

	return err
}

func (p *PostgresStore) CountSummaries(ctx context.Context) (int64, error) {
	return p.count(ctx, `SELECT COUNT(*) FROM click_summaries`)
}

func (p *PostgresStore) CreateArchive(ctx context.Context, archive *shortener.CompressedLink) error {
	query := `
		INSERT INTO link_archives
			(id, link_id, code, body, created_at, expires_at, total_clicks, compressed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := p.db.Exec(ctx, query,
		archive.ID,
		archive.LinkID,
		string(archive.Code),
		archive.Body,
		archive.CreatedAt,
		archive.ExpiresAt,
		archive.TotalClicks,
		archive.CompressedAt,
	)

	return err
}

func (p *PostgresStore) ArchiveByCode(ctx context.Context, code shortener.Code) (*shortener.CompressedLink, error) {
	query := `
		SELECT id, link_id, code, body, created_at, expires_at, total_clicks, compressed_at
		FROM link_archives
		WHERE code = $1
	`

	var archive shortener.CompressedLink

	err := p.db.QueryRow(ctx, query, string(code)).Scan(
		&archive.ID,
		&archive.LinkID,
		&archive.Code,
		&archive.Body,
		&archive.CreatedAt,
		&archive.ExpiresAt,
		&archive.TotalClicks,
		&archive.CompressedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return &archive, nil
}

func (p *PostgresStore) CountArchives(ctx context.Context) (int64, error) {
	return p.count(ctx, `SELECT COUNT(*) FROM link_archives`)
}

func (p *PostgresStore) scanLink(row pgx.Row) (*shortener.Link, error) {
	var link shortener.Link

	err := row.Scan(
		&link.ID,
		&link.Code,
		&link.OriginalURL,
		&link.CreatedAt,
		&link.ExpiresAt,
		&link.ClickCount,
		&link.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return &link, nil
}

func (p *PostgresStore) collectLinks(rows pgx.Rows) ([]*shortener.Link, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*shortener.Link, error) {
		var link shortener.Link

		err := row.Scan(
			&link.ID,
			&link.Code,
			&link.OriginalURL,
			&link.CreatedAt,
			&link.ExpiresAt,
			&link.ClickCount,
			&link.Active,
		)

		return &link, err
	})
}

func (p *PostgresStore) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := p.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}

	return n, nil
}

// Compile-time check.
var _ shortener.Store = (*PostgresStore)(nil)

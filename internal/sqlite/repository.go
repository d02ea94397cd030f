package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pavel-fokin/paste-stash/internal/pastes"
	_ "modernc.org/sqlite"
)

// Repository implements pastes.Repository using SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (or creates) the database at dbPath and prepares the
// schema.
func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &Repository{db: db}

	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// initSchema creates the pastes table and its indexes.
func (r *Repository) initSchema() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS pastes (
		id TEXT PRIMARY KEY,
		stored_name TEXT NOT NULL,
		display_name TEXT NOT NULL,
		extension TEXT NOT NULL,
		size INTEGER NOT NULL,
		content_type TEXT,
		is_text INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME
	);`
	if _, err := r.db.Exec(createTableQuery); err != nil {
		return fmt.Errorf("failed to create pastes table: %w", err)
	}

	// The reaper scans by expiration; everything else is keyed lookups.
	createIndexQuery := `CREATE INDEX IF NOT EXISTS idx_pastes_expires_at ON pastes(expires_at);`
	if _, err := r.db.Exec(createIndexQuery); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Insert stores a new paste record. A colliding id surfaces as
// pastes.ErrDuplicateID.
func (r *Repository) Insert(p *pastes.Paste) error {
	query := `
	INSERT INTO pastes (id, stored_name, display_name, extension, size, content_type, is_text, created_at, expires_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		p.ID,
		p.StoredName,
		p.DisplayName,
		p.Extension,
		p.Size,
		nullString(p.ContentType),
		p.IsText,
		p.CreatedAt.UTC(),
		nullTime(p.ExpiresAt),
	)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", pastes.ErrDuplicateID, p.ID)
		}
		return fmt.Errorf("failed to create paste record: %w", err)
	}

	return nil
}

// Get retrieves a paste record by id.
func (r *Repository) Get(id string) (*pastes.Paste, error) {
	query := `
	SELECT id, stored_name, display_name, extension, size, content_type, is_text, created_at, expires_at
	FROM pastes
	WHERE id = ?
	`

	p, err := scanPaste(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pastes.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find paste: %w", err)
	}

	return p, nil
}

// ListExpired returns all records whose expiration is at or before now. Used
// by the reaper; records with no expiration are never returned.
func (r *Repository) ListExpired(now time.Time) ([]*pastes.Paste, error) {
	query := `
	SELECT id, stored_name, display_name, extension, size, content_type, is_text, created_at, expires_at
	FROM pastes
	WHERE expires_at IS NOT NULL AND expires_at <= ?
	`

	rows, err := r.db.Query(query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query expired pastes: %w", err)
	}
	defer rows.Close()

	var expired []*pastes.Paste
	for rows.Next() {
		p, err := scanPaste(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan paste row: %w", err)
		}
		expired = append(expired, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating paste rows: %w", err)
	}

	return expired, nil
}

// Delete removes a paste record by id. Deleting a missing id is a no-op.
func (r *Repository) Delete(id string) error {
	if _, err := r.db.Exec(`DELETE FROM pastes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete paste record: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPaste(row scanner) (*pastes.Paste, error) {
	var p pastes.Paste
	var contentType sql.NullString
	var expiresAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.StoredName,
		&p.DisplayName,
		&p.Extension,
		&p.Size,
		&contentType,
		&p.IsText,
		&p.CreatedAt,
		&expiresAt,
	)
	if err != nil {
		return nil, err
	}

	if contentType.Valid {
		p.ContentType = contentType.String
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		p.ExpiresAt = &t
	}

	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Timestamps are stored in UTC so that sqlite's textual DATETIME comparison
// in ListExpired agrees with time order.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cart_snapshots (
	name       TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// OpenSQLite opens (creating if needed) the local cart database at path.
func OpenSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cart db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init cart db: %w", err)
	}
	return db, nil
}

// SQLitePersistence stores a named cart snapshot in a local SQLite database.
type SQLitePersistence struct {
	DB   *sqlx.DB
	Name string
	Now  func() time.Time
}

// Load implements Persistence.
func (p *SQLitePersistence) Load(ctx context.Context) ([]byte, error) {
	if p == nil || p.DB == nil {
		return nil, errors.New("sqlite persistence not configured")
	}
	var payload []byte
	err := p.DB.GetContext(ctx, &payload, `SELECT payload FROM cart_snapshots WHERE name = ?`, p.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotMissing
		}
		return nil, fmt.Errorf("load cart %s: %w", p.Name, err)
	}
	return payload, nil
}

// Save implements Persistence.
func (p *SQLitePersistence) Save(ctx context.Context, data []byte) error {
	if p == nil || p.DB == nil {
		return errors.New("sqlite persistence not configured")
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	const q = `
		INSERT INTO cart_snapshots (name, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`
	if _, err := p.DB.ExecContext(ctx, q, p.Name, data, now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("save cart %s: %w", p.Name, err)
	}
	return nil
}

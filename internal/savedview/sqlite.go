package savedview

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/todoq/pkg/debug"
	"github.com/vanderheijden86/todoq/pkg/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS views (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	query TEXT NOT NULL
)`

// SQLiteStore keeps views in a SQLite table ordered by insertion id.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens or creates the database at path. A file that is
// not a usable database is replaced with an empty one.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create views dir: %w", err)
	}
	db, err := openDB(path)
	if err != nil {
		debug.Log("resetting corrupt view database %s: %v", path, err)
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return nil, fmt.Errorf("reset corrupt views: %w", rmErr)
		}
		if db, err = openDB(path); err != nil {
			return nil, err
		}
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func openDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]View, error) {
	defer metrics.Timer(metrics.ViewStore)()

	rows, err := s.db.QueryContext(ctx, `SELECT title, query FROM views ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query views: %w", err)
	}
	defer rows.Close()

	views := []View{}
	for rows.Next() {
		var v View
		if err := rows.Scan(&v.Title, &v.Query); err != nil {
			return nil, fmt.Errorf("scan view: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (s *SQLiteStore) Save(ctx context.Context, v View) error {
	defer metrics.Timer(metrics.ViewStore)()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO views (title, query) VALUES (?, ?)`, v.Title, v.Query); err != nil {
		return fmt.Errorf("insert view: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM views WHERE id NOT IN (SELECT id FROM views ORDER BY id DESC LIMIT ?)`,
		MaxRecentViews,
	); err != nil {
		return fmt.Errorf("trim views: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Delete(ctx context.Context, index int) error {
	defer metrics.Timer(metrics.ViewStore)()

	if index < 0 {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM views ORDER BY id DESC LIMIT 1 OFFSET ?`, index).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if err != nil {
		return fmt.Errorf("find view: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM views WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete view: %w", err)
	}
	return tx.Commit()
}

package folio

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/eringen/folio/cms"
)

// ErrNotFound is returned when a requested page is not in the store.
var ErrNotFound = sql.ErrNoRows

// Store is the page store: post pages prepared by "folio build" or resolved
// on demand, kept as the decoded CMS document.
type Store struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// StoredPage is the listing row of a stored page.
type StoredPage struct {
	UID         string
	Title       string
	PublishedAt string // first publication date, RFC 3339, empty when unknown
	GeneratedAt time.Time
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the server read while a build writes; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		_ = db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS pages (
    uid TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    published_at TEXT NOT NULL DEFAULT '',
    document TEXT NOT NULL,
    generated_at TEXT NOT NULL
);
`)
	return err
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SavePost upserts the page of a post.
func (s *Store) SavePost(p cms.Post) error {
	if p.UID == "" {
		return errors.New("Store.SavePost: empty uid")
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("Store.SavePost: encode %s: %w", p.UID, err)
	}
	published := ""
	if p.FirstPublicationDate != nil {
		published = p.FirstPublicationDate.UTC().Format(time.RFC3339)
	}

	query, args, err := s.sb.
		Replace("pages").
		Columns("uid", "title", "published_at", "document", "generated_at").
		Values(p.UID, p.Data.Title, published, string(doc), time.Now().UTC().Format(time.RFC3339)).
		ToSql()
	if err != nil {
		return fmt.Errorf("Store.SavePost: build query: %w", err)
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("Store.SavePost: %w", err)
	}
	return nil
}

// GetPost returns the stored page of uid, or ErrNotFound.
func (s *Store) GetPost(uid string) (cms.Post, error) {
	query, args, err := s.sb.
		Select("document").
		From("pages").
		Where(sq.Eq{"uid": uid}).
		ToSql()
	if err != nil {
		return cms.Post{}, fmt.Errorf("Store.GetPost: build query: %w", err)
	}
	var doc string
	if err := s.db.QueryRow(query, args...).Scan(&doc); err != nil {
		return cms.Post{}, err
	}
	var p cms.Post
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return cms.Post{}, fmt.Errorf("Store.GetPost: decode %s: %w", uid, err)
	}
	return p, nil
}

// ListPages returns every stored page, newest publication first.
func (s *Store) ListPages() ([]StoredPage, error) {
	query, args, err := s.sb.
		Select("uid", "title", "published_at", "generated_at").
		From("pages").
		OrderBy("published_at DESC", "uid").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("Store.ListPages: build query: %w", err)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []StoredPage
	for rows.Next() {
		var p StoredPage
		var generated string
		if err := rows.Scan(&p.UID, &p.Title, &p.PublishedAt, &generated); err != nil {
			return nil, err
		}
		p.GeneratedAt, _ = time.Parse(time.RFC3339, generated)
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// DeletePost removes the page of uid.
func (s *Store) DeletePost(uid string) error {
	query, args, err := s.sb.Delete("pages").Where(sq.Eq{"uid": uid}).ToSql()
	if err != nil {
		return fmt.Errorf("Store.DeletePost: build query: %w", err)
	}
	_, err = s.db.Exec(query, args...)
	return err
}

// DeleteAll purges every page and returns how many were removed.
func (s *Store) DeleteAll() (int64, error) {
	query, args, err := s.sb.Delete("pages").ToSql()
	if err != nil {
		return 0, fmt.Errorf("Store.DeleteAll: build query: %w", err)
	}
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

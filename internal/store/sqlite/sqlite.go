// apps/go-server/internal/store/sqlite/sqlite.go
//
// SQLite implementation of store.Store.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations from sql/*.sql (idempotent, recorded in _migrations).
//   - Mapping driver errors onto the store failure kinds.
//
// Writes are serialized through a single connection; SQLite allows one
// writer at a time anyway and this keeps ":memory:" databases coherent.

package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bloglist/apps/go-server/internal/model"
	"github.com/robalobadob/bloglist/apps/go-server/internal/store"
)

//go:embed sql/*.sql
var migrations embed.FS

// Store is a store.Store backed by SQLite.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (and creates if missing) the database at path and migrates it.
// path may be ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

/**
 * openDB opens a SQLite database file.
 *
 * - Ensures parent directory exists for relative paths (e.g. ./data/bloglist.db).
 * - Configures busy timeout and WAL journaling for file databases.
 * - Enforces foreign keys.
 */
func openDB(path string) (*sql.DB, error) {
	inMemory := path == ":memory:" || strings.Contains(path, "mode=memory")
	if !inMemory && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	params := "_busy_timeout=5000&_foreign_keys=on"
	if !inMemory {
		params += "&_journal_mode=WAL"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", path+sep+params)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	return db, nil
}

/**
 * migrate applies the embedded SQL migrations.
 *
 * - Uses a _migrations table to track applied files.
 * - Executes each *.sql file in lexical order, each inside its own transaction.
 * - Skips files already applied.
 */
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrations, "sql/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

/* -------------------------------- posts ---------------------------------- */

const postSelect = `
SELECT p.id, p.title, p.author, p.url, p.likes, COALESCE(p.user_id, ''), p.created_at,
       u.id, u.username, u.name
FROM posts p
LEFT JOIN users u ON u.id = p.user_id`

func (s *Store) CreatePost(ctx context.Context, p *model.Post) error {
	if err := store.ValidatePost(p); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = model.NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO posts (id, title, author, url, likes, user_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Author, p.URL, p.Likes, nullIfEmpty(p.UserID), p.CreatedAt.Format(time.RFC3339Nano))
	return mapErr(err)
}

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	if err := store.CheckID(id); err != nil {
		return model.Post{}, err
	}
	return scanPost(s.db.QueryRowContext(ctx, postSelect+` WHERE p.id = ?`, id))
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, postSelect+` ORDER BY p.seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	if err := store.CheckID(id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

func (s *Store) UpdatePostLikes(ctx context.Context, id string, likes int) (model.Post, error) {
	if err := store.CheckID(id); err != nil {
		return model.Post{}, err
	}
	if err := store.ValidateLikes(likes); err != nil {
		return model.Post{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE posts SET likes = ? WHERE id = ?`, likes, id)
	if err != nil {
		return model.Post{}, err
	}
	if err := affectedOne(res); err != nil {
		return model.Post{}, err
	}
	return s.GetPost(ctx, id)
}

/* -------------------------------- users ---------------------------------- */

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if err := store.ValidateUser(u); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = model.NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, username, name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Name, u.PasswordHash, u.CreatedAt.Format(time.RFC3339Nano))
	return mapErr(err)
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	if err := store.CheckID(id); err != nil {
		return model.User{}, err
	}
	return s.findUser(ctx, `id = ?`, id)
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (model.User, error) {
	return s.findUser(ctx, `username = ?`, username)
}

func (s *Store) findUser(ctx context.Context, where string, arg any) (model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, name, password_hash, created_at FROM users WHERE `+where, arg))
	if err != nil {
		return model.User{}, err
	}
	posts, err := s.userPosts(ctx, u.ID)
	if err != nil {
		return model.User{}, err
	}
	u.Posts = posts[u.ID]
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, name, password_hash, created_at FROM users ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}
	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, u)
	}
	// Close before the next query: the pool holds a single connection.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	posts, err := s.userPosts(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Posts = posts[out[i].ID]
	}
	return out, nil
}

// userPosts returns post ids grouped by user; userID == "" loads every user.
func (s *Store) userPosts(ctx context.Context, userID string) (map[string][]string, error) {
	q := `SELECT user_id, post_id FROM user_posts`
	var args []any
	if userID != "" {
		q += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY seq ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var uid, pid string
		if err := rows.Scan(&uid, &pid); err != nil {
			return nil, err
		}
		out[uid] = append(out[uid], pid)
	}
	return out, rows.Err()
}

func (s *Store) AppendUserPost(ctx context.Context, userID, postID string) error {
	if err := store.CheckID(userID); err != nil {
		return err
	}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO user_posts (user_id, post_id) VALUES (?, ?)`, userID, postID)
	return mapErr(err)
}

/* ------------------------------- helpers --------------------------------- */

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (model.Post, error) {
	var p model.Post
	var created string
	var ownerID, uname, oname sql.NullString
	err := row.Scan(&p.ID, &p.Title, &p.Author, &p.URL, &p.Likes, &p.UserID, &created, &ownerID, &uname, &oname)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, store.ErrNotFound
	}
	if err != nil {
		return model.Post{}, err
	}
	p.CreatedAt = mustParse(created)
	if ownerID.Valid {
		p.Owner = &model.Owner{ID: ownerID.String, Username: uname.String, Name: oname.String}
	}
	return p, nil
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	var created string
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, store.ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.CreatedAt = mustParse(created)
	return u, nil
}

// mapErr translates UNIQUE violations into store.ErrDuplicateKey.
func mapErr(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && (se.ExtendedCode == sqlite3.ErrConstraintUnique ||
		se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%w: %s", store.ErrDuplicateKey, se.Error())
	}
	return err
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// mustParse parses RFC3339 timestamps; on error returns zero time.
func mustParse(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

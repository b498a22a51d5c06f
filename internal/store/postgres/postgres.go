// apps/go-server/internal/store/postgres/postgres.go
//
// Postgres-backed store.Store.
// Responsibilities:
//   - Open a pgx pool and apply embedded migrations tracked in _migrations.
//   - Users, posts and the per-user post list, with owners populated on reads.
//   - Map unique violations (SQLSTATE 23505) to store.ErrDuplicateKey.

package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bloglist/apps/go-server/internal/model"
	"github.com/robalobadob/bloglist/apps/go-server/internal/store"
)

//go:embed sql/*.sql
var migrations embed.FS

const uniqueViolation = "23505"

// Store is a store.Store backed by Postgres.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn, migrates the schema and returns the store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 20
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// migrate applies embedded sql/*.sql files once each, tracked in _migrations.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}
	files, err := fs.Glob(migrations, "sql/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		body, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx, `INSERT INTO _migrations(name) VALUES ($1) ON CONFLICT DO NOTHING`, f)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return nil
			}
			if _, err := tx.Exec(ctx, string(body)); err != nil {
				return err
			}
			log.Info().Str("migration", f).Msg("applied")
			return nil
		})
		if err != nil {
			return fmt.Errorf("apply %s: %w", f, err)
		}
	}
	return nil
}

// -------------------------------- posts --------------------------------------

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
	var userID *string
	if p.UserID != "" {
		userID = &p.UserID
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO posts (id, title, author, url, likes, user_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Title, p.Author, p.URL, p.Likes, userID, p.CreatedAt)
	return mapErr(err)
}

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	if err := store.CheckID(id); err != nil {
		return model.Post{}, err
	}
	return scanPost(s.pool.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := s.pool.Query(ctx, postSelect+` ORDER BY p.seq ASC`)
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
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpdatePostLikes(ctx context.Context, id string, likes int) (model.Post, error) {
	if err := store.CheckID(id); err != nil {
		return model.Post{}, err
	}
	if err := store.ValidateLikes(likes); err != nil {
		return model.Post{}, err
	}
	tag, err := s.pool.Exec(ctx, `UPDATE posts SET likes = $1 WHERE id = $2`, likes, id)
	if err != nil {
		return model.Post{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.Post{}, store.ErrNotFound
	}
	return s.GetPost(ctx, id)
}

// -------------------------------- users --------------------------------------

const userSelect = `
SELECT u.id, u.username, u.name, u.password_hash, u.created_at,
       COALESCE(array_agg(up.post_id ORDER BY up.seq) FILTER (WHERE up.post_id IS NOT NULL), '{}')
FROM users u
LEFT JOIN user_posts up ON up.user_id = u.id`

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
	_, err := s.pool.Exec(ctx, `
INSERT INTO users (id, username, name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Username, u.Name, u.PasswordHash, u.CreatedAt)
	return mapErr(err)
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	if err := store.CheckID(id); err != nil {
		return model.User{}, err
	}
	return scanUser(s.pool.QueryRow(ctx, userSelect+` WHERE u.id = $1 GROUP BY u.id`, id))
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(s.pool.QueryRow(ctx, userSelect+` WHERE u.username = $1 GROUP BY u.id`, username))
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, userSelect+` GROUP BY u.id ORDER BY u.created_at ASC, u.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) AppendUserPost(ctx context.Context, userID, postID string) error {
	if err := store.CheckID(userID); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
INSERT INTO user_posts (user_id, post_id)
SELECT id, $2 FROM users WHERE id = $1`, userID, postID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ------------------------------- helpers -------------------------------------

func scanPost(row pgx.Row) (model.Post, error) {
	var p model.Post
	var ownerID, uname, oname *string
	err := row.Scan(&p.ID, &p.Title, &p.Author, &p.URL, &p.Likes, &p.UserID, &p.CreatedAt, &ownerID, &uname, &oname)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Post{}, store.ErrNotFound
	}
	if err != nil {
		return model.Post{}, err
	}
	if ownerID != nil {
		p.Owner = &model.Owner{ID: *ownerID, Username: deref(uname), Name: deref(oname)}
	}
	return p, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.Posts)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, store.ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if len(u.Posts) == 0 {
		u.Posts = nil
	}
	return u, nil
}

func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrDuplicateKey, pgErr.ConstraintName)
	}
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Package sql provides a database/sql backed store for PostgreSQL, MySQL and SQLite.
package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	// SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/aloks98/gofeed/store"
	"github.com/aloks98/gofeed/store/sql/queries"
)

// Dialect represents a SQL database dialect.
type Dialect string

const (
	// PostgreSQL dialect. Requires the pgx stdlib driver to be registered.
	PostgreSQL Dialect = "postgres"
	// MySQL dialect.
	MySQL Dialect = "mysql"
	// SQLite dialect.
	SQLite Dialect = "sqlite"
)

// Config holds SQL store configuration.
type Config struct {
	// Dialect specifies the database type.
	Dialect Dialect

	// DB is an existing database connection. If provided, DSN is ignored.
	DB *sql.DB

	// DSN is the data source name for connecting to the database.
	DSN string

	// TablePrefix is the prefix for all table names. Defaults to "feed_".
	TablePrefix string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store implements store.Store using a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	q       *queries.Queries
}

// New creates a new SQL store. Call Migrate before first use.
func New(cfg *Config) (*Store, error) {
	q, err := queries.Load(queryDir(cfg.Dialect))
	if err != nil {
		return nil, err
	}
	if cfg.TablePrefix != "" {
		q = q.WithTablePrefix(cfg.TablePrefix)
	}

	db := cfg.DB
	if db == nil {
		db, err = sql.Open(driverName(cfg.Dialect), cfg.DSN)
		if err != nil {
			return nil, err
		}
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	return &Store{db: db, dialect: cfg.Dialect, q: q}, nil
}

func driverName(d Dialect) string {
	switch d {
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	default:
		return "pgx"
	}
}

func queryDir(d Dialect) string {
	switch d {
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	default:
		return "postgres"
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(s.q.Schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a user.
func (s *Store) CreateUser(ctx context.Context, u *store.User) error {
	id := uuid.Must(uuid.NewV7()).String()
	_, err := s.db.ExecContext(ctx, s.q.InsertUser,
		id, u.Email, u.Name, u.PasswordHash, u.Status, toMillis(u.CreatedAt), toMillis(u.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return err
	}
	u.ID = id
	return nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*store.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, s.q.SelectUserByID, id))
}

// GetUserByEmail returns a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, s.q.SelectUserByEmail, email))
}

func (s *Store) scanUser(row *sql.Row) (*store.User, error) {
	u := &store.User{}
	var createdAt, updatedAt int64

	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

// UpdateUserStatus sets a user's status.
func (s *Store) UpdateUserStatus(ctx context.Context, id, status string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, s.q.UpdateUserStatus, status, toMillis(at), id)
	return s.checkAffected(res, err, func() error {
		_, err := s.GetUser(ctx, id)
		return err
	})
}

// UpdatePasswordHash replaces a user's password hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, s.q.UpdatePasswordHash, hash, toMillis(at), id)
	return s.checkAffected(res, err, func() error {
		_, err := s.GetUser(ctx, id)
		return err
	})
}

// CreatePost inserts a post.
func (s *Store) CreatePost(ctx context.Context, p *store.Post) error {
	id := uuid.Must(uuid.NewV7()).String()
	_, err := s.db.ExecContext(ctx, s.q.InsertPost,
		id, p.Title, p.Content, p.ImageURL, p.Creator.OwnerID(), toMillis(p.CreatedAt), toMillis(p.UpdatedAt))
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

// GetPost returns a post by id.
func (s *Store) GetPost(ctx context.Context, id string, expand bool) (*store.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, s.q.SelectPost, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !expand {
		p.Creator.User = nil
	}
	return p, nil
}

// ListPosts returns a window of all posts, newest first.
func (s *Store) ListPosts(ctx context.Context, w store.Window) ([]*store.Post, error) {
	limit := w.Limit
	if limit <= 0 {
		limit = math.MaxInt32
	}

	rows, err := s.db.QueryContext(ctx, s.q.ListPosts, limit, max(w.Offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*store.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CountPosts returns the number of posts.
func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, s.q.CountPosts).Scan(&n)
	return n, err
}

// ListPostIDsByCreator returns the ids of a user's posts, newest first.
func (s *Store) ListPostIDsByCreator(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q.ListPostIDsByCreator, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdatePost writes the mutable fields of p.
func (s *Store) UpdatePost(ctx context.Context, p *store.Post) error {
	res, err := s.db.ExecContext(ctx, s.q.UpdatePost, p.Title, p.Content, p.ImageURL, toMillis(p.UpdatedAt), p.ID)
	return s.checkAffected(res, err, func() error {
		_, err := s.GetPost(ctx, p.ID, false)
		return err
	})
}

// DeletePost removes a post.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q.DeletePost, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ImageInUse reports whether any post references path.
func (s *Store) ImageInUse(ctx context.Context, path string) (bool, error) {
	var used bool
	err := s.db.QueryRowContext(ctx, s.q.ImageInUse, path).Scan(&used)
	return used, err
}

// checkAffected maps a zero-row update to ErrNotFound. MySQL reports unchanged rows as
// unaffected, so a zero count is confirmed with exists before failing.
func (s *Store) checkAffected(res sql.Result, err error, exists func() error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return exists()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*store.Post, error) {
	p := &store.Post{}
	var createdAt, updatedAt int64
	var (
		userID, email, name, status sql.NullString
		userCreated, userUpdated    sql.NullInt64
	)

	err := row.Scan(
		&p.ID, &p.Title, &p.Content, &p.ImageURL, &p.Creator.ID, &createdAt, &updatedAt,
		&userID, &email, &name, &status, &userCreated, &userUpdated,
	)
	if err != nil {
		return nil, err
	}

	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	if userID.Valid {
		p.Creator.User = &store.User{
			ID:        userID.String,
			Email:     email.String,
			Name:      name.String,
			Status:    status.String,
			CreatedAt: fromMillis(userCreated.Int64),
			UpdatedAt: fromMillis(userUpdated.Int64),
		}
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ store.Store = (*Store)(nil)

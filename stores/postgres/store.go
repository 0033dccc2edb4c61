package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	authgate "github.com/MrEthical07/authgate"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Schema creates the users table. Run it once at deployment; Open does
// not apply it automatically.
const Schema = `
create table if not exists authgate_users (
    id            text primary key,
    username      text not null,
    email         text not null default '',
    roles         jsonb not null default '[]',
    permissions   jsonb not null default '[]',
    password_hash text not null default '',
    created_at    timestamptz not null,
    last_login    timestamptz,
    active        boolean not null default true
);
create unique index if not exists authgate_users_username_idx
    on authgate_users (lower(username));
`

const uniqueViolation = "23505"

var _ authgate.UserStore = (*Store)(nil)

// Store implements authgate.UserStore on a *sql.DB.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open dials PostgreSQL through the pgx stdlib driver and returns a
// ready Store.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	return NewStore(db), nil
}

const userColumns = `id, username, email, roles, permissions, password_hash, created_at, last_login, active`

func (s *Store) Get(ctx context.Context, id string) (*authgate.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from authgate_users where id = $1`, id)
	return scanUser(row)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*authgate.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from authgate_users where lower(username) = lower($1)`, username)
	return scanUser(row)
}

func (s *Store) Create(ctx context.Context, u *authgate.User) error {
	roles, err := json.Marshal(emptySlice(u.Roles))
	if err != nil {
		return fmt.Errorf("postgres: encode roles: %w", err)
	}
	perms, err := json.Marshal(emptySlice(u.Permissions))
	if err != nil {
		return fmt.Errorf("postgres: encode permissions: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`insert into authgate_users (id, username, email, roles, permissions, password_hash, created_at, active)
         values ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Username, u.Email, roles, perms, u.PasswordHash, u.Created, u.Active,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return authgate.ErrUserExists
		}
		return fmt.Errorf("postgres: insert user: %w", err)
	}
	return nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`update authgate_users set last_login = $2 where id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("postgres: touch last login: %w", err)
	}
	return requireRow(res)
}

func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`update authgate_users set active = $2 where id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("postgres: set active: %w", err)
	}
	return requireRow(res)
}

func scanUser(row *sql.Row) (*authgate.User, error) {
	var (
		u         authgate.User
		roles     []byte
		perms     []byte
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &roles, &perms, &u.PasswordHash, &u.Created, &lastLogin, &u.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authgate.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: scan user: %w", err)
	}

	if err := json.Unmarshal(roles, &u.Roles); err != nil {
		return nil, fmt.Errorf("postgres: decode roles: %w", err)
	}
	if err := json.Unmarshal(perms, &u.Permissions); err != nil {
		return nil, fmt.Errorf("postgres: decode permissions: %w", err)
	}
	if lastLogin.Valid {
		u.LastLogin = lastLogin.Time
	}
	return &u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: rows affected: %w", err)
	}
	if n == 0 {
		return authgate.ErrUserNotFound
	}
	return nil
}

func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orbita-academy/orbita-backend/internal/model"
)

// ErrNotFound is returned when no user row matches the lookup.
var ErrNotFound = errors.New("user not found")

const userColumns = `id, username, name, email, phone, role, avatar, password_hash,
	permissions, active, registered_at, updated_at`

// UserRepository handles user registry data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Avatar,
		&u.PasswordHash, &u.Permissions, &u.Active, &u.RegisteredAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if u.Permissions == nil {
		u.Permissions = []string{}
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByUsername retrieves a user by their unique username. The lookup is
// case-sensitive by design.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// List retrieves a page of the registry, optionally filtered by role,
// ordered by id so output is stable across calls.
func (r *UserRepository) List(ctx context.Context, role model.Role, page, perPage int) ([]model.User, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	var (
		total int
		rows  pgx.Rows
		err   error
	)

	if role != "" {
		err = r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&total)
		if err != nil {
			return nil, 0, err
		}
		rows, err = r.pool.Query(ctx,
			`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY id LIMIT $2 OFFSET $3`,
			role, perPage, offset)
	} else {
		err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
		if err != nil {
			return nil, 0, err
		}
		rows, err = r.pool.Query(ctx,
			`SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`,
			perPage, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

// Create inserts a new user. The id and registration timestamp come from the
// database, so ids are unique and strictly increasing even across restarts.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, name, email, phone, role, avatar, password_hash, permissions, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, registered_at, updated_at`,
		u.Username, u.Name, u.Email, u.Phone, u.Role, u.Avatar,
		u.PasswordHash, u.Permissions, u.Active,
	).Scan(&u.ID, &u.RegisteredAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UsernameExists reports whether a username is already registered.
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

// Update replaces the mutable fields of the row with matching id.
// Username, password hash, and registration timestamp are not touched here.
func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET name = $1, email = $2, phone = $3, role = $4, avatar = $5,
		 permissions = $6, active = $7, updated_at = NOW()
		 WHERE id = $8`,
		u.Name, u.Email, u.Phone, u.Role, u.Avatar, u.Permissions, u.Active, u.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePermissions replaces exactly the permissions column.
func (r *UserRepository) UpdatePermissions(ctx context.Context, id int, permissions []string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET permissions = $1, updated_at = NOW() WHERE id = $2`,
		permissions, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive flips the active flag.
func (r *UserRepository) SetActive(ctx context.Context, id int, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET active = $1, updated_at = NOW() WHERE id = $2`,
		active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

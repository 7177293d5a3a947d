package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orgward/orgward/internal/shared"
)

// Repository provides PostgreSQL backed persistence for users.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, username, password_hash, id_number, phone_number, real_name, department_id, login_attempts, role_ids, created_at, updated_at`

// GetUser fetches a user by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return r.scanOne(row)
}

// FindByUsername fetches a user by username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return r.scanOne(row)
}

// ListByDepartment returns every user of one department ordered by id.
func (r *Repository) ListByDepartment(ctx context.Context, departmentID int64) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE department_id = $1 ORDER BY id`, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateUser inserts a user and returns the stored record.
func (r *Repository) CreateUser(ctx context.Context, user User) (User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, id_number, phone_number, real_name, department_id, role_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userColumns,
		user.Username, user.PasswordHash, user.IDNumber, user.PhoneNumber, user.RealName, user.DepartmentID, user.RoleIDs)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, shared.ErrDuplicate
		}
		return User{}, err
	}
	return created, nil
}

// UpdateUser updates profile fields, department and role assignments.
func (r *Repository) UpdateUser(ctx context.Context, id int64, phoneNumber, realName string, departmentID int64, roleIDs []int64) (User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET phone_number = $2, real_name = $3, department_id = $4, role_ids = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, phoneNumber, realName, departmentID, roleIDs)
	return r.scanOne(row)
}

// DeleteUser removes a user by id.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetLoginAttempts stores the consecutive failed login counter.
func (r *Repository) SetLoginAttempts(ctx context.Context, id int64, attempts int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET login_attempts = $2, updated_at = now() WHERE id = $1`, id, attempts)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) scanOne(row pgx.Row) (User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IDNumber,
		&user.PhoneNumber,
		&user.RealName,
		&user.DepartmentID,
		&user.LoginAttempts,
		&user.RoleIDs,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

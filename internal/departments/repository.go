package departments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orgward/orgward/internal/platform/db"
	"github.com/orgward/orgward/internal/shared"
)

// Repository provides PostgreSQL backed persistence for departments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const departmentColumns = `id, name, level, parent_id, description, manager_name, manager_phone, created_at, updated_at`

// GetDepartment fetches a department by id.
func (r *Repository) GetDepartment(ctx context.Context, id int64) (Department, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+departmentColumns+` FROM departments WHERE id = $1`, id)
	dept, err := scanDepartment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Department{}, shared.ErrNotFound
		}
		return Department{}, err
	}
	return dept, nil
}

// ListChildren returns the direct children of parentID ordered by id.
func (r *Repository) ListChildren(ctx context.Context, parentID int64) ([]Department, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+departmentColumns+` FROM departments WHERE parent_id = $1 ORDER BY id`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []Department
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, dept)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return children, nil
}

// ListRoots returns every level-0 department ordered by id.
func (r *Repository) ListRoots(ctx context.Context) ([]Department, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+departmentColumns+` FROM departments WHERE parent_id IS NULL ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roots []Department
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		roots = append(roots, dept)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roots, nil
}

// CreateDepartment inserts a department and returns the stored record.
func (r *Repository) CreateDepartment(ctx context.Context, dept Department) (Department, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO departments (name, level, parent_id, description, manager_name, manager_phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+departmentColumns,
		dept.Name, dept.Level, dept.ParentID, dept.Description, dept.ManagerName, dept.ManagerPhone)
	created, err := scanDepartment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Department{}, shared.ErrDuplicate
		}
		return Department{}, err
	}
	return created, nil
}

// UpdateDepartment updates mutable fields of a department.
func (r *Repository) UpdateDepartment(ctx context.Context, id int64, name, description, managerName, managerPhone string) (Department, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE departments
		SET name = $2, description = $3, manager_name = $4, manager_phone = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+departmentColumns,
		id, name, description, managerName, managerPhone)
	updated, err := scanDepartment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Department{}, shared.ErrNotFound
		}
		return Department{}, err
	}
	return updated, nil
}

// DeleteDepartment removes a department by id. The existence check on
// children and the delete run in one repeatable-read transaction so a child
// inserted concurrently cannot be orphaned.
func (r *Repository) DeleteDepartment(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var childCount int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM departments WHERE parent_id = $1`, id).Scan(&childCount); err != nil {
			return err
		}
		if childCount > 0 {
			return shared.ErrHasChildren
		}
		tag, err := tx.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func scanDepartment(row pgx.Row) (Department, error) {
	var dept Department
	err := row.Scan(
		&dept.ID,
		&dept.Name,
		&dept.Level,
		&dept.ParentID,
		&dept.Description,
		&dept.ManagerName,
		&dept.ManagerPhone,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	)
	return dept, err
}

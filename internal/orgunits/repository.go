package orgunits

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orgward/orgward/internal/platform/db"
	"github.com/orgward/orgward/internal/shared"
)

// Repository provides PostgreSQL backed persistence for org units and
// memberships.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orgUnitColumns = `id, name, department_id, created_at, updated_at`

// GetOrgUnit fetches an org unit by id.
func (r *Repository) GetOrgUnit(ctx context.Context, id int64) (OrgUnit, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orgUnitColumns+` FROM org_units WHERE id = $1`, id)
	unit, err := scanOrgUnit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrgUnit{}, shared.ErrNotFound
		}
		return OrgUnit{}, err
	}
	return unit, nil
}

// ListByDepartment returns every org unit of one department ordered by id.
func (r *Repository) ListByDepartment(ctx context.Context, departmentID int64) ([]OrgUnit, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orgUnitColumns+` FROM org_units WHERE department_id = $1 ORDER BY id`, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []OrgUnit
	for rows.Next() {
		unit, err := scanOrgUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return units, nil
}

// CreateOrgUnit inserts an org unit and returns the stored record.
func (r *Repository) CreateOrgUnit(ctx context.Context, unit OrgUnit) (OrgUnit, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO org_units (name, department_id)
		VALUES ($1, $2)
		RETURNING `+orgUnitColumns,
		unit.Name, unit.DepartmentID)
	created, err := scanOrgUnit(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return OrgUnit{}, shared.ErrDuplicate
		}
		return OrgUnit{}, err
	}
	return created, nil
}

// UpdateOrgUnit renames an org unit.
func (r *Repository) UpdateOrgUnit(ctx context.Context, id int64, name string) (OrgUnit, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE org_units
		SET name = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+orgUnitColumns,
		id, name)
	unit, err := scanOrgUnit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrgUnit{}, shared.ErrNotFound
		}
		return OrgUnit{}, err
	}
	return unit, nil
}

// DeleteOrgUnit removes an org unit together with its memberships.
func (r *Repository) DeleteOrgUnit(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM org_unit_members WHERE org_unit_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM org_units WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// AddMember links a user to an org unit.
func (r *Repository) AddMember(ctx context.Context, orgUnitID, userID int64) (Membership, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO org_unit_members (org_unit_id, user_id)
		VALUES ($1, $2)
		RETURNING id, org_unit_id, user_id`,
		orgUnitID, userID)
	var m Membership
	if err := row.Scan(&m.ID, &m.OrgUnitID, &m.UserID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Membership{}, shared.ErrDuplicate
		}
		return Membership{}, err
	}
	return m, nil
}

// RemoveMember unlinks a user from an org unit.
func (r *Repository) RemoveMember(ctx context.Context, orgUnitID, userID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM org_unit_members WHERE org_unit_id = $1 AND user_id = $2`, orgUnitID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListMembers returns every membership of one org unit ordered by user id.
func (r *Repository) ListMembers(ctx context.Context, orgUnitID int64) ([]Membership, error) {
	return r.listMemberships(ctx, `SELECT id, org_unit_id, user_id FROM org_unit_members WHERE org_unit_id = $1 ORDER BY user_id`, orgUnitID)
}

// ListMembershipsByUser returns every membership of one user ordered by unit id.
func (r *Repository) ListMembershipsByUser(ctx context.Context, userID int64) ([]Membership, error) {
	return r.listMemberships(ctx, `SELECT id, org_unit_id, user_id FROM org_unit_members WHERE user_id = $1 ORDER BY org_unit_id`, userID)
}

func (r *Repository) listMemberships(ctx context.Context, query string, arg int64) ([]Membership, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.ID, &m.OrgUnitID, &m.UserID); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return memberships, nil
}

func scanOrgUnit(row pgx.Row) (OrgUnit, error) {
	var unit OrgUnit
	err := row.Scan(
		&unit.ID,
		&unit.Name,
		&unit.DepartmentID,
		&unit.CreatedAt,
		&unit.UpdatedAt,
	)
	return unit, err
}

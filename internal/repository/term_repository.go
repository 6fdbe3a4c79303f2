package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/model"
)

// TermRepository handles academic period rows (periodos).
type TermRepository struct {
	pool *pgxpool.Pool
}

// NewTermRepository creates a new TermRepository.
func NewTermRepository(pool *pgxpool.Pool) *TermRepository {
	return &TermRepository{pool: pool}
}

// UpsertByOrgUnit inserts a term or updates code/name in place, keyed on the
// upstream org unit id. Returns the local row id.
func (r *TermRepository) UpsertByOrgUnit(ctx context.Context, t *model.Term) (int, error) {
	var id int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO periodos (org_unit_id, codigo, nombre, activo)
		 VALUES ($1, $2, $3, TRUE)
		 ON CONFLICT (org_unit_id) DO UPDATE
		 SET codigo = EXCLUDED.codigo, nombre = EXCLUDED.nombre, fecha_actualizacion = NOW()
		 RETURNING id`,
		t.OrgUnitID, t.Code, t.Name,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	t.ID = id
	return id, nil
}

// GetIDByOrgUnit returns the local id of the term with the given upstream id,
// or 0 when no such term exists.
func (r *TermRepository) GetIDByOrgUnit(ctx context.Context, orgUnitID int) (int, error) {
	var id int
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM periodos WHERE org_unit_id = $1`, orgUnitID,
	).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, err
	}
	return id, nil
}

// List returns all terms, optionally restricted to active ones.
func (r *TermRepository) List(ctx context.Context, activeOnly bool) ([]model.Term, error) {
	query := `SELECT id, org_unit_id, codigo, nombre, activo, fecha_actualizacion
	          FROM periodos`
	if activeOnly {
		query += ` WHERE activo = TRUE`
	}
	query += ` ORDER BY codigo DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terms []model.Term
	for rows.Next() {
		var t model.Term
		if err := rows.Scan(&t.ID, &t.OrgUnitID, &t.Code, &t.Name, &t.Active, &t.UpdatedAt); err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/model"
)

// ProgramRepository reads academic program rows (carreras). The sync engine
// never writes programs; they belong to a separate admin workflow.
type ProgramRepository struct {
	pool *pgxpool.Pool
}

// NewProgramRepository creates a new ProgramRepository.
func NewProgramRepository(pool *pgxpool.Pool) *ProgramRepository {
	return &ProgramRepository{pool: pool}
}

// GetIDByCode returns the program id for a short code, or nil when the code
// is unknown.
func (r *ProgramRepository) GetIDByCode(ctx context.Context, code string) (*int, error) {
	var id int
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM carreras WHERE codigo = $1`, code,
	).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &id, nil
}

// ListActive returns all active programs ordered by name.
func (r *ProgramRepository) ListActive(ctx context.Context) ([]model.Program, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, codigo, nombre, activo FROM carreras WHERE activo = TRUE ORDER BY nombre ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPrograms(rows)
}

// ListByTerm returns the distinct programs that appear among a term's cached
// classes, ordered by name.
func (r *ProgramRepository) ListByTerm(ctx context.Context, termID int) ([]model.Program, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT car.id, car.codigo, car.nombre, car.activo
		 FROM carreras car
		 JOIN clases c ON c.carrera_id = car.id
		 WHERE c.periodo_id = $1
		 ORDER BY car.nombre ASC`, termID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPrograms(rows)
}

func scanPrograms(rows pgx.Rows) ([]model.Program, error) {
	var programs []model.Program
	for rows.Next() {
		var p model.Program
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Active); err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

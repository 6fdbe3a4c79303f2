package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/model"
)

// ClassRepository handles course-section rows (clases).
type ClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

// CacheState is the slice of a class row the staleness check needs.
type CacheState struct {
	HasSyllabus string
	UpdatedAt   time.Time
}

// UpsertByOrgUnit inserts a class or updates its term/program/code fields in
// place, keyed on the upstream org unit id. The derived detail columns are
// untouched here. Returns the local row id and whether the row was inserted.
func (r *ClassRepository) UpsertByOrgUnit(ctx context.Context, c *model.Class) (int, bool, error) {
	var (
		id       int
		inserted bool
	)
	// xmax = 0 only holds for freshly inserted tuples, which is how we tell
	// an insert from a conflict-update without a second query.
	err := r.pool.QueryRow(ctx,
		`INSERT INTO clases (org_unit_id, periodo_id, carrera_id, nrc, nombre_completo, codigo_clase)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (org_unit_id) DO UPDATE
		 SET periodo_id = EXCLUDED.periodo_id,
		     carrera_id = EXCLUDED.carrera_id,
		     nrc = EXCLUDED.nrc,
		     nombre_completo = EXCLUDED.nombre_completo,
		     codigo_clase = EXCLUDED.codigo_clase,
		     fecha_actualizacion = NOW()
		 RETURNING id, (xmax = 0)`,
		c.OrgUnitID, c.TermID, c.ProgramID, c.RegistrationCode, c.FullName, c.CourseCode,
	).Scan(&id, &inserted)
	if err != nil {
		return 0, false, err
	}
	c.ID = id
	return id, inserted, nil
}

// GetByID returns one class row, or nil when it does not exist.
func (r *ClassRepository) GetByID(ctx context.Context, id int) (*model.Class, error) {
	var c model.Class
	err := r.pool.QueryRow(ctx,
		`SELECT id, org_unit_id, periodo_id, carrera_id, nrc, nombre_completo,
		        codigo_clase, tiene_syllabus, calificacion_final,
		        total_documentos, tiene_bienvenida, fecha_actualizacion
		 FROM clases WHERE id = $1`, id,
	).Scan(
		&c.ID, &c.OrgUnitID, &c.TermID, &c.ProgramID, &c.RegistrationCode,
		&c.FullName, &c.CourseCode, &c.HasSyllabus, &c.FinalGrade,
		&c.DocumentCount, &c.HasWelcome, &c.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// GetCacheState reads the staleness inputs for one class.
func (r *ClassRepository) GetCacheState(ctx context.Context, id int) (*CacheState, error) {
	var state CacheState
	err := r.pool.QueryRow(ctx,
		`SELECT tiene_syllabus, fecha_actualizacion FROM clases WHERE id = $1`, id,
	).Scan(&state.HasSyllabus, &state.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// UpdateDetail writes the four derived detail fields plus the refresh
// timestamp in a single statement. Returns the number of rows affected.
func (r *ClassRepository) UpdateDetail(ctx context.Context, id int, d model.ClassDetail) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE clases
		 SET tiene_syllabus = $1,
		     calificacion_final = $2,
		     total_documentos = $3,
		     tiene_bienvenida = $4,
		     fecha_actualizacion = NOW()
		 WHERE id = $5`,
		d.HasSyllabus, d.FinalGrade, d.DocumentCount, d.HasWelcome, id,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListByTerm returns the cached classes of a term ordered by name, optionally
// restricted to one program code.
func (r *ClassRepository) ListByTerm(ctx context.Context, termID int, programCode string) ([]model.Class, error) {
	query := `SELECT c.id, c.org_unit_id, c.periodo_id, c.carrera_id, c.nrc,
	                 c.nombre_completo, c.codigo_clase, c.tiene_syllabus,
	                 c.calificacion_final, c.total_documentos, c.tiene_bienvenida,
	                 c.fecha_actualizacion, car.codigo, car.nombre
	          FROM clases c
	          LEFT JOIN carreras car ON c.carrera_id = car.id
	          WHERE c.periodo_id = $1`
	args := []any{termID}
	if programCode != "" {
		query += ` AND car.codigo = $2`
		args = append(args, programCode)
	}
	query += ` ORDER BY c.nombre_completo ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []model.Class
	for rows.Next() {
		var c model.Class
		if err := rows.Scan(
			&c.ID, &c.OrgUnitID, &c.TermID, &c.ProgramID, &c.RegistrationCode,
			&c.FullName, &c.CourseCode, &c.HasSyllabus,
			&c.FinalGrade, &c.DocumentCount, &c.HasWelcome,
			&c.UpdatedAt, &c.ProgramCode, &c.ProgramName,
		); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// isNoRows reports whether err is pgx's empty-result sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

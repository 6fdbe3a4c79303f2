package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/model"
)

// StatsRepository runs the dashboard aggregate queries.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// Overview computes the system-wide counters in one round trip.
func (r *StatsRepository) Overview(ctx context.Context) (*model.SystemStats, error) {
	var stats model.SystemStats
	err := r.pool.QueryRow(ctx,
		`SELECT
		     (SELECT COUNT(*) FROM periodos WHERE activo = TRUE),
		     (SELECT COUNT(*) FROM clases),
		     (SELECT COUNT(*) FROM clases WHERE tiene_syllabus = 'SI'),
		     (SELECT COUNT(*) FROM clases WHERE tiene_syllabus = 'NO'),
		     (SELECT COALESCE(ROUND(AVG(calificacion_final)::numeric, 2), 0)
		        FROM clases WHERE calificacion_final > 0),
		     (SELECT COALESCE(SUM(total_documentos), 0) FROM clases)`,
	).Scan(
		&stats.TotalTerms,
		&stats.TotalClasses,
		&stats.ClassesWithSyllabus,
		&stats.ClassesNoSyllabus,
		&stats.AverageFinalGrade,
		&stats.TotalDocuments,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/model"
)

// SyncLogRepository appends sync run audit rows (logs_sincronizacion).
type SyncLogRepository struct {
	pool *pgxpool.Pool
}

// NewSyncLogRepository creates a new SyncLogRepository.
func NewSyncLogRepository(pool *pgxpool.Pool) *SyncLogRepository {
	return &SyncLogRepository{pool: pool}
}

// Insert appends one run-log row. The table is append-only; nothing updates
// or deletes these rows.
func (r *SyncLogRepository) Insert(ctx context.Context, l *model.SyncLog) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO logs_sincronizacion (
		     tipo_sincronizacion, periodo_id, total_registros,
		     registros_exitosos, registros_fallidos, errores,
		     duracion_segundos, fecha_fin
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 RETURNING id, fecha_fin`,
		l.Kind, l.TermID, l.Total, l.Succeeded, l.Failed, l.ErrorText, l.DurationSeconds,
	).Scan(&l.ID, &l.FinishedAt)
}

// ListRecent returns the most recent run logs, newest first.
func (r *SyncLogRepository) ListRecent(ctx context.Context, limit int) ([]model.SyncLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tipo_sincronizacion, periodo_id, total_registros,
		        registros_exitosos, registros_fallidos, errores,
		        duracion_segundos, fecha_fin
		 FROM logs_sincronizacion
		 ORDER BY fecha_fin DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []model.SyncLog
	for rows.Next() {
		var l model.SyncLog
		if err := rows.Scan(&l.ID, &l.Kind, &l.TermID, &l.Total,
			&l.Succeeded, &l.Failed, &l.ErrorText,
			&l.DurationSeconds, &l.FinishedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

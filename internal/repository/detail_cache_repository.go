package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DetailCacheRepository stores the raw per-class detail payloads fetched
// from upstream (contenido_cache, calificaciones_cache). These tables back
// debugging and re-processing; the authoritative derived fields live on the
// class row itself.
type DetailCacheRepository struct {
	pool *pgxpool.Pool
}

// NewDetailCacheRepository creates a new DetailCacheRepository.
func NewDetailCacheRepository(pool *pgxpool.Pool) *DetailCacheRepository {
	return &DetailCacheRepository{pool: pool}
}

// PutContent stores a class's raw content payload, replacing any earlier one.
func (r *DetailCacheRepository) PutContent(ctx context.Context, classID int, payload []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO contenido_cache (clase_id, payload, fecha_cache) VALUES ($1, $2, NOW())
		 ON CONFLICT (clase_id) DO UPDATE SET payload = EXCLUDED.payload, fecha_cache = NOW()`,
		classID, payload)
	return err
}

// PutGrades stores a class's raw grade payload, replacing any earlier one.
func (r *DetailCacheRepository) PutGrades(ctx context.Context, classID int, payload []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO calificaciones_cache (clase_id, payload, fecha_cache) VALUES ($1, $2, NOW())
		 ON CONFLICT (clase_id) DO UPDATE SET payload = EXCLUDED.payload, fecha_cache = NOW()`,
		classID, payload)
	return err
}

// PurgeOlderThan deletes cached payloads older than the cutoff from both
// tables and returns the number of rows removed.
func (r *DetailCacheRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM contenido_cache WHERE fecha_cache < $1`, cutoff)
	if err != nil {
		return deleted, err
	}
	deleted += tag.RowsAffected()

	tag, err = r.pool.Exec(ctx,
		`DELETE FROM calificaciones_cache WHERE fecha_cache < $1`, cutoff)
	if err != nil {
		return deleted, err
	}
	deleted += tag.RowsAffected()

	return deleted, nil
}

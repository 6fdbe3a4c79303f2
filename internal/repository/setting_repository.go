package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingRepository handles key-value configuration rows (configuracion).
// The token provider and the orchestrator's last-sync marker live here.
type SettingRepository struct {
	pool *pgxpool.Pool
}

// NewSettingRepository creates a new SettingRepository.
func NewSettingRepository(pool *pgxpool.Pool) *SettingRepository {
	return &SettingRepository{pool: pool}
}

// Get returns a setting's value, or "" when the key is absent.
func (r *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx,
		`SELECT valor FROM configuracion WHERE clave = $1`, key,
	).Scan(&value)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// Set upserts one setting.
func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO configuracion (clave, valor, fecha_actualizacion) VALUES ($1, $2, NOW())
		 ON CONFLICT (clave) DO UPDATE SET valor = EXCLUDED.valor, fecha_actualizacion = NOW()`,
		key, value)
	return err
}

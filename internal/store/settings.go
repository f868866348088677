package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Banshee-gtb/kate-aesthetics/internal/database"
	"github.com/Banshee-gtb/kate-aesthetics/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// GetSettings returns the requested keys as a map. Missing keys are simply
// absent, not an error.
func GetSettings(ctx context.Context, db *sql.DB, keys []string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT key, value FROM settings WHERE key = ANY($1)`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[key] = value.String
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return settings, nil
}

func GetSetting(ctx context.Context, db *sql.DB, key string) (*models.Setting, error) {
	setting := &models.Setting{}
	var value sql.NullString

	err := db.QueryRowContext(ctx,
		`SELECT id, key, value, created_at, updated_at FROM settings WHERE key = $1`,
		key).Scan(&setting.ID, &setting.Key, &value, &setting.CreatedAt, &setting.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrSettingNotFound
		}
		return nil, fmt.Errorf("get setting: %w", err)
	}

	setting.Value = value.String
	return setting, nil
}

// UpsertSetting writes a key/value pair, replacing any existing value.
func UpsertSetting(ctx context.Context, db *sql.DB, key, value string) (*models.Setting, error) {
	setting := &models.Setting{}
	var stored sql.NullString

	query := `
		INSERT INTO settings (id, key, value, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NOW(), NOW())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		RETURNING id, key, value, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, uuid.NewString(), key, value).Scan(
		&setting.ID,
		&setting.Key,
		&stored,
		&setting.CreatedAt,
		&setting.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert setting: %w", err)
	}

	setting.Value = stored.String
	return setting, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Banshee-gtb/kate-aesthetics/internal/database"
	"github.com/Banshee-gtb/kate-aesthetics/internal/models"
	"github.com/google/uuid"
)

func scanProfile(row interface{ Scan(...any) error }) (*models.Profile, error) {
	profile := &models.Profile{}
	var name, phone, address sql.NullString

	err := row.Scan(&profile.ID, &name, &phone, &address, &profile.CreatedAt)
	if err != nil {
		return nil, err
	}

	profile.Name = name.String
	profile.Phone = phone.String
	profile.Address = address.String
	return profile, nil
}

// UpsertProfile creates or refreshes a customer profile keyed by phone
// number, the identity checkout collects.
func UpsertProfile(ctx context.Context, db *sql.DB, name, phone, address string) (*models.Profile, error) {
	query := `
		INSERT INTO profiles (id, name, phone, address, created_at)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), NOW())
		ON CONFLICT (phone)
		DO UPDATE SET name = EXCLUDED.name, address = EXCLUDED.address
		RETURNING id, name, phone, address, created_at`

	profile, err := scanProfile(db.QueryRowContext(ctx, query, uuid.NewString(), name, phone, address))
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	return profile, nil
}

func GetProfile(ctx context.Context, db *sql.DB, id string) (*models.Profile, error) {
	profile, err := scanProfile(db.QueryRowContext(ctx,
		`SELECT id, name, phone, address, created_at FROM profiles WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return profile, nil
}

func ListProfiles(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count profiles: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, phone, address, created_at
		 FROM profiles
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return NewOffsetPage(profiles, total, page, pageSize), nil
}

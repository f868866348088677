package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Banshee-gtb/kate-aesthetics/internal/database"
	"github.com/Banshee-gtb/kate-aesthetics/internal/models"
	"github.com/google/uuid"
)

// IsAdmin reports whether email belongs to a back-office administrator.
func IsAdmin(ctx context.Context, db *sql.DB, email string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM admins WHERE email = $1)`,
		strings.ToLower(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return exists, nil
}

func CreateAdmin(ctx context.Context, db *sql.DB, email string) (*models.Admin, error) {
	admin := &models.Admin{}

	query := `
		INSERT INTO admins (id, email, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, created_at`

	err := db.QueryRowContext(ctx, query, uuid.NewString(), strings.ToLower(email)).Scan(
		&admin.ID,
		&admin.Email,
		&admin.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	return admin, nil
}

func DeleteAdmin(ctx context.Context, db *sql.DB, email string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM admins WHERE email = $1`, strings.ToLower(email))
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrAdminNotFound
	}

	return nil
}

package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "inkregister/pkg/domain"
	"inkregister/pkg/platform/sentinel"
)

// PostgresProfileStore persists profiles in the profiles table.
type PostgresProfileStore struct {
	db *sql.DB
}

func NewPostgresProfileStore(db *sql.DB) *PostgresProfileStore {
	return &PostgresProfileStore{db: db}
}

func (s *PostgresProfileStore) Save(ctx context.Context, profile Profile) error {
	query := `
		INSERT INTO profiles (id, full_name, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET full_name = EXCLUDED.full_name, role = EXCLUDED.role
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(profile.MasterID),
		profile.FullName,
		profile.Role,
		profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *PostgresProfileStore) FindByID(ctx context.Context, masterID id.MasterID) (Profile, error) {
	query := `
		SELECT id, full_name, role, created_at
		FROM profiles
		WHERE id = $1
	`
	var (
		profile Profile
		rawID   uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(masterID)).Scan(
		&rawID,
		&profile.FullName,
		&profile.Role,
		&profile.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("query profile: %w", err)
	}
	profile.MasterID = id.MasterID(rawID)
	return profile, nil
}

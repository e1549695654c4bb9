package branding

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL branding repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetProfile retrieves a single profile by name.
func (r *PostgresRepository) GetProfile(ctx context.Context, name string) (*Profile, error) {
	query := `
		SELECT name, config, updated_at
		FROM branding_profiles
		WHERE name = $1
	`

	var (
		profile    Profile
		configJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, name).Scan(
		&profile.Name,
		&configJSON,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(configJSON, &profile.Config); err != nil {
		return nil, err
	}

	return &profile, nil
}

// ListProfiles retrieves all profiles.
func (r *PostgresRepository) ListProfiles(ctx context.Context) (map[string]*Profile, error) {
	query := `
		SELECT name, config, updated_at
		FROM branding_profiles
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make(map[string]*Profile)
	for rows.Next() {
		var (
			profile    Profile
			configJSON []byte
		)

		err := rows.Scan(
			&profile.Name,
			&configJSON,
			&profile.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(configJSON, &profile.Config); err != nil {
			return nil, err
		}

		profiles[profile.Name] = &profile
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// SetProfile creates or updates a profile.
func (r *PostgresRepository) SetProfile(ctx context.Context, profile *Profile) error {
	query := `
		INSERT INTO branding_profiles (name, config, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			config = EXCLUDED.config,
			updated_at = EXCLUDED.updated_at
	`

	configJSON, err := json.Marshal(profile.Config)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query, profile.Name, configJSON, time.Now())
	return err
}

// DeleteProfile removes a profile by name.
func (r *PostgresRepository) DeleteProfile(ctx context.Context, name string) error {
	query := `DELETE FROM branding_profiles WHERE name = $1`
	_, err := r.pool.Exec(ctx, query, name)
	return err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-booking-api/internal/models"
)

const providerColumns = `id, person_id, role, display_name, is_active, created_at, updated_at`

// ProviderRepository persists bookable provider roles.
type ProviderRepository struct {
	db *sqlx.DB
}

// NewProviderRepository constructs a provider repository.
func NewProviderRepository(db *sqlx.DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

func (r *ProviderRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a provider role row. A second row for the same person and role yields ErrDuplicate.
func (r *ProviderRepository) Create(ctx context.Context, provider *models.Provider) error {
	if provider.ID == "" {
		provider.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	provider.CreatedAt = now
	provider.UpdatedAt = now
	provider.IsActive = true

	const query = `
INSERT INTO providers (id, person_id, role, display_name, is_active, created_at, updated_at)
VALUES (:id, :person_id, :role, :display_name, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, provider); err != nil {
		return classifyPQError(fmt.Errorf("insert provider: %w", err))
	}
	return nil
}

// FindByID loads a provider by identifier.
func (r *ProviderRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE id = $1`
	var provider models.Provider
	if err := sqlx.GetContext(ctx, r.exec(exec), &provider, query, id); err != nil {
		return nil, err
	}
	return &provider, nil
}

// ListByPerson returns every provider role held by a person.
func (r *ProviderRepository) ListByPerson(ctx context.Context, personID string) ([]models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE person_id = $1 ORDER BY role`
	var providers []models.Provider
	if err := r.db.SelectContext(ctx, &providers, query, personID); err != nil {
		return nil, fmt.Errorf("list providers by person: %w", err)
	}
	return providers, nil
}

// Deactivate flags the provider inactive.
func (r *ProviderRepository) Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `UPDATE providers SET is_active = FALSE, updated_at = $1 WHERE id = $2`
	result, err := r.exec(exec).ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deactivate provider: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate provider rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

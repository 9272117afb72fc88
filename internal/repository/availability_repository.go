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

const (
	ruleColumns      = `id, provider_id, day_of_week, start_minute, end_minute, is_active, created_at, updated_at`
	exceptionColumns = `id, provider_id, exception_date, start_minute, end_minute, type, reason, created_at`
)

// AvailabilityRepository persists recurring rules and date exceptions.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// UpsertRule inserts a weekly window or re-activates the identical existing one.
func (r *AvailabilityRepository) UpsertRule(ctx context.Context, rule *models.RecurringAvailabilityRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	const query = `
INSERT INTO availability_rules (id, provider_id, day_of_week, start_minute, end_minute, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
ON CONFLICT (provider_id, day_of_week, start_minute, end_minute)
DO UPDATE SET is_active = TRUE, updated_at = EXCLUDED.updated_at
RETURNING ` + ruleColumns
	if err := r.db.GetContext(ctx, rule, query, rule.ID, rule.ProviderID, rule.DayOfWeek, rule.StartTime, rule.EndTime, now); err != nil {
		return fmt.Errorf("upsert availability rule: %w", err)
	}
	return nil
}

// FindRule loads a rule by identifier.
func (r *AvailabilityRepository) FindRule(ctx context.Context, id string) (*models.RecurringAvailabilityRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM availability_rules WHERE id = $1`
	var rule models.RecurringAvailabilityRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListRules returns a provider's rules, optionally only the active ones.
func (r *AvailabilityRepository) ListRules(ctx context.Context, providerID string, activeOnly bool) ([]models.RecurringAvailabilityRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM availability_rules WHERE provider_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY day_of_week, start_minute`
	var rules []models.RecurringAvailabilityRule
	if err := r.db.SelectContext(ctx, &rules, query, providerID); err != nil {
		return nil, fmt.Errorf("list availability rules: %w", err)
	}
	return rules, nil
}

// DeactivateRule switches a single rule off.
func (r *AvailabilityRepository) DeactivateRule(ctx context.Context, id string) error {
	const query = `UPDATE availability_rules SET is_active = FALSE, updated_at = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deactivate availability rule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("availability rule rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeactivateProviderRules switches off every active rule of a provider and returns how many changed.
func (r *AvailabilityRepository) DeactivateProviderRules(ctx context.Context, exec sqlx.ExtContext, providerID string) (int64, error) {
	const query = `UPDATE availability_rules SET is_active = FALSE, updated_at = $1 WHERE provider_id = $2 AND is_active = TRUE`
	result, err := r.exec(exec).ExecContext(ctx, query, time.Now().UTC(), providerID)
	if err != nil {
		return 0, fmt.Errorf("deactivate provider rules: %w", err)
	}
	return result.RowsAffected()
}

// CreateException stores a date override.
func (r *AvailabilityRepository) CreateException(ctx context.Context, exception *models.AvailabilityException) error {
	if exception.ID == "" {
		exception.ID = uuid.NewString()
	}
	exception.CreatedAt = time.Now().UTC()
	const query = `
INSERT INTO availability_exceptions (id, provider_id, exception_date, start_minute, end_minute, type, reason, created_at)
VALUES (:id, :provider_id, :exception_date, :start_minute, :end_minute, :type, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exception); err != nil {
		return fmt.Errorf("insert availability exception: %w", err)
	}
	return nil
}

// FindException loads an exception by identifier.
func (r *AvailabilityRepository) FindException(ctx context.Context, id string) (*models.AvailabilityException, error) {
	query := `SELECT ` + exceptionColumns + ` FROM availability_exceptions WHERE id = $1`
	var exception models.AvailabilityException
	if err := r.db.GetContext(ctx, &exception, query, id); err != nil {
		return nil, err
	}
	return &exception, nil
}

// ListExceptions returns a provider's exceptions dated within [from, to].
func (r *AvailabilityRepository) ListExceptions(ctx context.Context, providerID string, from, to models.Date) ([]models.AvailabilityException, error) {
	query := `SELECT ` + exceptionColumns + ` FROM availability_exceptions
WHERE provider_id = $1 AND exception_date BETWEEN $2 AND $3
ORDER BY exception_date, start_minute NULLS FIRST`
	var exceptions []models.AvailabilityException
	if err := r.db.SelectContext(ctx, &exceptions, query, providerID, from, to); err != nil {
		return nil, fmt.Errorf("list availability exceptions: %w", err)
	}
	return exceptions, nil
}

// DeleteException removes a date override.
func (r *AvailabilityRepository) DeleteException(ctx context.Context, id string) error {
	const query = `DELETE FROM availability_exceptions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete availability exception: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("availability exception rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-booking-api/internal/models"
	"github.com/noah-isme/edu-booking-api/internal/repository"
	appErrors "github.com/noah-isme/edu-booking-api/pkg/errors"
)

// TxRunner executes fn inside one database transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, opts *sql.TxOptions, fn func(exec sqlx.ExtContext) error) error
}

// Clock returns the current instant. Tests pin it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func conflictError(commitment models.Commitment, start, end time.Time) *appErrors.Error {
	domainErr := &models.CommitmentConflictError{Commitment: commitment, Start: start, End: end}
	wrapped := appErrors.Wrap(domainErr, appErrors.ErrScheduleConflict.Code, appErrors.ErrScheduleConflict.Status,
		fmt.Sprintf("time overlaps %s", commitment.Description))
	return appErrors.WithDetails(wrapped, domainErr)
}

func stateError(entity, id, from, to string) *appErrors.Error {
	domainErr := &models.StateTransitionError{Entity: entity, ID: id, From: from, To: to}
	wrapped := appErrors.Wrap(domainErr, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status, domainErr.Error())
	return appErrors.WithDetails(wrapped, domainErr)
}

func validationError(message string) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}

func notFound(entity string) *appErrors.Error {
	return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
}

// lookupError translates repository lookups into not-found or internal failures.
func lookupError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(entity)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+entity)
}

// txError maps failures escaping a transaction. Typed errors pass through untouched.
func txError(err error, entity, action string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, repository.ErrSerialization):
		return appErrors.Wrap(err, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status,
			fmt.Sprintf("%s was modified concurrently, retry %s", entity, action))
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, entity+" already exists")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+action+" "+entity)
}

func stringPtr(v string) *string {
	return &v
}

// authorizeParty allows admins, system callers (nil actor) and the listed people.
func authorizeParty(actor *models.JWTClaims, personIDs ...string) error {
	if actor == nil || actor.IsAdmin() {
		return nil
	}
	for _, id := range personIDs {
		if id != "" && id == actor.UserID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "not a party to this booking")
}

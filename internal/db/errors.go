package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"taskforce/internal/apperr"
)

// Domain-level database error sentinels. Each wraps apperr.ErrNotFound so
// handlers can map them without knowing the entity.
var (
	ErrUserNotFound         = fmt.Errorf("user %w", apperr.ErrNotFound)
	ErrProjectNotFound      = fmt.Errorf("project %w", apperr.ErrNotFound)
	ErrOrganisationNotFound = fmt.Errorf("organisation %w", apperr.ErrNotFound)
	ErrGrantNotFound        = fmt.Errorf("grant %w", apperr.ErrNotFound)
	ErrIssueNotFound        = fmt.Errorf("watchdog issue %w", apperr.ErrNotFound)
	ErrMembershipNotFound   = fmt.Errorf("membership %w", apperr.ErrNotFound)
	ErrItemNotFound         = fmt.Errorf("item %w", apperr.ErrNotFound)
)

// Postgres error codes the application distinguishes.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
)

// mapConstraint converts constraint violations into apperr.ConstraintError
// and passes every other error through unchanged.
func mapConstraint(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return apperr.Constraint("a record with these values already exists", err)
	case codeForeignKeyViolation:
		return apperr.Constraint("a referenced record does not exist", err)
	case codeCheckViolation:
		return apperr.Constraint(checkMessage(pgErr.ConstraintName), err)
	case codeNotNullViolation:
		return apperr.Constraint("a required value is missing: "+pgErr.ColumnName, err)
	}
	return err
}

func checkMessage(constraint string) string {
	switch constraint {
	case "projects_moderation_trail", "organisations_moderation_trail",
		"grants_moderation_trail", "watchdog_issues_moderation_trail":
		return "the item is not eligible for this moderation action"
	case "follows_one_target":
		return "a follow must name exactly one target"
	case "grants_amount_range":
		return "amount_min must not exceed amount_max"
	case "":
		return "the record violates a check constraint"
	}
	return "the record violates constraint " + constraint
}

package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"taskforce/internal/apperr"
)

func TestMapConstraint(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantMsg  string
		isConstr bool
	}{
		{"nil", nil, "", false},
		{"plain", errors.New("connection reset"), "", false},
		{"unique", &pgconn.PgError{Code: codeUniqueViolation}, "a record with these values already exists", true},
		{"foreign key", &pgconn.PgError{Code: codeForeignKeyViolation}, "a referenced record does not exist", true},
		{"moderation check", &pgconn.PgError{Code: codeCheckViolation, ConstraintName: "grants_moderation_trail"}, "the item is not eligible for this moderation action", true},
		{"other check", &pgconn.PgError{Code: codeCheckViolation, ConstraintName: "projects_location"}, "the record violates constraint projects_location", true},
		{"syntax", &pgconn.PgError{Code: "42601"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapConstraint(tt.err)
			var cerr *apperr.ConstraintError
			assert.Equal(t, tt.isConstr, errors.As(got, &cerr))
			if tt.isConstr {
				assert.Equal(t, tt.wantMsg, cerr.Message)
				assert.ErrorIs(t, got, tt.err)
			} else {
				assert.Equal(t, tt.err, got)
			}
		})
	}
}

func TestNotFoundSentinels(t *testing.T) {
	for _, err := range []error{ErrUserNotFound, ErrProjectNotFound, ErrOrganisationNotFound, ErrGrantNotFound, ErrIssueNotFound, ErrItemNotFound} {
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	}
}

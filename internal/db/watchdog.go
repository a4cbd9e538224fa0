package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"taskforce/internal/models"
)

// WatchdogFilter narrows watchdog issue lists and markers.
type WatchdogFilter struct {
	Categories []string
	Severities []string
}

func (f WatchdogFilter) apply(w *whereBuilder) {
	if len(f.Categories) > 0 {
		w.add("category = ANY(?::text[])", f.Categories)
	}
	if len(f.Severities) > 0 {
		w.add("severity = ANY(?::text[])", f.Severities)
	}
}

const watchdogCols = `id, title, description, category, severity, lat, lng, place_name,
	created_by, created_at, updated_at, moderation_status, approved_at, approved_by,
	rejected_at, rejected_by, rejection_reason`

func scanWatchdogIssue(row pgx.CollectableRow) (models.WatchdogIssue, error) {
	var i models.WatchdogIssue
	var loc location
	dest := []any{&i.ID, &i.Title, &i.Description, &i.Category, &i.Severity}
	dest = append(dest, loc.dest()...)
	dest = append(dest, &i.CreatedBy, &i.CreatedAt, &i.UpdatedAt)
	dest = append(dest, moderationDest(&i.Moderation)...)
	if err := row.Scan(dest...); err != nil {
		return i, err
	}
	i.Location = loc.value()
	return i, nil
}

// CreateWatchdogIssue inserts a pending issue and its evidence links in one
// transaction.
func (d *DB) CreateWatchdogIssue(ctx context.Context, issue *models.WatchdogIssue) error {
	return d.WithTx(ctx, func(tx pgx.Tx) error {
		lat, lng, place := locationArgs(issue.Location)
		err := tx.QueryRow(ctx, `
			INSERT INTO watchdog_issues (title, description, category, severity, lat, lng, place_name, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, moderation_status, created_at, updated_at
		`, issue.Title, issue.Description, issue.Category, issue.Severity, lat, lng, place, issue.CreatedBy,
		).Scan(&issue.ID, &issue.Status, &issue.CreatedAt, &issue.UpdatedAt)
		if err != nil {
			return mapConstraint(err)
		}

		if len(issue.Links) == 0 {
			return nil
		}
		rows := make([][]any, len(issue.Links))
		for i, l := range issue.Links {
			rows[i] = []any{issue.ID, int32(i), l.URL, l.Label}
		}
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"watchdog_links"},
			[]string{"issue_id", "position", "url", "label"}, pgx.CopyFromRows(rows))
		return mapConstraint(err)
	})
}

// GetWatchdogIssueByID retrieves an issue with its links.
func (d *DB) GetWatchdogIssueByID(ctx context.Context, id uuid.UUID) (*models.WatchdogIssue, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+watchdogCols+` FROM watchdog_issues WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	issue, err := pgx.CollectExactlyOneRow(rows, scanWatchdogIssue)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrIssueNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err = d.Pool.Query(ctx, `SELECT url, label FROM watchdog_links WHERE issue_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	if issue.Links, err = pgx.CollectRows(rows, pgx.RowToStructByPos[models.ProjectLink]); err != nil {
		return nil, err
	}
	return &issue, nil
}

// ListWatchdogIssues returns one page of approved issues matching f.
func (d *DB) ListWatchdogIssues(ctx context.Context, f WatchdogFilter, opts ListOptions) (*Page[models.WatchdogIssue], error) {
	var w whereBuilder
	w.visible(models.KindWatchdog, opts)
	w.search(opts.Query, "title", "description")
	f.apply(&w)
	return listPage(ctx, d.Pool, "watchdog_issues", watchdogCols, models.KindWatchdog, &w, opts, scanWatchdogIssue)
}

// WatchdogMarkers returns map markers for approved issues.
func (d *DB) WatchdogMarkers(ctx context.Context, f WatchdogFilter, limit int) ([]models.Marker, error) {
	var w whereBuilder
	w.visible(models.KindWatchdog, ListOptions{})
	f.apply(&w)
	return markers(ctx, d.Pool, "watchdog_issues", "title", models.KindWatchdog, &w, limit)
}

package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"taskforce/internal/models"
)

// GrantFilter narrows grant lists and markers.
type GrantFilter struct {
	SDGs          []int
	Currencies    []string
	MinAmount     *float64
	MaxAmount     *float64
	DeadlineAfter *time.Time
}

func (f GrantFilter) apply(w *whereBuilder) {
	if len(f.SDGs) > 0 {
		w.add("id IN (SELECT grant_id FROM grant_sdgs WHERE sdg = ANY(?::smallint[]))", f.SDGs)
	}
	if len(f.Currencies) > 0 {
		w.add("currency = ANY(?::text[])", f.Currencies)
	}
	if f.MinAmount != nil {
		w.add("COALESCE(amount_max, amount_min) >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		w.add("COALESCE(amount_min, amount_max) <= ?", *f.MaxAmount)
	}
	if f.DeadlineAfter != nil {
		w.add("(deadline IS NULL OR deadline >= ?)", *f.DeadlineAfter)
	}
}

const grantCols = `id, title, description, funder, url, amount_min::float8, amount_max::float8,
	currency, deadline, lat, lng, place_name, created_by, created_at, updated_at,
	moderation_status, approved_at, approved_by, rejected_at, rejected_by, rejection_reason`

func scanGrant(row pgx.CollectableRow) (models.Grant, error) {
	var g models.Grant
	var loc location
	dest := []any{&g.ID, &g.Title, &g.Description, &g.Funder, &g.URL, &g.AmountMin, &g.AmountMax, &g.Currency, &g.Deadline}
	dest = append(dest, loc.dest()...)
	dest = append(dest, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt)
	dest = append(dest, moderationDest(&g.Moderation)...)
	if err := row.Scan(dest...); err != nil {
		return g, err
	}
	g.Location = loc.value()
	return g, nil
}

// CreateGrant inserts a pending grant and its SDG tags in one transaction.
func (d *DB) CreateGrant(ctx context.Context, g *models.Grant) error {
	return d.WithTx(ctx, func(tx pgx.Tx) error {
		lat, lng, place := locationArgs(g.Location)
		err := tx.QueryRow(ctx, `
			INSERT INTO grants (title, description, funder, url, amount_min, amount_max, currency, deadline, lat, lng, place_name, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id, moderation_status, created_at, updated_at
		`, g.Title, g.Description, g.Funder, g.URL, g.AmountMin, g.AmountMax, g.Currency, g.Deadline,
			lat, lng, place, g.CreatedBy,
		).Scan(&g.ID, &g.Status, &g.CreatedAt, &g.UpdatedAt)
		if err != nil {
			return mapConstraint(err)
		}

		if len(g.SDGs) == 0 {
			return nil
		}
		rows := make([][]any, len(g.SDGs))
		for i, sdg := range g.SDGs {
			rows[i] = []any{g.ID, int16(sdg)}
		}
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"grant_sdgs"}, []string{"grant_id", "sdg"}, pgx.CopyFromRows(rows))
		return mapConstraint(err)
	})
}

// GetGrantByID retrieves a grant with its SDG tags.
func (d *DB) GetGrantByID(ctx context.Context, id uuid.UUID) (*models.Grant, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+grantCols+` FROM grants WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	g, err := pgx.CollectExactlyOneRow(rows, scanGrant)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGrantNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err = d.Pool.Query(ctx, `SELECT sdg::int FROM grant_sdgs WHERE grant_id = $1 ORDER BY sdg`, id)
	if err != nil {
		return nil, err
	}
	if g.SDGs, err = pgx.CollectRows(rows, pgx.RowTo[int]); err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGrants returns one page of approved grants matching f.
func (d *DB) ListGrants(ctx context.Context, f GrantFilter, opts ListOptions) (*Page[models.Grant], error) {
	var w whereBuilder
	w.visible(models.KindGrant, opts)
	w.search(opts.Query, "title", "description", "funder")
	f.apply(&w)
	return listPage(ctx, d.Pool, "grants", grantCols, models.KindGrant, &w, opts, scanGrant)
}

// GrantMarkers returns map markers for approved grants that carry a location.
func (d *DB) GrantMarkers(ctx context.Context, f GrantFilter, limit int) ([]models.Marker, error) {
	var w whereBuilder
	w.visible(models.KindGrant, ListOptions{})
	f.apply(&w)
	return markers(ctx, d.Pool, "grants", "title", models.KindGrant, &w, limit)
}

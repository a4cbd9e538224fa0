package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"taskforce/internal/models"
)

// OrganisationFilter narrows organisation lists and markers.
type OrganisationFilter struct {
	Countries []string
}

func (f OrganisationFilter) apply(w *whereBuilder) {
	if len(f.Countries) > 0 {
		w.add("upper(country) = ANY(?::text[])", f.Countries)
	}
}

const organisationCols = `id, name, description, website, country, lat, lng, place_name,
	created_by, created_at, updated_at, moderation_status, verified_at, verified_by,
	rejected_at, rejected_by, rejection_reason`

func scanOrganisation(row pgx.CollectableRow) (models.Organisation, error) {
	var o models.Organisation
	var loc location
	dest := []any{&o.ID, &o.Name, &o.Description, &o.Website, &o.Country}
	dest = append(dest, loc.dest()...)
	dest = append(dest, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	dest = append(dest, moderationDest(&o.Moderation)...)
	if err := row.Scan(dest...); err != nil {
		return o, err
	}
	o.Location = loc.value()
	return o, nil
}

// CreateOrganisation inserts an organisation pending verification together
// with its creator's owner membership.
func (d *DB) CreateOrganisation(ctx context.Context, o *models.Organisation) error {
	return d.WithTx(ctx, func(tx pgx.Tx) error {
		lat, lng, place := locationArgs(o.Location)
		err := tx.QueryRow(ctx, `
			INSERT INTO organisations (name, description, website, country, lat, lng, place_name, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, moderation_status, created_at, updated_at
		`, o.Name, o.Description, o.Website, o.Country, lat, lng, place, o.CreatedBy,
		).Scan(&o.ID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return mapConstraint(err)
		}
		if o.CreatedBy == nil {
			return nil
		}
		owner := models.OwnerMembership(o.ID, *o.CreatedBy)
		return insertMembership(ctx, tx, &owner)
	})
}

// GetOrganisationByID retrieves an organisation by id.
func (d *DB) GetOrganisationByID(ctx context.Context, id uuid.UUID) (*models.Organisation, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+organisationCols+` FROM organisations WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrganisation)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrganisationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrganisations returns one page of verified organisations matching f.
func (d *DB) ListOrganisations(ctx context.Context, f OrganisationFilter, opts ListOptions) (*Page[models.Organisation], error) {
	var w whereBuilder
	w.visible(models.KindOrganisation, opts)
	w.search(opts.Query, "name", "description")
	f.apply(&w)
	return listPage(ctx, d.Pool, "organisations", organisationCols, models.KindOrganisation, &w, opts, scanOrganisation)
}

// OrganisationMarkers returns map markers for verified organisations.
func (d *DB) OrganisationMarkers(ctx context.Context, f OrganisationFilter, limit int) ([]models.Marker, error) {
	var w whereBuilder
	w.visible(models.KindOrganisation, ListOptions{})
	f.apply(&w)
	return markers(ctx, d.Pool, "organisations", "name", models.KindOrganisation, &w, limit)
}

func insertMembership(ctx context.Context, q querier, m *models.Membership) error {
	err := q.QueryRow(ctx, `
		INSERT INTO organisation_members (organisation_id, user_id, role, can_create_projects, can_create_funding, can_manage_members)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, m.OrganisationID, m.UserID, m.Role, m.CanCreateProjects, m.CanCreateFunding, m.CanManageMembers,
	).Scan(&m.CreatedAt)
	return mapConstraint(err)
}

// AddMembership inserts a membership. A duplicate is a constraint error.
func (d *DB) AddMembership(ctx context.Context, m *models.Membership) error {
	return insertMembership(ctx, d.Pool, m)
}

// GetMembership returns userID's membership of orgID.
func (d *DB) GetMembership(ctx context.Context, orgID, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := d.Pool.QueryRow(ctx, `
		SELECT organisation_id, user_id, role, can_create_projects, can_create_funding, can_manage_members, created_at
		FROM organisation_members WHERE organisation_id = $1 AND user_id = $2
	`, orgID, userID).Scan(
		&m.OrganisationID, &m.UserID, &m.Role, &m.CanCreateProjects, &m.CanCreateFunding, &m.CanManageMembers, &m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMembershipNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMembers returns the members of an organisation, owners first.
func (d *DB) ListMembers(ctx context.Context, orgID uuid.UUID) ([]models.Membership, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT organisation_id, user_id, role, can_create_projects, can_create_funding, can_manage_members, created_at
		FROM organisation_members WHERE organisation_id = $1
		ORDER BY CASE role WHEN 'owner' THEN 0 WHEN 'admin' THEN 1 ELSE 2 END, created_at
	`, orgID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[models.Membership])
}

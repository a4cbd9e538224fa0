package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"taskforce/internal/models"
)

// ProjectFilter narrows project lists and markers.
type ProjectFilter struct {
	SDGs            []int
	IFRCChallenges  []string
	Categories      []string
	OrganisationIDs []uuid.UUID
}

func (f ProjectFilter) apply(w *whereBuilder) {
	if len(f.SDGs) > 0 {
		w.add("id IN (SELECT project_id FROM project_sdgs WHERE sdg = ANY(?::smallint[]))", f.SDGs)
	}
	if len(f.IFRCChallenges) > 0 {
		w.add("id IN (SELECT project_id FROM project_ifrc_challenges WHERE challenge = ANY(?::text[]))", f.IFRCChallenges)
	}
	if len(f.Categories) > 0 {
		w.add("category = ANY(?::text[])", f.Categories)
	}
	if len(f.OrganisationIDs) > 0 {
		ids := uuidStrings(f.OrganisationIDs)
		w.add("(organisation_id = ANY(?::uuid[]) OR id IN (SELECT project_id FROM project_partners WHERE organisation_id = ANY(?::uuid[])))", ids, ids)
	}
}

const projectCols = `id, title, description, category, lat, lng, place_name, organisation_id,
	created_by, created_at, updated_at, moderation_status, approved_at, approved_by,
	rejected_at, rejected_by, rejection_reason`

func scanProject(row pgx.CollectableRow) (models.Project, error) {
	var p models.Project
	var loc location
	dest := []any{&p.ID, &p.Title, &p.Description, &p.Category}
	dest = append(dest, loc.dest()...)
	dest = append(dest, &p.OrganisationID, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	dest = append(dest, moderationDest(&p.Moderation)...)
	if err := row.Scan(dest...); err != nil {
		return p, err
	}
	p.Location = loc.value()
	return p, nil
}

// CreateProject inserts a pending project and its child rows in one
// transaction. A failure on any child rolls back the project itself.
func (d *DB) CreateProject(ctx context.Context, p *models.Project, children models.ProjectChildren) error {
	return d.WithTx(ctx, func(tx pgx.Tx) error {
		lat, lng, place := locationArgs(p.Location)
		err := tx.QueryRow(ctx, `
			INSERT INTO projects (title, description, category, lat, lng, place_name, organisation_id, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, moderation_status, created_at, updated_at
		`, p.Title, p.Description, p.Category, lat, lng, place, p.OrganisationID, p.CreatedBy,
		).Scan(&p.ID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return mapConstraint(err)
		}
		return insertProjectChildren(ctx, tx, p.ID, children)
	})
}

// UpdateProject replaces a project's mutable fields and every child
// collection. Moderation fields are left untouched.
func (d *DB) UpdateProject(ctx context.Context, p *models.Project, children models.ProjectChildren) error {
	return d.WithTx(ctx, func(tx pgx.Tx) error {
		lat, lng, place := locationArgs(p.Location)
		err := tx.QueryRow(ctx, `
			UPDATE projects SET
				title = $1, description = $2, category = $3, lat = $4, lng = $5,
				place_name = $6, organisation_id = $7, updated_at = NOW()
			WHERE id = $8
			RETURNING updated_at
		`, p.Title, p.Description, p.Category, lat, lng, place, p.OrganisationID, p.ID,
		).Scan(&p.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProjectNotFound
		}
		if err != nil {
			return mapConstraint(err)
		}

		for _, table := range []string{"project_links", "project_partners", "project_sdgs", "project_ifrc_challenges"} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE project_id = $1`, p.ID); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return insertProjectChildren(ctx, tx, p.ID, children)
	})
}

func insertProjectChildren(ctx context.Context, q querier, id uuid.UUID, c models.ProjectChildren) error {
	if len(c.Links) > 0 {
		rows := make([][]any, len(c.Links))
		for i, l := range c.Links {
			rows[i] = []any{id, int32(i), l.URL, l.Label}
		}
		if _, err := q.CopyFrom(ctx, pgx.Identifier{"project_links"},
			[]string{"project_id", "position", "url", "label"}, pgx.CopyFromRows(rows)); err != nil {
			return mapConstraint(err)
		}
	}
	if len(c.PartnerIDs) > 0 {
		rows := make([][]any, len(c.PartnerIDs))
		for i, org := range c.PartnerIDs {
			rows[i] = []any{id, org}
		}
		if _, err := q.CopyFrom(ctx, pgx.Identifier{"project_partners"},
			[]string{"project_id", "organisation_id"}, pgx.CopyFromRows(rows)); err != nil {
			return mapConstraint(err)
		}
	}
	if len(c.SDGs) > 0 {
		rows := make([][]any, len(c.SDGs))
		for i, sdg := range c.SDGs {
			rows[i] = []any{id, int16(sdg)}
		}
		if _, err := q.CopyFrom(ctx, pgx.Identifier{"project_sdgs"},
			[]string{"project_id", "sdg"}, pgx.CopyFromRows(rows)); err != nil {
			return mapConstraint(err)
		}
	}
	if len(c.IFRCChallenges) > 0 {
		rows := make([][]any, len(c.IFRCChallenges))
		for i, slug := range c.IFRCChallenges {
			rows[i] = []any{id, slug}
		}
		if _, err := q.CopyFrom(ctx, pgx.Identifier{"project_ifrc_challenges"},
			[]string{"project_id", "challenge"}, pgx.CopyFromRows(rows)); err != nil {
			return mapConstraint(err)
		}
	}
	return nil
}

// GetProjectByID returns a project with its child collections.
func (d *DB) GetProjectByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+projectCols+` FROM projects WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProject)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err = d.Pool.Query(ctx, `SELECT url, label FROM project_links WHERE project_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	if p.Links, err = pgx.CollectRows(rows, pgx.RowToStructByPos[models.ProjectLink]); err != nil {
		return nil, err
	}

	rows, err = d.Pool.Query(ctx, `SELECT organisation_id FROM project_partners WHERE project_id = $1 ORDER BY organisation_id`, id)
	if err != nil {
		return nil, err
	}
	if p.PartnerIDs, err = pgx.CollectRows(rows, pgx.RowTo[uuid.UUID]); err != nil {
		return nil, err
	}

	rows, err = d.Pool.Query(ctx, `SELECT sdg::int FROM project_sdgs WHERE project_id = $1 ORDER BY sdg`, id)
	if err != nil {
		return nil, err
	}
	if p.SDGs, err = pgx.CollectRows(rows, pgx.RowTo[int]); err != nil {
		return nil, err
	}

	rows, err = d.Pool.Query(ctx, `SELECT challenge FROM project_ifrc_challenges WHERE project_id = $1 ORDER BY challenge`, id)
	if err != nil {
		return nil, err
	}
	if p.IFRCChallenges, err = pgx.CollectRows(rows, pgx.RowTo[string]); err != nil {
		return nil, err
	}

	return &p, nil
}

// ListProjects returns one page of visible projects matching f.
func (d *DB) ListProjects(ctx context.Context, f ProjectFilter, opts ListOptions) (*Page[models.Project], error) {
	var w whereBuilder
	w.visible(models.KindProject, opts)
	w.search(opts.Query, "title", "description")
	f.apply(&w)
	return listPage(ctx, d.Pool, "projects", projectCols, models.KindProject, &w, opts, scanProject)
}

// ProjectMarkers returns map markers for approved projects matching f.
func (d *DB) ProjectMarkers(ctx context.Context, f ProjectFilter, limit int) ([]models.Marker, error) {
	var w whereBuilder
	w.visible(models.KindProject, ListOptions{})
	f.apply(&w)
	return markers(ctx, d.Pool, "projects", "title", models.KindProject, &w, limit)
}

// ProjectsByCreator returns every project created by userID, newest first.
func (d *DB) ProjectsByCreator(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+projectCols+` FROM projects WHERE created_by = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanProject)
}

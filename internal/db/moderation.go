package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"taskforce/internal/models"
)

// moderatedTable describes where a kind's rows and audit columns live.
type moderatedTable struct {
	name       string
	titleCol   string
	approvedAt string
	approvedBy string
}

var moderatedTables = map[models.Kind]moderatedTable{
	models.KindProject:      {name: "projects", titleCol: "title", approvedAt: "approved_at", approvedBy: "approved_by"},
	models.KindOrganisation: {name: "organisations", titleCol: "name", approvedAt: "verified_at", approvedBy: "verified_by"},
	models.KindGrant:        {name: "grants", titleCol: "title", approvedAt: "approved_at", approvedBy: "approved_by"},
	models.KindWatchdog:     {name: "watchdog_issues", titleCol: "title", approvedAt: "approved_at", approvedBy: "approved_by"},
}

func tableFor(kind models.Kind) (moderatedTable, error) {
	t, ok := moderatedTables[kind]
	if !ok {
		return t, fmt.Errorf("unknown kind %q", kind)
	}
	return t, nil
}

// moderationCols lists the shared moderation columns in the order
// moderationDest scans them.
func (t moderatedTable) moderationCols() string {
	return "moderation_status, " + t.approvedAt + ", " + t.approvedBy + ", rejected_at, rejected_by, rejection_reason"
}

func moderationDest(m *models.Moderation) []any {
	return []any{&m.Status, &m.ApprovedAt, &m.ApprovedBy, &m.RejectedAt, &m.RejectedBy, &m.RejectionReason}
}

// IsAdmin calls the is_admin helper for userID.
func (d *DB) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var ok bool
	err := d.Pool.QueryRow(ctx, `SELECT is_admin($1)`, userID).Scan(&ok)
	return ok, err
}

// IsSuperadmin calls the is_superadmin helper for userID.
func (d *DB) IsSuperadmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var ok bool
	err := d.Pool.QueryRow(ctx, `SELECT is_superadmin($1)`, userID).Scan(&ok)
	return ok, err
}

// UserCanEditProject calls the user_can_edit_project helper.
func (d *DB) UserCanEditProject(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := d.Pool.QueryRow(ctx, `SELECT user_can_edit_project($1, $2)`, projectID, userID).Scan(&ok)
	return ok, err
}

// Transition locks the item, lets fn mutate its moderation fields and writes
// the result together with the returned audit events in one transaction.
func (d *DB) Transition(ctx context.Context, kind models.Kind, id uuid.UUID, fn models.TransitionFunc) (*models.ModerationItem, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	var item *models.ModerationItem
	err = d.WithTx(ctx, func(tx pgx.Tx) error {
		locked, err := lockItem(ctx, tx, kind, t, id)
		if err != nil {
			return err
		}
		item = locked

		events, err := fn(item)
		if err != nil {
			return err
		}

		m := item.Moderation
		_, err = tx.Exec(ctx, `
			UPDATE `+t.name+` SET
				moderation_status = $1, `+t.approvedAt+` = $2, `+t.approvedBy+` = $3,
				rejected_at = $4, rejected_by = $5, rejection_reason = $6, updated_at = NOW()
			WHERE id = $7
		`, m.Status, m.ApprovedAt, m.ApprovedBy, m.RejectedAt, m.RejectedBy, m.RejectionReason, id)
		if err != nil {
			return mapConstraint(err)
		}

		return insertEvents(ctx, tx, events)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func lockItem(ctx context.Context, q querier, kind models.Kind, t moderatedTable, id uuid.UUID) (*models.ModerationItem, error) {
	item := &models.ModerationItem{Kind: kind}
	dest := append([]any{&item.ID, &item.Title, &item.CreatedBy, &item.CreatedAt}, moderationDest(&item.Moderation)...)
	err := q.QueryRow(ctx, `
		SELECT id, `+t.titleCol+`, created_by, created_at, `+t.moderationCols()+`
		FROM `+t.name+` WHERE id = $1 FOR UPDATE
	`, id).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func insertEvents(ctx context.Context, q querier, events []models.ModerationEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([][]any, len(events))
	for i, e := range events {
		rows[i] = []any{string(e.Kind), e.ItemID, string(e.FromStatus), string(e.ToStatus), e.ActorID, e.Reason}
	}
	_, err := q.CopyFrom(ctx,
		pgx.Identifier{"moderation_events"},
		[]string{"kind", "item_id", "from_status", "to_status", "actor_id", "reason"},
		pgx.CopyFromRows(rows),
	)
	return mapConstraint(err)
}

// GetModerationItem returns the review projection of a single item.
func (d *DB) GetModerationItem(ctx context.Context, kind models.Kind, id uuid.UUID) (*models.ModerationItem, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	item := &models.ModerationItem{Kind: kind}
	dest := append([]any{&item.ID, &item.Title, &item.CreatedBy, &item.CreatedAt}, moderationDest(&item.Moderation)...)
	err = d.Pool.QueryRow(ctx, `
		SELECT id, `+t.titleCol+`, created_by, created_at, `+t.moderationCols()+`
		FROM `+t.name+` WHERE id = $1
	`, id).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// PendingItems returns up to limit items awaiting review, newest first.
func (d *DB) PendingItems(ctx context.Context, kind models.Kind, limit int) ([]models.ModerationItem, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := d.Pool.Query(ctx, `
		SELECT id, `+t.titleCol+`, created_by, created_at, `+t.moderationCols()+`
		FROM `+t.name+`
		WHERE moderation_status = 'pending'
		ORDER BY created_at DESC, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ModerationItem, error) {
		item := models.ModerationItem{Kind: kind}
		dest := append([]any{&item.ID, &item.Title, &item.CreatedBy, &item.CreatedAt}, moderationDest(&item.Moderation)...)
		err := row.Scan(dest...)
		return item, err
	})
}

// PendingCounts returns the number of pending items per kind.
func (d *DB) PendingCounts(ctx context.Context) (map[models.Kind]int64, error) {
	counts := make(map[models.Kind]int64, len(models.Kinds))
	for _, kind := range models.Kinds {
		t := moderatedTables[kind]
		var n int64
		err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+t.name+` WHERE moderation_status = 'pending'`).Scan(&n)
		if err != nil {
			return nil, fmt.Errorf("count pending %s: %w", t.name, err)
		}
		counts[kind] = n
	}
	return counts, nil
}

// ModerationEvents returns the audit log for an item, oldest first.
func (d *DB) ModerationEvents(ctx context.Context, kind models.Kind, id uuid.UUID) ([]models.ModerationEvent, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, kind, item_id, from_status, to_status, actor_id, reason, created_at
		FROM moderation_events
		WHERE kind = $1 AND item_id = $2
		ORDER BY id
	`, string(kind), id)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ModerationEvent, error) {
		var e models.ModerationEvent
		err := row.Scan(&e.ID, &e.Kind, &e.ItemID, &e.FromStatus, &e.ToStatus, &e.ActorID, &e.Reason, &e.CreatedAt)
		return e, err
	})
}

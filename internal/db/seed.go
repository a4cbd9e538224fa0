package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SeedDev inserts a development admin and a handful of approved rows so the
// map and lists have something to show. Does nothing once projects exist.
func (d *DB) SeedDev(ctx context.Context) error {
	var n int
	if err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n); err != nil {
		return fmt.Errorf("failed to count projects: %w", err)
	}
	if n > 0 {
		return nil
	}

	return d.WithTx(ctx, func(tx pgx.Tx) error {
		var adminID string
		err := tx.QueryRow(ctx, `
			INSERT INTO users (sub, email, name, role)
			VALUES ('dev-admin', 'admin@taskforce.local', 'Dev Admin', 'superadmin')
			ON CONFLICT (sub) DO UPDATE SET role = 'superadmin'
			RETURNING id
		`).Scan(&adminID)
		if err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}

		var orgID string
		err = tx.QueryRow(ctx, `
			INSERT INTO organisations (name, description, country, lat, lng, place_name, created_by,
				moderation_status, verified_at, verified_by)
			VALUES ('Solar Commons', 'Community-owned solar cooperatives', 'KE', -1.2921, 36.8219, 'Nairobi', $1,
				'verified', NOW(), $1)
			RETURNING id
		`, adminID).Scan(&orgID)
		if err != nil {
			return fmt.Errorf("failed to seed organisation: %w", err)
		}

		projects := []struct {
			title, category string
			lat, lng        float64
			place           string
		}{
			{"Rooftop solar for clinics", "energy", -1.2864, 36.8172, "Nairobi"},
			{"Mangrove restoration", "biodiversity", -4.0435, 39.6682, "Mombasa"},
			{"Rainwater harvesting in schools", "water", 0.5143, 35.2698, "Eldoret"},
		}
		for _, p := range projects {
			_, err := tx.Exec(ctx, `
				INSERT INTO projects (title, description, category, lat, lng, place_name, organisation_id, created_by,
					moderation_status, approved_at, approved_by)
				VALUES ($1, $1, $2, $3, $4, $5, $6, $7, 'approved', NOW(), $7)
			`, p.title, p.category, p.lat, p.lng, p.place, orgID, adminID)
			if err != nil {
				return fmt.Errorf("failed to seed project %s: %w", p.title, err)
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO watchdog_issues (title, description, category, severity, lat, lng, place_name, created_by)
			VALUES ('Illegal dumping near river', 'Reported by residents', 'illegal-dumping', 'high', -1.3, 36.85, 'Nairobi River', $1)
		`, adminID)
		if err != nil {
			return fmt.Errorf("failed to seed watchdog issue: %w", err)
		}
		return nil
	})
}

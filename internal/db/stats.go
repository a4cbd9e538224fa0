package db

import (
	"context"

	"taskforce/internal/models"
)

// HomeStats calls get_home_stats.
func (d *DB) HomeStats(ctx context.Context) (*models.HomeStats, error) {
	var s models.HomeStats
	err := d.Pool.QueryRow(ctx, `SELECT projects, organisations, grants, issues, members FROM get_home_stats()`).
		Scan(&s.Projects, &s.Organisations, &s.Grants, &s.Issues, &s.Members)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"os"
	"testing"

	"taskforce/internal/db"
	"taskforce/internal/models"
)

// tables lists every table in delete order so foreign keys hold.
var tables = []string{
	"moderation_events", "notifications", "follows",
	"watchdog_links", "watchdog_issues", "grant_sdgs", "grants",
	"project_ifrc_challenges", "project_sdgs", "project_partners", "project_links", "projects",
	"organisation_members", "organisations", "users",
}

// DatabaseURL returns TEST_DATABASE_URL, skipping the test when it is not
// set.
func DatabaseURL(t *testing.T) string {
	t.Helper()
	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}
	return connString
}

// TestDB creates a migrated, empty test database connection and returns a
// cleanup function.
func TestDB(t *testing.T) (*db.DB, func()) {
	t.Helper()
	connString := DatabaseURL(t)

	ctx := context.Background()
	database, err := db.New(ctx, connString, "")
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(connString); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanupTestData(ctx, database)
	cleanup := func() {
		cleanupTestData(ctx, database)
		database.Close()
	}

	return database, cleanup
}

func cleanupTestData(ctx context.Context, database *db.DB) {
	for _, table := range tables {
		database.Pool.Exec(ctx, "DELETE FROM "+table)
	}
}

// CreateTestUser creates a user with role and returns it.
func CreateTestUser(t *testing.T, database *db.DB, sub, role string) *models.User {
	t.Helper()
	u := &models.User{Sub: sub, Email: sub + "@example.org", Name: "Test User " + sub, Role: role}
	if err := database.UpsertUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateTestProject creates a pending project owned by creator.
func CreateTestProject(t *testing.T, database *db.DB, title string, creator *models.User) *models.Project {
	t.Helper()
	p := &models.Project{
		Title:       title,
		Description: title + " description",
		Location:    &models.Location{Lat: -1.28, Lng: 36.82, PlaceName: "Nairobi"},
		CreatedBy:   &creator.ID,
	}
	if err := database.CreateProject(context.Background(), p, models.ProjectChildren{}); err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return p
}

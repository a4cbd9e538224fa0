package listing

import (
	"context"
	"errors"
	"math"
	"net/url"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskforce/internal/db"
	"taskforce/internal/models"
)

type fakeStore struct {
	mu  sync.Mutex
	err error

	projectFilter db.ProjectFilter
	opts          db.ListOptions
	limits        map[models.Kind]int
	projects      []models.Project
	total         int64
}

func (f *fakeStore) ListProjects(_ context.Context, filter db.ProjectFilter, opts db.ListOptions) (*db.Page[models.Project], error) {
	f.projectFilter, f.opts = filter, opts
	if f.err != nil {
		return nil, f.err
	}
	return &db.Page[models.Project]{Rows: f.projects, Total: f.total}, nil
}

func (f *fakeStore) ListOrganisations(_ context.Context, _ db.OrganisationFilter, opts db.ListOptions) (*db.Page[models.Organisation], error) {
	f.opts = opts
	return &db.Page[models.Organisation]{}, f.err
}

func (f *fakeStore) ListGrants(_ context.Context, _ db.GrantFilter, opts db.ListOptions) (*db.Page[models.Grant], error) {
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &db.Page[models.Grant]{Rows: []models.Grant{{Title: "Fund"}}, Total: 1}, nil
}

func (f *fakeStore) ListWatchdogIssues(_ context.Context, _ db.WatchdogFilter, opts db.ListOptions) (*db.Page[models.WatchdogIssue], error) {
	f.opts = opts
	return nil, f.err
}

func (f *fakeStore) marker(kind models.Kind, limit int) ([]models.Marker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.limits == nil {
		f.limits = map[models.Kind]int{}
	}
	f.limits[kind] = limit
	if f.err != nil && kind == models.KindGrant {
		return nil, f.err
	}
	return []models.Marker{{Kind: kind, ID: uuid.NewString(), Lat: 1, Lng: 2}}, nil
}

func (f *fakeStore) ProjectMarkers(_ context.Context, _ db.ProjectFilter, limit int) ([]models.Marker, error) {
	return f.marker(models.KindProject, limit)
}

func (f *fakeStore) OrganisationMarkers(_ context.Context, _ db.OrganisationFilter, limit int) ([]models.Marker, error) {
	return f.marker(models.KindOrganisation, limit)
}

func (f *fakeStore) GrantMarkers(_ context.Context, _ db.GrantFilter, limit int) ([]models.Marker, error) {
	return f.marker(models.KindGrant, limit)
}

func (f *fakeStore) WatchdogMarkers(_ context.Context, _ db.WatchdogFilter, limit int) ([]models.Marker, error) {
	return f.marker(models.KindWatchdog, limit)
}

func TestProjects_ParsesParams(t *testing.T) {
	store := &fakeStore{projects: []models.Project{{Title: "A"}}, total: 49}
	svc := NewService(store, nil)
	org := uuid.New()

	params := url.Values{
		"page":     {"3"},
		"q":        {"  solar  "},
		"sort":     {"-title"},
		"sdg":      {"7,13", "99", "x", "13"},
		"ifrc":     {"climate-environment,bogus"},
		"category": {"energy", ""},
		"org":      {org.String() + ",not-a-uuid"},
	}
	res := svc.Projects(context.Background(), params, nil)

	assert.Equal(t, 3, res.Page)
	assert.Equal(t, int64(49), res.TotalCount)
	assert.Equal(t, 3, res.PageCount)
	assert.Len(t, res.Rows, 1)

	assert.Equal(t, "solar", store.opts.Query)
	assert.Equal(t, "title", store.opts.Sort)
	assert.True(t, store.opts.Desc)
	assert.Equal(t, PageSize, store.opts.PageSize)
	assert.Nil(t, store.opts.Viewer)

	assert.Equal(t, []int{7, 13, 13}, store.projectFilter.SDGs)
	assert.Equal(t, []string{"climate-environment"}, store.projectFilter.IFRCChallenges)
	assert.Equal(t, []string{"energy"}, store.projectFilter.Categories)
	assert.Equal(t, []uuid.UUID{org}, store.projectFilter.OrganisationIDs)
}

func TestOptions(t *testing.T) {
	viewer := &models.User{ID: uuid.New()}

	tests := []struct {
		name       string
		params     url.Values
		viewer     *models.User
		wantPage   int
		wantSort   string
		wantDesc   bool
		includeOwn bool
	}{
		{"defaults", url.Values{}, nil, 1, "", false, false},
		{"page clamped", url.Values{"page": {"-4"}}, nil, 1, "", false, false},
		{"page garbage", url.Values{"page": {"two"}}, nil, 1, "", false, false},
		{"page huge", url.Values{"page": {"9000000000000000000"}}, nil, maxPage, "", false, false},
		{"page past int64", url.Values{"page": {"99999999999999999999"}}, nil, 1, "", false, false},
		{"sort ascending", url.Values{"sort": {"category"}}, nil, 1, "category", false, false},
		{"sort not allowed", url.Values{"sort": {"-password; drop table"}}, nil, 1, "", false, false},
		{"mine anonymous", url.Values{"mine": {"1"}}, nil, 1, "", false, false},
		{"mine signed in", url.Values{"mine": {"1"}}, viewer, 1, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options(models.KindProject, tt.params, tt.viewer)
			assert.Equal(t, tt.wantPage, opts.Page)
			assert.Equal(t, tt.wantSort, opts.Sort)
			assert.Equal(t, tt.wantDesc, opts.Desc)
			assert.Equal(t, tt.includeOwn, opts.IncludeOwn)
			assert.LessOrEqual(t, (opts.Page-1)*opts.PageSize, math.MaxInt32, "row offset fits int32")
		})
	}
}

func TestFilters(t *testing.T) {
	svc := NewService(&fakeStore{}, nil)

	g := GrantFilter(url.Values{
		"currency":       {"eur,xxx", "gbp"},
		"min_amount":     {"1000"},
		"max_amount":     {"-5"},
		"deadline_after": {"2026-06-01"},
	}, svc.catalog)
	assert.Equal(t, []string{"EUR", "GBP"}, g.Currencies)
	require.NotNil(t, g.MinAmount)
	assert.Equal(t, 1000.0, *g.MinAmount)
	assert.Nil(t, g.MaxAmount)
	require.NotNil(t, g.DeadlineAfter)
	assert.Equal(t, 6, int(g.DeadlineAfter.Month()))

	o := OrganisationFilter(url.Values{"country": {"ke, gb ,Kenya"}})
	assert.Equal(t, []string{"KE", "GB"}, o.Countries)

	w := WatchdogFilter(url.Values{"category": {"pollution,lava"}, "severity": {"HIGH", "extreme"}}, svc.catalog)
	assert.Equal(t, []string{"pollution"}, w.Categories)
	assert.Equal(t, []string{"high"}, w.Severities)
}

func TestUpstreamFailureDegradesToEmpty(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	svc := NewService(store, nil)
	ctx := context.Background()

	projects := svc.Projects(ctx, url.Values{"page": {"2"}}, nil)
	assert.NotNil(t, projects.Rows)
	assert.Empty(t, projects.Rows)
	assert.Zero(t, projects.TotalCount)
	assert.Equal(t, 2, projects.Page)

	grants := svc.Grants(ctx, url.Values{}, nil)
	assert.Empty(t, grants.Rows)
	assert.Zero(t, grants.TotalCount)

	issues := svc.WatchdogIssues(ctx, url.Values{}, nil)
	assert.NotNil(t, issues.Rows)
	assert.Zero(t, issues.PageCount)

	assert.Empty(t, svc.Markers(ctx, models.KindGrant, url.Values{}))
}

func TestMarkers_Caps(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil)
	ctx := context.Background()

	for _, kind := range models.Kinds {
		assert.Len(t, svc.Markers(ctx, kind, url.Values{}), 1)
	}
	assert.Equal(t, MaxProjectMarkers, store.limits[models.KindProject])
	assert.Equal(t, MaxOrganisationMarkers, store.limits[models.KindOrganisation])
	assert.Equal(t, MaxGrantMarkers, store.limits[models.KindGrant])
	assert.Equal(t, MaxWatchdogMarkers, store.limits[models.KindWatchdog])

	assert.Empty(t, svc.Markers(ctx, "links", url.Values{}))
}

func TestHomeMarkers_DegradesPerKind(t *testing.T) {
	store := &fakeStore{err: errors.New("timeout")}
	svc := NewService(store, nil)

	markers := svc.HomeMarkers(context.Background())
	require.Len(t, markers, len(models.Kinds))
	assert.Empty(t, markers[models.KindGrant])
	assert.Len(t, markers[models.KindProject], 1)
	assert.Len(t, markers[models.KindWatchdog], 1)
}

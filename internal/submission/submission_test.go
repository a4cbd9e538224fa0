package submission

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskforce/internal/apperr"
	"taskforce/internal/models"
)

type fakeStore struct {
	admins      map[uuid.UUID]bool
	editors     map[uuid.UUID]uuid.UUID
	projects    map[uuid.UUID]*models.Project
	children    map[uuid.UUID]models.ProjectChildren
	grants      []*models.Grant
	issues      []*models.WatchdogIssue
	orgs        map[uuid.UUID]*models.Organisation
	memberships map[[2]uuid.UUID]*models.Membership
	createErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		admins:      map[uuid.UUID]bool{},
		editors:     map[uuid.UUID]uuid.UUID{},
		projects:    map[uuid.UUID]*models.Project{},
		children:    map[uuid.UUID]models.ProjectChildren{},
		orgs:        map[uuid.UUID]*models.Organisation{},
		memberships: map[[2]uuid.UUID]*models.Membership{},
	}
}

func (f *fakeStore) IsAdmin(_ context.Context, id uuid.UUID) (bool, error) {
	return f.admins[id], nil
}

func (f *fakeStore) UserCanEditProject(_ context.Context, projectID, userID uuid.UUID) (bool, error) {
	return f.editors[projectID] == userID || f.admins[userID], nil
}

func (f *fakeStore) CreateProject(_ context.Context, p *models.Project, c models.ProjectChildren) error {
	if f.createErr != nil {
		return f.createErr
	}
	p.ID = uuid.New()
	p.Status = models.StatusPending
	f.projects[p.ID] = p
	f.children[p.ID] = c
	if p.CreatedBy != nil {
		f.editors[p.ID] = *p.CreatedBy
	}
	return nil
}

func (f *fakeStore) UpdateProject(_ context.Context, p *models.Project, c models.ProjectChildren) error {
	existing, ok := f.projects[p.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	p.Moderation = existing.Moderation
	p.CreatedBy = existing.CreatedBy
	f.projects[p.ID] = p
	f.children[p.ID] = c
	return nil
}

func (f *fakeStore) GetProjectByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (f *fakeStore) CreateGrant(_ context.Context, g *models.Grant) error {
	g.ID = uuid.New()
	g.Status = models.StatusPending
	f.grants = append(f.grants, g)
	return nil
}

func (f *fakeStore) CreateWatchdogIssue(_ context.Context, issue *models.WatchdogIssue) error {
	issue.ID = uuid.New()
	issue.Status = models.StatusPending
	f.issues = append(f.issues, issue)
	return nil
}

func (f *fakeStore) CreateOrganisation(_ context.Context, o *models.Organisation) error {
	o.ID = uuid.New()
	o.Status = models.StatusPending
	f.orgs[o.ID] = o
	owner := models.OwnerMembership(o.ID, *o.CreatedBy)
	f.memberships[[2]uuid.UUID{o.ID, *o.CreatedBy}] = &owner
	return nil
}

func (f *fakeStore) GetOrganisationByID(_ context.Context, id uuid.UUID) (*models.Organisation, error) {
	o, ok := f.orgs[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return o, nil
}

func (f *fakeStore) GetMembership(_ context.Context, orgID, userID uuid.UUID) (*models.Membership, error) {
	m, ok := f.memberships[[2]uuid.UUID{orgID, userID}]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return m, nil
}

func (f *fakeStore) AddMembership(_ context.Context, m *models.Membership) error {
	f.memberships[[2]uuid.UUID{m.OrganisationID, m.UserID}] = m
	return nil
}

type fakeNotifier struct {
	items []models.ModerationItem
}

func (n *fakeNotifier) NotifySubmitted(_ context.Context, item *models.ModerationItem, _ *models.User) {
	n.items = append(n.items, *item)
}

func setup() (*Service, *fakeStore, *fakeNotifier, *models.User) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	return NewService(store, nil, notifier), store, notifier, &models.User{ID: uuid.New(), Email: "ada@example.org"}
}

func ptr(f float64) *float64 { return &f }

func TestSubmitProject_NameAlias(t *testing.T) {
	svc, store, notifier, user := setup()

	var p ProjectPayload
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": "Clean Water Nairobi",
		"description": "Boreholes and filters for informal settlements",
		"location": {"lat": -1.28, "lng": 36.82, "place_name": "Nairobi"}
	}`), &p))

	res, err := svc.SubmitProject(context.Background(), p, user)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, res.Status)

	saved := store.projects[res.ID]
	require.NotNil(t, saved)
	assert.Equal(t, "Clean Water Nairobi", saved.Title)
	assert.Equal(t, user.ID, *saved.CreatedBy)
	require.NotNil(t, saved.Location)
	assert.Equal(t, "Nairobi", saved.Location.PlaceName)

	require.Len(t, notifier.items, 1)
	assert.Equal(t, models.KindProject, notifier.items[0].Kind)
	assert.Equal(t, res.ID, notifier.items[0].ID)
}

func TestSubmitProject_Validation(t *testing.T) {
	tests := []struct {
		name   string
		p      ProjectPayload
		fields []string
	}{
		{
			name:   "empty title",
			p:      ProjectPayload{Title: "  ", Description: "something"},
			fields: []string{"title"},
		},
		{
			name:   "no description and no links",
			p:      ProjectPayload{Title: "Seed bank"},
			fields: []string{"description"},
		},
		{
			name: "bad taxonomy and link",
			p: ProjectPayload{
				Title:          "Seed bank",
				SDGs:           []int{2, 19},
				IFRCChallenges: []string{"nope"},
				Links:          []LinkPayload{{URL: "http://127.0.0.1/admin"}},
			},
			fields: []string{"sdgs[1]", "ifrc_challenges[0]", "links[0].url"},
		},
		{
			name: "location out of range",
			p: ProjectPayload{
				Title:       "Seed bank",
				Description: "x",
				Location:    &LocationPayload{Lat: ptr(95), Lng: ptr(10)},
			},
			fields: []string{"location.lat"},
		},
		{
			name:   "duplicate partners",
			p:      ProjectPayload{Title: "Seed bank", Description: "x", PartnerIDs: []string{"a", "a"}},
			fields: []string{"partner_ids"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, notifier, user := setup()
			_, err := svc.SubmitProject(context.Background(), tt.p, user)
			require.Error(t, err)

			var verr *apperr.ValidationError
			require.True(t, errors.As(err, &verr), "want ValidationError, got %v", err)
			for _, f := range tt.fields {
				assert.True(t, verr.Has(f), "missing field error for %s in %v", f, verr.Fields)
			}
			assert.Empty(t, store.projects)
			assert.Empty(t, notifier.items)
		})
	}
}

func TestSubmitProject_Unauthenticated(t *testing.T) {
	svc, store, _, _ := setup()
	_, err := svc.SubmitProject(context.Background(), ProjectPayload{Title: "x", Description: "y"}, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Empty(t, store.projects)
}

func TestSubmitProject_StoreFailure(t *testing.T) {
	svc, store, notifier, user := setup()
	store.createErr = apperr.Constraint("a referenced record does not exist", nil)

	_, err := svc.SubmitProject(context.Background(), ProjectPayload{
		Title:       "Partnered",
		Description: "x",
		PartnerIDs:  []string{uuid.NewString()},
	}, user)
	var cerr *apperr.ConstraintError
	assert.True(t, errors.As(err, &cerr))
	assert.Empty(t, notifier.items)
}

func TestSubmitProject_OrganisationCapability(t *testing.T) {
	svc, store, _, user := setup()
	ctx := context.Background()
	owner := &models.User{ID: uuid.New()}
	org, err := svc.CreateOrganisation(ctx, OrganisationPayload{Name: "Solar Commons"}, owner)
	require.NoError(t, err)

	p := ProjectPayload{Title: "Rooftops", Description: "x", OrganisationID: org.ID.String()}

	_, err = svc.SubmitProject(ctx, p, user)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	store.memberships[[2]uuid.UUID{org.ID, user.ID}] = &models.Membership{
		OrganisationID: org.ID, UserID: user.ID, Role: models.MemberRoleMember, CanCreateProjects: true,
	}
	res, err := svc.SubmitProject(ctx, p, user)
	require.NoError(t, err)
	assert.Equal(t, org.ID, *store.projects[res.ID].OrganisationID)
}

func TestUpdateProject(t *testing.T) {
	svc, store, _, user := setup()
	ctx := context.Background()

	res, err := svc.SubmitProject(ctx, ProjectPayload{
		Title: "Mangroves", Description: "x", SDGs: []int{13, 14},
	}, user)
	require.NoError(t, err)
	store.projects[res.ID].Status = models.StatusApproved

	updated, err := svc.UpdateProject(ctx, res.ID, ProjectPayload{
		Title: "Mangrove restoration",
		Links: []LinkPayload{{URL: "https://example.org/mangroves"}},
		SDGs:  []int{14},
	}, user)
	require.NoError(t, err)
	assert.Equal(t, "Mangrove restoration", updated.Title)
	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.Equal(t, []int{14}, store.children[res.ID].SDGs)
	assert.Len(t, store.children[res.ID].Links, 1)
}

func TestUpdateProject_Access(t *testing.T) {
	svc, _, _, user := setup()
	ctx := context.Background()

	res, err := svc.SubmitProject(ctx, ProjectPayload{Title: "Mine", Description: "x"}, user)
	require.NoError(t, err)

	stranger := &models.User{ID: uuid.New()}
	_, err = svc.UpdateProject(ctx, res.ID, ProjectPayload{Title: "Theirs", Description: "x"}, stranger)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.UpdateProject(ctx, uuid.New(), ProjectPayload{Title: "Ghost", Description: "x"}, stranger)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.UpdateProject(ctx, res.ID, ProjectPayload{Title: "x", Description: "x"}, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestUpdateProject_OrganisationCapability(t *testing.T) {
	svc, store, _, user := setup()
	ctx := context.Background()

	org, err := svc.CreateOrganisation(ctx, OrganisationPayload{Name: "Solar Commons"}, &models.User{ID: uuid.New()})
	require.NoError(t, err)

	res, err := svc.SubmitProject(ctx, ProjectPayload{Title: "Rooftops", Description: "x"}, user)
	require.NoError(t, err)

	// The creator may edit the project but not attach it to a foreign organisation
	moved := ProjectPayload{Title: "Rooftops", Description: "x", OrganisationID: org.ID.String()}
	_, err = svc.UpdateProject(ctx, res.ID, moved, user)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Nil(t, store.projects[res.ID].OrganisationID)

	store.memberships[[2]uuid.UUID{org.ID, user.ID}] = &models.Membership{
		OrganisationID: org.ID, UserID: user.ID, Role: models.MemberRoleMember, CanCreateProjects: true,
	}
	got, err := svc.UpdateProject(ctx, res.ID, moved, user)
	require.NoError(t, err)
	require.NotNil(t, got.OrganisationID)
	assert.Equal(t, org.ID, *got.OrganisationID)

	// Editing a project already in the organisation needs no membership
	delete(store.memberships, [2]uuid.UUID{org.ID, user.ID})
	moved.Title = "Rooftops phase two"
	got, err = svc.UpdateProject(ctx, res.ID, moved, user)
	require.NoError(t, err)
	assert.Equal(t, "Rooftops phase two", got.Title)
}

func TestSubmitGrant(t *testing.T) {
	svc, store, _, user := setup()

	res, err := svc.SubmitGrant(context.Background(), GrantPayload{
		Title:     "Community Solar Fund",
		AmountMin: ptr(5000),
		AmountMax: ptr(20000),
		Deadline:  "2026-12-31",
		SDGs:      []int{7},
	}, user)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, res.Status)

	require.Len(t, store.grants, 1)
	g := store.grants[0]
	assert.Equal(t, "USD", g.Currency)
	require.NotNil(t, g.Deadline)
	assert.Equal(t, 2026, g.Deadline.Year())
}

func TestSubmitGrant_Validation(t *testing.T) {
	svc, store, _, user := setup()

	_, err := svc.SubmitGrant(context.Background(), GrantPayload{
		Title:     "Backwards",
		AmountMin: ptr(100),
		AmountMax: ptr(10),
		Currency:  "zzz",
		Deadline:  "31/12/2026",
	}, user)
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Has("amount_max"))
	assert.True(t, verr.Has("currency"))
	assert.True(t, verr.Has("deadline"))
	assert.Empty(t, store.grants)
}

func TestSubmitWatchdogIssue(t *testing.T) {
	svc, store, _, user := setup()
	ctx := context.Background()

	_, err := svc.SubmitWatchdogIssue(ctx, WatchdogPayload{
		Title: "Illegal dumping", Description: "Near the river", Category: "pollution",
	}, user)
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Has("location"))

	res, err := svc.SubmitWatchdogIssue(ctx, WatchdogPayload{
		Title:       "Illegal dumping",
		Description: "Near the river",
		Category:    "pollution",
		Location:    &LocationPayload{Lat: ptr(51.5), Lng: ptr(-0.12)},
	}, user)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, res.Status)
	require.Len(t, store.issues, 1)
	assert.Equal(t, models.SeverityMedium, store.issues[0].Severity)
}

func TestAddMember(t *testing.T) {
	svc, store, _, owner := setup()
	ctx := context.Background()

	org, err := svc.CreateOrganisation(ctx, OrganisationPayload{Name: "Solar Commons", Country: "ke"}, owner)
	require.NoError(t, err)
	assert.Equal(t, "KE", store.orgs[org.ID].Country)

	member := uuid.New()
	m, err := svc.AddMember(ctx, org.ID, MemberPayload{UserID: member.String(), CanCreateProjects: true}, owner)
	require.NoError(t, err)
	assert.Equal(t, models.MemberRoleMember, m.Role)

	// plain members cannot add others
	_, err = svc.AddMember(ctx, org.ID, MemberPayload{UserID: uuid.NewString()}, &models.User{ID: member})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	admin := &models.User{ID: uuid.New()}
	store.admins[admin.ID] = true
	_, err = svc.AddMember(ctx, org.ID, MemberPayload{UserID: uuid.NewString(), Role: "admin"}, admin)
	require.NoError(t, err)

	_, err = svc.AddMember(ctx, uuid.New(), MemberPayload{UserID: uuid.NewString()}, admin)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.AddMember(ctx, org.ID, MemberPayload{UserID: "not-a-uuid"}, owner)
	assert.True(t, apperr.Fields(err) != nil)
}

func TestAddMember_OwnerRole(t *testing.T) {
	svc, store, _, owner := setup()
	ctx := context.Background()

	org, err := svc.CreateOrganisation(ctx, OrganisationPayload{Name: "Solar Commons"}, owner)
	require.NoError(t, err)

	manager := &models.User{ID: uuid.New()}
	store.memberships[[2]uuid.UUID{org.ID, manager.ID}] = &models.Membership{
		OrganisationID: org.ID, UserID: manager.ID, Role: models.MemberRoleMember, CanManageMembers: true,
	}

	tests := []struct {
		name    string
		actor   *models.User
		role    string
		wantErr error
	}{
		{"manager adds member", manager, "", nil},
		{"manager adds admin", manager, models.MemberRoleAdmin, nil},
		{"manager cannot grant owner", manager, models.MemberRoleOwner, apperr.ErrForbidden},
		{"owner grants owner", owner, models.MemberRoleOwner, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newcomer := uuid.New()
			_, err := svc.AddMember(ctx, org.ID, MemberPayload{UserID: newcomer.String(), Role: tt.role}, tt.actor)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.NotContains(t, store.memberships, [2]uuid.UUID{org.ID, newcomer})
				return
			}
			require.NoError(t, err)
		})
	}

	admin := &models.User{ID: uuid.New()}
	store.admins[admin.ID] = true
	m, err := svc.AddMember(ctx, org.ID, MemberPayload{UserID: uuid.NewString(), Role: models.MemberRoleOwner}, admin)
	require.NoError(t, err)
	assert.Equal(t, models.MemberRoleOwner, m.Role)
}

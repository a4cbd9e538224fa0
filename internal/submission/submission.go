// Package submission validates user-submitted content and writes it to the
// store in the pending moderation state.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"taskforce/internal/apperr"
	"taskforce/internal/metrics"
	"taskforce/internal/models"
	"taskforce/internal/validation"
)

// Store is the slice of the data service submissions need.
type Store interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	UserCanEditProject(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	CreateProject(ctx context.Context, p *models.Project, children models.ProjectChildren) error
	UpdateProject(ctx context.Context, p *models.Project, children models.ProjectChildren) error
	GetProjectByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	CreateGrant(ctx context.Context, g *models.Grant) error
	CreateWatchdogIssue(ctx context.Context, issue *models.WatchdogIssue) error
	CreateOrganisation(ctx context.Context, o *models.Organisation) error
	GetOrganisationByID(ctx context.Context, id uuid.UUID) (*models.Organisation, error)
	GetMembership(ctx context.Context, orgID, userID uuid.UUID) (*models.Membership, error)
	AddMembership(ctx context.Context, m *models.Membership) error
}

// Notifier tells reviewers that something new is waiting.
type Notifier interface {
	NotifySubmitted(ctx context.Context, item *models.ModerationItem, submitter *models.User)
}

// Result is returned for every accepted submission.
type Result struct {
	ID     uuid.UUID     `json:"id"`
	Status models.Status `json:"status"`
}

// Service accepts submissions.
type Service struct {
	store     Store
	validator *validation.Validator
	notifier  Notifier
}

// NewService creates a submission service. notifier may be nil.
func NewService(store Store, v *validation.Validator, notifier Notifier) *Service {
	if v == nil {
		v = validation.New(nil)
	}
	return &Service{store: store, validator: v, notifier: notifier}
}

// SubmitProject validates p and creates a pending project with its links,
// partners, SDGs and IFRC challenges.
func (s *Service) SubmitProject(ctx context.Context, p ProjectPayload, submitter *models.User) (*Result, error) {
	if submitter == nil {
		return nil, apperr.ErrUnauthenticated
	}
	p.normalize()
	if err := s.validate(p, p.check()); err != nil {
		return nil, err
	}

	proj := p.project()
	if proj.OrganisationID != nil {
		if err := s.requireOrgCapability(ctx, *proj.OrganisationID, submitter, canCreateProjects); err != nil {
			return nil, err
		}
	}
	proj.CreatedBy = &submitter.ID
	if err := s.store.CreateProject(ctx, proj, p.children()); err != nil {
		return nil, err
	}

	s.submitted(ctx, models.KindProject, proj.ID, proj.Title, proj.Status, submitter)
	return &Result{ID: proj.ID, Status: proj.Status}, nil
}

// UpdateProject replaces a project's fields and child collections. The
// project keeps its moderation status.
func (s *Service) UpdateProject(ctx context.Context, id uuid.UUID, p ProjectPayload, editor *models.User) (*models.Project, error) {
	if editor == nil {
		return nil, apperr.ErrUnauthenticated
	}
	ok, err := s.store.UserCanEditProject(ctx, id, editor.ID)
	if err != nil {
		return nil, fmt.Errorf("check project access: %w", err)
	}
	if !ok {
		if _, err := s.store.GetProjectByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperr.ErrForbidden
	}

	p.normalize()
	if err := s.validate(p, p.check()); err != nil {
		return nil, err
	}

	proj := p.project()
	proj.ID = id
	if proj.OrganisationID != nil {
		current, err := s.store.GetProjectByID(ctx, id)
		if err != nil {
			return nil, err
		}
		// Moving a project under an organisation needs the same right as
		// submitting it there.
		if current.OrganisationID == nil || *current.OrganisationID != *proj.OrganisationID {
			if err := s.requireOrgCapability(ctx, *proj.OrganisationID, editor, canCreateProjects); err != nil {
				return nil, err
			}
		}
	}
	if err := s.store.UpdateProject(ctx, proj, p.children()); err != nil {
		return nil, err
	}
	slog.Info("project updated", "id", id, "editor", editor.ID)
	return s.store.GetProjectByID(ctx, id)
}

// SubmitGrant validates g and creates a pending grant.
func (s *Service) SubmitGrant(ctx context.Context, g GrantPayload, submitter *models.User) (*Result, error) {
	if submitter == nil {
		return nil, apperr.ErrUnauthenticated
	}
	g.normalize()
	if err := s.validate(g, g.check()); err != nil {
		return nil, err
	}

	grant := g.grant()
	grant.CreatedBy = &submitter.ID
	if err := s.store.CreateGrant(ctx, grant); err != nil {
		return nil, err
	}

	s.submitted(ctx, models.KindGrant, grant.ID, grant.Title, grant.Status, submitter)
	return &Result{ID: grant.ID, Status: grant.Status}, nil
}

// SubmitWatchdogIssue validates w and creates a pending issue report.
func (s *Service) SubmitWatchdogIssue(ctx context.Context, w WatchdogPayload, submitter *models.User) (*Result, error) {
	if submitter == nil {
		return nil, apperr.ErrUnauthenticated
	}
	w.normalize()
	if err := s.validate(w, nil); err != nil {
		return nil, err
	}

	issue := w.issue()
	issue.CreatedBy = &submitter.ID
	if err := s.store.CreateWatchdogIssue(ctx, issue); err != nil {
		return nil, err
	}

	s.submitted(ctx, models.KindWatchdog, issue.ID, issue.Title, issue.Status, submitter)
	return &Result{ID: issue.ID, Status: issue.Status}, nil
}

// CreateOrganisation validates o and creates an organisation pending
// verification. The creator becomes its owner.
func (s *Service) CreateOrganisation(ctx context.Context, o OrganisationPayload, creator *models.User) (*Result, error) {
	if creator == nil {
		return nil, apperr.ErrUnauthenticated
	}
	o.normalize()
	if err := s.validate(o, nil); err != nil {
		return nil, err
	}

	org := o.organisation()
	org.CreatedBy = &creator.ID
	if err := s.store.CreateOrganisation(ctx, org); err != nil {
		return nil, err
	}

	s.submitted(ctx, models.KindOrganisation, org.ID, org.Name, org.Status, creator)
	return &Result{ID: org.ID, Status: org.Status}, nil
}

// AddMember adds a user to an organisation. The actor must manage the
// organisation or be a site admin; only owners and site admins may grant
// the owner role.
func (s *Service) AddMember(ctx context.Context, orgID uuid.UUID, m MemberPayload, actor *models.User) (*models.Membership, error) {
	if actor == nil {
		return nil, apperr.ErrUnauthenticated
	}
	if _, err := s.store.GetOrganisationByID(ctx, orgID); err != nil {
		return nil, err
	}
	if err := s.requireOrgCapability(ctx, orgID, actor, canManage); err != nil {
		return nil, err
	}
	if err := s.validate(m, nil); err != nil {
		return nil, err
	}
	if m.Role == models.MemberRoleOwner {
		if err := s.requireOrgCapability(ctx, orgID, actor, isOwner); err != nil {
			return nil, err
		}
	}

	membership := m.membership(orgID)
	if err := s.store.AddMembership(ctx, membership); err != nil {
		return nil, err
	}
	slog.Info("organisation member added", "organisation", orgID, "user", membership.UserID, "role", membership.Role)
	return membership, nil
}

func canCreateProjects(m *models.Membership) bool {
	return m.CanManage() || m.CanCreateProjects
}

func canManage(m *models.Membership) bool {
	return m.CanManage()
}

func isOwner(m *models.Membership) bool {
	return m.Role == models.MemberRoleOwner
}

// requireOrgCapability passes site admins and members for which allowed
// returns true.
func (s *Service) requireOrgCapability(ctx context.Context, orgID uuid.UUID, user *models.User, allowed func(*models.Membership) bool) error {
	admin, err := s.store.IsAdmin(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if admin {
		return nil
	}

	m, err := s.store.GetMembership(ctx, orgID, user.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.ErrForbidden
	}
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !allowed(m) {
		return apperr.ErrForbidden
	}
	return nil
}

// validate runs the tag validation and appends extra field errors.
func (s *Service) validate(payload any, extra []apperr.FieldError) error {
	err := s.validator.Struct(payload)
	verr := &apperr.ValidationError{}
	if err != nil && !errors.As(err, &verr) {
		return err
	}
	verr.Fields = append(verr.Fields, extra...)
	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

func (s *Service) submitted(ctx context.Context, kind models.Kind, id uuid.UUID, title string, status models.Status, submitter *models.User) {
	metrics.RecordSubmission(kind)
	slog.Info("submission received", "kind", kind, "id", id, "submitter", submitter.ID)

	if s.notifier == nil {
		return
	}
	s.notifier.NotifySubmitted(ctx, &models.ModerationItem{
		Kind:       kind,
		ID:         id,
		Title:      title,
		CreatedBy:  &submitter.ID,
		Moderation: models.Moderation{Status: status},
	}, submitter)
}

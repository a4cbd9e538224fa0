package api

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"taskforce/internal/apperr"
	"taskforce/internal/middleware"
	"taskforce/internal/submission"
)

// SubmissionHandler accepts new content for review.
type SubmissionHandler struct {
	svc *submission.Service
}

// NewSubmissionHandler creates a new submission handler.
func NewSubmissionHandler(svc *submission.Service) *SubmissionHandler {
	return &SubmissionHandler{svc: svc}
}

// SubmitProject handles POST /api/projects/submit.
func (h *SubmissionHandler) SubmitProject(c fiber.Ctx) error {
	var p submission.ProjectPayload
	if err := decode(c, &p); err != nil {
		return fail(c, err)
	}
	res, err := h.svc.SubmitProject(c.Context(), p, middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, res)
}

// UpdateProject handles PUT /api/projects/:id.
func (h *SubmissionHandler) UpdateProject(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, apperr.Invalid("id", "must be a valid UUID"))
	}
	var p submission.ProjectPayload
	if err := decode(c, &p); err != nil {
		return fail(c, err)
	}
	project, err := h.svc.UpdateProject(c.Context(), id, p, middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, project)
}

// SubmitGrant handles POST /api/grants/submit.
func (h *SubmissionHandler) SubmitGrant(c fiber.Ctx) error {
	var g submission.GrantPayload
	if err := decode(c, &g); err != nil {
		return fail(c, err)
	}
	res, err := h.svc.SubmitGrant(c.Context(), g, middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, res)
}

// SubmitWatchdogIssue handles POST /api/watchdog/submit.
func (h *SubmissionHandler) SubmitWatchdogIssue(c fiber.Ctx) error {
	var w submission.WatchdogPayload
	if err := decode(c, &w); err != nil {
		return fail(c, err)
	}
	res, err := h.svc.SubmitWatchdogIssue(c.Context(), w, middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, res)
}

// SubmitOrganisation handles POST /api/organisations/submit.
func (h *SubmissionHandler) SubmitOrganisation(c fiber.Ctx) error {
	var o submission.OrganisationPayload
	if err := decode(c, &o); err != nil {
		return fail(c, err)
	}
	res, err := h.svc.CreateOrganisation(c.Context(), o, middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, res)
}

// AddMember handles POST /api/organisations/:id/members.
func (h *SubmissionHandler) AddMember(c fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, apperr.Invalid("id", "must be a valid UUID"))
	}
	var m submission.MemberPayload
	if err := decode(c, &m); err != nil {
		return fail(c, err)
	}
	membership, err := h.svc.AddMember(c.Context(), orgID, m, middleware.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, membership)
}

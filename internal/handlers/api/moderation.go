package api

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"taskforce/internal/apperr"
	"taskforce/internal/middleware"
	"taskforce/internal/models"
	"taskforce/internal/moderation"
)

// ModerationHandler exposes approve, reject and unapprove for every kind,
// as JSON or as form posts that redirect back to the admin queue.
type ModerationHandler struct {
	svc *moderation.Service
}

// NewModerationHandler creates a new API moderation handler.
func NewModerationHandler(svc *moderation.Service) *ModerationHandler {
	return &ModerationHandler{svc: svc}
}

type moderationRequest struct {
	ID         string `json:"id" form:"id"`
	Reason     string `json:"reason" form:"reason"`
	RedirectTo string `json:"redirect_to" form:"redirect_to"`
}

// Act handles POST /api/admin/:kind/:action.
func (h *ModerationHandler) Act(c fiber.Ctx) error {
	form := isForm(c)
	var req moderationRequest
	if form {
		req.ID = c.FormValue("id")
		req.Reason = c.FormValue("reason")
		req.RedirectTo = c.FormValue("redirect_to")
	} else if err := decode(c, &req); err != nil {
		return fail(c, err)
	}

	kind, ok := models.ParseKind(c.Params("kind"))
	action := c.Params("action")

	var err error
	var item *models.ModerationItem
	if !ok {
		err = apperr.Invalid("kind", "must be one of projects, organisations, grants, watchdog")
	} else if id, perr := uuid.Parse(strings.TrimSpace(req.ID)); perr != nil {
		err = apperr.Invalid("id", "must be a valid UUID")
	} else {
		item, err = h.svc.Apply(c.Context(), kind, action, id, middleware.CurrentUser(c), strings.TrimSpace(req.Reason))
	}

	if form {
		return redirectWithOutcome(c, req.RedirectTo, kind, action, item, err)
	}
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, item)
}

// Pending handles GET /api/admin/:kind/pending.
func (h *ModerationHandler) Pending(c fiber.Ctx) error {
	kind, ok := models.ParseKind(c.Params("kind"))
	if !ok {
		return fail(c, apperr.Invalid("kind", "must be one of projects, organisations, grants, watchdog"))
	}
	limit := fiber.Query[int](c, "limit", 0)
	items, err := h.svc.Pending(c.Context(), kind, middleware.CurrentUser(c), limit)
	if err != nil {
		return fail(c, err)
	}
	if items == nil {
		items = []models.ModerationItem{}
	}
	return jsonSuccess(c, items)
}

// redirectWithOutcome sends a form post back to redirectTo, or the kind's
// admin queue, carrying ?message= or ?error=.
func redirectWithOutcome(c fiber.Ctx, redirectTo string, kind models.Kind, action string, item *models.ModerationItem, err error) error {
	target := safeRedirect(redirectTo, kind)
	u, perr := url.Parse(target)
	if perr != nil {
		u = &url.URL{Path: "/admin"}
	}
	q := u.Query()
	q.Del("error")
	q.Del("message")
	if err != nil {
		q.Set("error", outcomeMessage(err))
	} else {
		q.Set("message", pastTense(action)+": "+item.Title)
	}
	u.RawQuery = q.Encode()
	return c.Redirect().Status(fiber.StatusSeeOther).To(u.String())
}

// safeRedirect only allows local paths.
func safeRedirect(target string, kind models.Kind) string {
	target = strings.TrimSpace(target)
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.Contains(target, `\`) {
		return target
	}
	if kind == "" {
		return "/admin"
	}
	return "/admin/" + kind.Plural()
}

func outcomeMessage(err error) string {
	if fields := apperr.Fields(err); len(fields) > 0 {
		return fields[0].Field + " " + fields[0].Message
	}
	return err.Error()
}

func pastTense(action string) string {
	switch action {
	case moderation.ActionApprove:
		return "Approved"
	case moderation.ActionReject:
		return "Rejected"
	case moderation.ActionUnapprove:
		return "Returned to review"
	}
	return "Updated"
}

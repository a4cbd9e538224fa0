// Package moderation implements the approve/reject/unapprove state machine
// shared by projects, organisations, grants and watchdog issues.
package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"taskforce/internal/apperr"
	"taskforce/internal/metrics"
	"taskforce/internal/models"
)

// Actions
const (
	ActionApprove   = "approve"
	ActionReject    = "reject"
	ActionUnapprove = "unapprove"
)

// Store is the slice of the data service moderation needs.
type Store interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	Transition(ctx context.Context, kind models.Kind, id uuid.UUID, fn models.TransitionFunc) (*models.ModerationItem, error)
	PendingItems(ctx context.Context, kind models.Kind, limit int) ([]models.ModerationItem, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Notifier delivers out-of-band messages about moderation outcomes.
type Notifier interface {
	NotifyApproved(ctx context.Context, item *models.ModerationItem)
	NotifyRejected(ctx context.Context, item *models.ModerationItem)
}

// Service applies moderation transitions.
type Service struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

// NewService creates a moderation service. notifier may be nil.
func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier, now: time.Now}
}

// Approve publishes an item. A rejected item is reset first.
func (s *Service) Approve(ctx context.Context, kind models.Kind, id uuid.UUID, actor *models.User) (*models.ModerationItem, error) {
	return s.Apply(ctx, kind, ActionApprove, id, actor, "")
}

// Reject rejects an item with an optional reason. An approved item is reset
// first.
func (s *Service) Reject(ctx context.Context, kind models.Kind, id uuid.UUID, actor *models.User, reason string) (*models.ModerationItem, error) {
	return s.Apply(ctx, kind, ActionReject, id, actor, reason)
}

// Unapprove returns an approved or rejected item to the review queue.
func (s *Service) Unapprove(ctx context.Context, kind models.Kind, id uuid.UUID, actor *models.User) (*models.ModerationItem, error) {
	return s.Apply(ctx, kind, ActionUnapprove, id, actor, "")
}

// Apply runs action against the item. The admin check happens before any
// mutation is attempted.
func (s *Service) Apply(ctx context.Context, kind models.Kind, action string, id uuid.UUID, actor *models.User, reason string) (*models.ModerationItem, error) {
	if !validKind(kind) {
		return nil, apperr.Invalid("kind", "must be one of projects, organisations, grants, watchdog")
	}
	if action != ActionApprove && action != ActionReject && action != ActionUnapprove {
		return nil, apperr.Invalid("action", "must be approve, reject or unapprove")
	}
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	item, err := s.store.Transition(ctx, kind, id, plan(kind, action, actor.ID, reason, s.now()))
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, action, item)
	return item, nil
}

// Pending lists up to limit items awaiting review, newest first.
func (s *Service) Pending(ctx context.Context, kind models.Kind, actor *models.User, limit int) ([]models.ModerationItem, error) {
	if !validKind(kind) {
		return nil, apperr.Invalid("kind", "must be one of projects, organisations, grants, watchdog")
	}
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	return s.store.PendingItems(ctx, kind, limit)
}

func (s *Service) requireAdmin(ctx context.Context, actor *models.User) error {
	if actor == nil {
		return apperr.ErrUnauthenticated
	}
	ok, err := s.store.IsAdmin(ctx, actor.ID)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if !ok {
		return apperr.ErrForbidden
	}
	return nil
}

func validKind(kind models.Kind) bool {
	for _, k := range models.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// plan builds the transition for action. Cross transitions go through
// pending and produce two audit events.
func plan(kind models.Kind, action string, actor uuid.UUID, reason string, now time.Time) models.TransitionFunc {
	return func(item *models.ModerationItem) ([]models.ModerationEvent, error) {
		var events []models.ModerationEvent
		record := func(from models.Status) {
			events = append(events, models.ModerationEvent{
				Kind:       kind,
				ItemID:     item.ID,
				FromStatus: from,
				ToStatus:   item.Status,
				ActorID:    actor,
				Reason:     item.RejectionReason,
				CreatedAt:  now,
			})
		}
		reset := func() {
			from := item.Status
			item.Reset()
			record(from)
		}

		from := item.Status
		switch action {
		case ActionApprove:
			if from.IsApproved() {
				return nil, notEligible(kind, action, from)
			}
			if from == models.StatusRejected {
				reset()
			}
			from = item.Status
			item.Approve(kind, actor, now)
			record(from)
		case ActionReject:
			if from == models.StatusRejected {
				return nil, notEligible(kind, action, from)
			}
			if from.IsApproved() {
				reset()
			}
			from = item.Status
			item.Reject(actor, reason, now)
			record(from)
		case ActionUnapprove:
			if from == models.StatusPending {
				return nil, notEligible(kind, action, from)
			}
			reset()
		}

		if err := item.Validate(); err != nil {
			return nil, apperr.Constraint(fmt.Sprintf("%s %s would break the moderation trail", kind, action), err)
		}
		return events, nil
	}
}

func notEligible(kind models.Kind, action string, status models.Status) error {
	return apperr.Constraint(fmt.Sprintf("%s is %s and not eligible for %s", kind, status, action), nil)
}

// afterCommit runs the best-effort side effects of a committed transition.
func (s *Service) afterCommit(ctx context.Context, action string, item *models.ModerationItem) {
	metrics.RecordModeration(item.Kind, action)
	slog.Info("moderation action applied", "kind", item.Kind, "id", item.ID, "action", action, "status", item.Status)

	if item.CreatedBy == nil {
		return
	}

	n := &models.Notification{
		UserID: *item.CreatedBy,
		Link:   models.ItemPath(item.Kind, item.ID),
	}
	switch action {
	case ActionApprove:
		n.Kind = models.NotificationApproved
		n.Title = fmt.Sprintf("%q is now public", item.Title)
	case ActionReject:
		n.Kind = models.NotificationRejected
		n.Title = fmt.Sprintf("%q was not approved", item.Title)
		if item.RejectionReason != nil {
			n.Body = *item.RejectionReason
		}
	default:
		n.Kind = models.NotificationReset
		n.Title = fmt.Sprintf("%q is back in review", item.Title)
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		slog.Warn("failed to create moderation notification", "kind", item.Kind, "id", item.ID, "error", err)
	}

	if s.notifier == nil {
		return
	}
	switch action {
	case ActionApprove:
		s.notifier.NotifyApproved(ctx, item)
	case ActionReject:
		s.notifier.NotifyRejected(ctx, item)
	}
}

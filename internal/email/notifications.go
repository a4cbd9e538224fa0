package email

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"taskforce/internal/config"
	"taskforce/internal/models"
)

// RecipientLookup resolves the addresses notifications are sent to.
type RecipientLookup interface {
	AdminEmails(ctx context.Context) ([]string, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Notifier sends email notifications for moderation events. Every method is
// best effort: failures are logged and never returned.
type Notifier struct {
	service   *Service
	templates *Templates
	cfg       *config.Config
	db        RecipientLookup
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg *config.Config, db RecipientLookup) *Notifier {
	return &Notifier{
		service:   NewService(cfg),
		templates: NewTemplates(cfg),
		cfg:       cfg,
		db:        db,
	}
}

// NotifySubmitted tells admins that a new item is waiting for review.
func (n *Notifier) NotifySubmitted(ctx context.Context, item *models.ModerationItem, submitter *models.User) {
	if !n.service.IsEnabled() || !n.cfg.EmailNotifyAdminsOnSubmit || submitter == nil {
		return
	}

	emails, err := n.db.AdminEmails(ctx)
	if err != nil {
		slog.Warn("failed to load admin emails", "error", err)
		return
	}
	if len(emails) == 0 {
		slog.Debug("no admin emails for submission notice", "kind", item.Kind, "id", item.ID)
		return
	}

	subject, htmlBody, textBody := n.templates.ItemSubmitted(item, submitter)
	n.service.SendAsync(emails, subject, htmlBody, textBody)
}

// NotifyApproved tells the creator their item is now public.
func (n *Notifier) NotifyApproved(ctx context.Context, item *models.ModerationItem) {
	if !n.service.IsEnabled() || !n.cfg.EmailNotifyUserOnApproval {
		return
	}
	to := n.creatorEmail(ctx, item)
	if to == "" {
		return
	}
	subject, htmlBody, textBody := n.templates.ItemApproved(item)
	n.service.SendAsync([]string{to}, subject, htmlBody, textBody)
}

// NotifyRejected tells the creator their item was rejected.
func (n *Notifier) NotifyRejected(ctx context.Context, item *models.ModerationItem) {
	if !n.service.IsEnabled() || !n.cfg.EmailNotifyUserOnRejection {
		return
	}
	to := n.creatorEmail(ctx, item)
	if to == "" {
		return
	}
	subject, htmlBody, textBody := n.templates.ItemRejected(item)
	n.service.SendAsync([]string{to}, subject, htmlBody, textBody)
}

func (n *Notifier) creatorEmail(ctx context.Context, item *models.ModerationItem) string {
	if item.CreatedBy == nil {
		return ""
	}
	creator, err := n.db.GetUserByID(ctx, *item.CreatedBy)
	if err != nil {
		slog.Warn("failed to load item creator", "kind", item.Kind, "id", item.ID, "error", err)
		return ""
	}
	return creator.Email
}

// NotifyPendingDigest reminds admins of the review backlog. Nothing is sent
// when every queue is empty.
func (n *Notifier) NotifyPendingDigest(ctx context.Context, counts map[models.Kind]int64) {
	if !n.service.IsEnabled() {
		return
	}
	var total int64
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return
	}

	emails, err := n.db.AdminEmails(ctx)
	if err != nil {
		slog.Warn("failed to load admin emails", "error", err)
		return
	}
	if len(emails) == 0 {
		return
	}

	subject, htmlBody, textBody := n.templates.PendingDigest(counts)
	n.service.SendAsync(emails, subject, htmlBody, textBody)
}

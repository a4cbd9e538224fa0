package email

import (
	"fmt"
	"html"

	"taskforce/internal/config"
	"taskforce/internal/models"
)

// Templates provides email template generation.
type Templates struct {
	cfg *config.Config
}

// NewTemplates creates a new templates instance.
func NewTemplates(cfg *config.Config) *Templates {
	return &Templates{cfg: cfg}
}

// baseHTML wraps content in a consistent HTML email template.
func (t *Templates) baseHTML(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #1f2937; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #15803d; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
        .header h1 { margin: 0; font-size: 22px; }
        .content { background: #f7fee7; padding: 20px; border: 1px solid #d9f99d; }
        .footer { background: #f3f4f6; padding: 15px; text-align: center; font-size: 12px; color: #6b7280; border-radius: 0 0 8px 8px; }
        .button { display: inline-block; background: #15803d; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 10px 0; }
        .info-box { background: white; border: 1px solid #e5e7eb; border-radius: 6px; padding: 15px; margin: 15px 0; }
        .label { font-weight: 600; }
        .success { color: #059669; }
        .error { color: #dc2626; }
    </style>
</head>
<body>
    <div class="header"><h1>%s</h1></div>
    <div class="content">%s</div>
    <div class="footer">
        <p>%s</p>
        <p><a href="%s">%s</a></p>
    </div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(t.cfg.SiteTitle), content,
		html.EscapeString(t.cfg.SiteFooter), t.cfg.BaseURL, t.cfg.BaseURL)
}

func kindLabel(kind models.Kind) string {
	switch kind {
	case models.KindOrganisation:
		return "organisation"
	case models.KindGrant:
		return "funding opportunity"
	case models.KindWatchdog:
		return "watchdog report"
	default:
		return "project"
	}
}

// ItemSubmitted generates the email sent to admins when something new is
// waiting for review.
func (t *Templates) ItemSubmitted(item *models.ModerationItem, submitter *models.User) (subject, htmlBody, textBody string) {
	label := kindLabel(item.Kind)
	subject = fmt.Sprintf("[%s] New %s pending review: %s", t.cfg.SiteTitle, label, item.Title)
	reviewURL := fmt.Sprintf("%s/admin/%s", t.cfg.BaseURL, item.Kind.Plural())

	content := fmt.Sprintf(`
        <p>A new %s has been submitted and is waiting for review.</p>
        <div class="info-box">
            <p><span class="label">Title:</span> %s</p>
            <p><span class="label">Submitted by:</span> %s (%s)</p>
        </div>
        <p style="text-align: center;"><a href="%s" class="button">Open review queue</a></p>
    `,
		label,
		html.EscapeString(item.Title),
		html.EscapeString(submitter.DisplayName()),
		html.EscapeString(submitter.Email),
		reviewURL,
	)
	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf("New %s pending review\n\nTitle: %s\nSubmitted by: %s (%s)\n\nReview at: %s\n\n--\n%s\n",
		label, item.Title, submitter.DisplayName(), submitter.Email, reviewURL, t.cfg.SiteTitle)
	return
}

// ItemApproved generates the email sent to a creator whose item went live.
func (t *Templates) ItemApproved(item *models.ModerationItem) (subject, htmlBody, textBody string) {
	label := kindLabel(item.Kind)
	verb := "approved"
	if item.Kind == models.KindOrganisation {
		verb = "verified"
	}
	subject = fmt.Sprintf("[%s] Your %s '%s' has been %s", t.cfg.SiteTitle, label, item.Title, verb)
	itemURL := t.cfg.BaseURL + models.ItemPath(item.Kind, item.ID)

	content := fmt.Sprintf(`
        <p>Good news! Your %s is now public.</p>
        <div class="info-box">
            <p><span class="label">Title:</span> %s</p>
            <p><span class="label">Status:</span> <span class="success">%s</span></p>
        </div>
        <p style="text-align: center;"><a href="%s" class="button">View it</a></p>
    `, label, html.EscapeString(item.Title), verb, itemURL)
	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf("Your %s has been %s\n\nTitle: %s\nView at: %s\n\n--\n%s\n",
		label, verb, item.Title, itemURL, t.cfg.SiteTitle)
	return
}

// ItemRejected generates the email sent to a creator whose item was turned
// down. The reason section is omitted when no reason was given.
func (t *Templates) ItemRejected(item *models.ModerationItem) (subject, htmlBody, textBody string) {
	label := kindLabel(item.Kind)
	subject = fmt.Sprintf("[%s] Your %s '%s' was not approved", t.cfg.SiteTitle, label, item.Title)

	reasonHTML, reasonText := "", ""
	if item.RejectionReason != nil && *item.RejectionReason != "" {
		reasonHTML = fmt.Sprintf(`<p><span class="label">Reason:</span> %s</p>`, html.EscapeString(*item.RejectionReason))
		reasonText = "Reason: " + *item.RejectionReason + "\n"
	}

	content := fmt.Sprintf(`
        <p>Your %s was reviewed and not approved.</p>
        <div class="info-box">
            <p><span class="label">Title:</span> %s</p>
            <p><span class="label">Status:</span> <span class="error">Rejected</span></p>
            %s
        </div>
        <p>You can edit your submission and it will be reviewed again.</p>
    `, label, html.EscapeString(item.Title), reasonHTML)
	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf("Your %s was not approved\n\nTitle: %s\n%s\n--\n%s\n",
		label, item.Title, reasonText, t.cfg.SiteTitle)
	return
}

// PendingDigest generates the periodic reminder sent to admins while items
// are waiting in the review queues.
func (t *Templates) PendingDigest(counts map[models.Kind]int64) (subject, htmlBody, textBody string) {
	var total int64
	rowsHTML, rowsText := "", ""
	for _, kind := range models.Kinds {
		n := counts[kind]
		if n == 0 {
			continue
		}
		total += n
		queueURL := fmt.Sprintf("%s/admin/%s", t.cfg.BaseURL, kind.Plural())
		rowsHTML += fmt.Sprintf(`<p><a href="%s">%s</a>: %d</p>`, queueURL, kindLabel(kind), n)
		rowsText += fmt.Sprintf("%s: %d (%s)\n", kindLabel(kind), n, queueURL)
	}

	subject = fmt.Sprintf("[%s] %d items waiting for review", t.cfg.SiteTitle, total)
	content := fmt.Sprintf(`
        <p>These review queues have pending items.</p>
        <div class="info-box">%s</div>
    `, rowsHTML)
	htmlBody = t.baseHTML(subject, content)

	textBody = fmt.Sprintf("Items waiting for review\n\n%s\n--\n%s\n", rowsText, t.cfg.SiteTitle)
	return
}

package submission

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"taskforce/internal/apperr"
	"taskforce/internal/models"
)

// LocationPayload is an optional coordinate pair.
type LocationPayload struct {
	Lat       *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng       *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
	PlaceName string   `json:"place_name" validate:"max=200"`
}

func (l *LocationPayload) model() *models.Location {
	if l == nil || l.Lat == nil || l.Lng == nil {
		return nil
	}
	return &models.Location{Lat: *l.Lat, Lng: *l.Lng, PlaceName: strings.TrimSpace(l.PlaceName)}
}

// LinkPayload is an external link with an optional label.
type LinkPayload struct {
	URL   string `json:"url" validate:"required,http_url"`
	Label string `json:"label" validate:"max=120"`
}

func linkModels(links []LinkPayload) []models.ProjectLink {
	out := make([]models.ProjectLink, 0, len(links))
	for _, l := range links {
		out = append(out, models.ProjectLink{URL: strings.TrimSpace(l.URL), Label: strings.TrimSpace(l.Label)})
	}
	return out
}

// ProjectPayload is the body of a project submission or edit. Name is
// accepted as an alias of Title.
type ProjectPayload struct {
	Title          string           `json:"title" validate:"required,max=200"`
	Name           string           `json:"name" validate:"-"`
	Description    string           `json:"description" validate:"max=10000"`
	Category       string           `json:"category" validate:"omitempty,project_category"`
	Location       *LocationPayload `json:"location"`
	OrganisationID string           `json:"organisation_id" validate:"omitempty,uuid"`
	PartnerIDs     []string         `json:"partner_ids" validate:"max=20,unique,dive,uuid"`
	SDGs           []int            `json:"sdgs" validate:"max=17,unique,dive,sdg"`
	IFRCChallenges []string         `json:"ifrc_challenges" validate:"max=10,unique,dive,ifrc"`
	Links          []LinkPayload    `json:"links" validate:"max=20,dive"`
}

// normalize trims text fields and applies the name alias.
func (p *ProjectPayload) normalize() {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		p.Title = strings.TrimSpace(p.Name)
	}
	p.Description = strings.TrimSpace(p.Description)
	p.Category = strings.TrimSpace(p.Category)
}

// check enforces the rules struct tags cannot express.
func (p *ProjectPayload) check() []apperr.FieldError {
	if p.Description == "" && len(p.Links) == 0 {
		return []apperr.FieldError{{Field: "description", Message: "is required when no links are given"}}
	}
	return nil
}

func (p *ProjectPayload) project() *models.Project {
	proj := &models.Project{
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Location:    p.Location.model(),
	}
	if p.OrganisationID != "" {
		id := uuid.MustParse(p.OrganisationID)
		proj.OrganisationID = &id
	}
	return proj
}

func (p *ProjectPayload) children() models.ProjectChildren {
	c := models.ProjectChildren{
		Links:          linkModels(p.Links),
		SDGs:           p.SDGs,
		IFRCChallenges: p.IFRCChallenges,
	}
	for _, s := range p.PartnerIDs {
		c.PartnerIDs = append(c.PartnerIDs, uuid.MustParse(s))
	}
	return c
}

// GrantPayload is the body of a grant submission.
type GrantPayload struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Description string           `json:"description" validate:"max=10000"`
	Funder      string           `json:"funder" validate:"max=200"`
	URL         string           `json:"url" validate:"omitempty,http_url"`
	AmountMin   *float64         `json:"amount_min" validate:"omitempty,gte=0"`
	AmountMax   *float64         `json:"amount_max" validate:"omitempty,gte=0"`
	Currency    string           `json:"currency" validate:"omitempty,currency"`
	Deadline    string           `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
	Location    *LocationPayload `json:"location"`
	SDGs        []int            `json:"sdgs" validate:"max=17,unique,dive,sdg"`
}

func (p *GrantPayload) normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Funder = strings.TrimSpace(p.Funder)
	p.URL = strings.TrimSpace(p.URL)
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
}

func (p *GrantPayload) check() []apperr.FieldError {
	if p.AmountMin != nil && p.AmountMax != nil && *p.AmountMin > *p.AmountMax {
		return []apperr.FieldError{{Field: "amount_max", Message: "must not be less than amount_min"}}
	}
	return nil
}

func (p *GrantPayload) grant() *models.Grant {
	g := &models.Grant{
		Title:       p.Title,
		Description: p.Description,
		Funder:      p.Funder,
		URL:         p.URL,
		AmountMin:   p.AmountMin,
		AmountMax:   p.AmountMax,
		Currency:    p.Currency,
		Location:    p.Location.model(),
		SDGs:        p.SDGs,
	}
	if g.Currency == "" {
		g.Currency = "USD"
	}
	if p.Deadline != "" {
		if d, err := time.Parse("2006-01-02", p.Deadline); err == nil {
			g.Deadline = &d
		}
	}
	return g
}

// WatchdogPayload is the body of a watchdog issue report. A location is
// required.
type WatchdogPayload struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Description string           `json:"description" validate:"required,max=10000"`
	Category    string           `json:"category" validate:"required,watchdog_category"`
	Severity    string           `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Location    *LocationPayload `json:"location" validate:"required"`
	Links       []LinkPayload    `json:"links" validate:"max=20,dive"`
}

func (p *WatchdogPayload) normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Category = strings.TrimSpace(p.Category)
	p.Severity = strings.ToLower(strings.TrimSpace(p.Severity))
}

func (p *WatchdogPayload) issue() *models.WatchdogIssue {
	issue := &models.WatchdogIssue{
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Severity:    p.Severity,
		Location:    p.Location.model(),
		Links:       linkModels(p.Links),
	}
	if issue.Severity == "" {
		issue.Severity = models.SeverityMedium
	}
	return issue
}

// OrganisationPayload is the body of an organisation onboarding request.
type OrganisationPayload struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Description string           `json:"description" validate:"max=10000"`
	Website     string           `json:"website" validate:"omitempty,http_url"`
	Country     string           `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	Location    *LocationPayload `json:"location"`
}

func (p *OrganisationPayload) normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.Website = strings.TrimSpace(p.Website)
	p.Country = strings.ToUpper(strings.TrimSpace(p.Country))
}

func (p *OrganisationPayload) organisation() *models.Organisation {
	return &models.Organisation{
		Name:        p.Name,
		Description: p.Description,
		Website:     p.Website,
		Country:     p.Country,
		Location:    p.Location.model(),
	}
}

// MemberPayload adds a user to an organisation.
type MemberPayload struct {
	UserID            string `json:"user_id" validate:"required,uuid"`
	Role              string `json:"role" validate:"omitempty,oneof=owner admin member"`
	CanCreateProjects bool   `json:"can_create_projects"`
	CanCreateFunding  bool   `json:"can_create_funding"`
	CanManageMembers  bool   `json:"can_manage_members"`
}

func (p *MemberPayload) membership(orgID uuid.UUID) *models.Membership {
	role := p.Role
	if role == "" {
		role = models.MemberRoleMember
	}
	return &models.Membership{
		OrganisationID:    orgID,
		UserID:            uuid.MustParse(p.UserID),
		Role:              role,
		CanCreateProjects: p.CanCreateProjects,
		CanCreateFunding:  p.CanCreateFunding,
		CanManageMembers:  p.CanManageMembers,
	}
}

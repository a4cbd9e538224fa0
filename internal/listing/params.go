package listing

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskforce/internal/config"
	"taskforce/internal/db"
	"taskforce/internal/models"
)

// PageSize is the number of rows on every list page.
const PageSize = 24

var countryCode = regexp.MustCompile(`^[A-Z]{2}$`)

// multi returns every value of key, splitting comma-joined values and
// dropping empty entries.
func multi(params url.Values, key string) []string {
	var out []string
	for _, raw := range params[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// keep returns the values for which ok is true.
func keep(values []string, ok func(string) bool) []string {
	var out []string
	for _, v := range values {
		if ok(v) {
			out = append(out, v)
		}
	}
	return out
}

func sdgs(params url.Values, catalog *config.Catalog) []int {
	var out []int
	for _, v := range multi(params, "sdg") {
		n, err := strconv.Atoi(v)
		if err == nil && catalog.HasSDG(n) {
			out = append(out, n)
		}
	}
	return out
}

func uuids(params url.Values, key string) []uuid.UUID {
	var out []uuid.UUID
	for _, v := range multi(params, key) {
		if id, err := uuid.Parse(v); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func float(params url.Values, key string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(params.Get(key)), 64)
	if err != nil || f < 0 {
		return nil
	}
	return &f
}

// maxPage keeps the row offset of the last reachable page inside int32.
const maxPage = math.MaxInt32 / PageSize

// page parses the page parameter, clamping it to 1..maxPage.
func page(params url.Values) int {
	n, err := strconv.Atoi(strings.TrimSpace(params.Get("page")))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, maxPage)
}

// Options builds the shared list options from params. Sort columns outside
// the allow-list for kind are ignored. mine=1 only has an effect for a
// signed-in viewer.
func Options(kind models.Kind, params url.Values, viewer *models.User) db.ListOptions {
	opts := db.ListOptions{
		Page:     page(params),
		PageSize: PageSize,
		Query:    strings.TrimSpace(params.Get("q")),
	}

	sort := strings.TrimSpace(params.Get("sort"))
	desc := strings.HasPrefix(sort, "-")
	sort = strings.TrimPrefix(sort, "-")
	if db.IsSortColumn(kind, sort) {
		opts.Sort = sort
		opts.Desc = desc
	}

	if viewer != nil {
		opts.Viewer = &viewer.ID
		opts.IncludeOwn = params.Get("mine") == "1"
	}
	return opts
}

// ProjectFilter parses sdg, ifrc, category and org.
func ProjectFilter(params url.Values, catalog *config.Catalog) db.ProjectFilter {
	return db.ProjectFilter{
		SDGs:            sdgs(params, catalog),
		IFRCChallenges:  keep(multi(params, "ifrc"), catalog.HasIFRCChallenge),
		Categories:      keep(multi(params, "category"), catalog.HasProjectCategory),
		OrganisationIDs: uuids(params, "org"),
	}
}

// OrganisationFilter parses country as ISO 3166 alpha-2 codes.
func OrganisationFilter(params url.Values) db.OrganisationFilter {
	var countries []string
	for _, c := range multi(params, "country") {
		if c = strings.ToUpper(c); countryCode.MatchString(c) {
			countries = append(countries, c)
		}
	}
	return db.OrganisationFilter{Countries: countries}
}

// GrantFilter parses sdg, currency, min_amount, max_amount and
// deadline_after.
func GrantFilter(params url.Values, catalog *config.Catalog) db.GrantFilter {
	f := db.GrantFilter{
		SDGs:      sdgs(params, catalog),
		MinAmount: float(params, "min_amount"),
		MaxAmount: float(params, "max_amount"),
	}
	for _, c := range multi(params, "currency") {
		if c = strings.ToUpper(c); catalog.HasCurrency(c) {
			f.Currencies = append(f.Currencies, c)
		}
	}
	if d, err := time.Parse("2006-01-02", strings.TrimSpace(params.Get("deadline_after"))); err == nil {
		f.DeadlineAfter = &d
	}
	return f
}

var severities = map[string]bool{
	models.SeverityLow:      true,
	models.SeverityMedium:   true,
	models.SeverityHigh:     true,
	models.SeverityCritical: true,
}

// WatchdogFilter parses category and severity.
func WatchdogFilter(params url.Values, catalog *config.Catalog) db.WatchdogFilter {
	f := db.WatchdogFilter{
		Categories: keep(multi(params, "category"), catalog.HasWatchdogCategory),
	}
	for _, s := range multi(params, "severity") {
		if s = strings.ToLower(s); severities[s] {
			f.Severities = append(f.Severities, s)
		}
	}
	return f
}

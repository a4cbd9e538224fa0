package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"taskforce/internal/models"
)

// ListOptions holds the pagination, search, sort and visibility settings
// shared by every list query.
type ListOptions struct {
	Page     int
	PageSize int
	Query    string
	Sort     string // column name from SortColumns; empty means created_at
	Desc     bool

	// Viewer is the signed-in user, if any. With IncludeOwn set their own
	// non-approved rows are listed alongside approved ones.
	Viewer     *uuid.UUID
	IncludeOwn bool
}

func (o ListOptions) limit() int {
	if o.PageSize <= 0 {
		return 24
	}
	return o.PageSize
}

func (o ListOptions) offset() int {
	if o.Page <= 1 {
		return 0
	}
	return (o.Page - 1) * o.limit()
}

// Page is one page of a list query plus the total number of matching rows.
type Page[T any] struct {
	Rows  []T
	Total int64
}

// sortColumns is the per-kind allow-list of sortable columns.
var sortColumns = map[models.Kind][]string{
	models.KindProject:      {"created_at", "updated_at", "title", "category"},
	models.KindOrganisation: {"created_at", "updated_at", "name", "country"},
	models.KindGrant:        {"created_at", "updated_at", "title", "deadline", "amount_min", "amount_max"},
	models.KindWatchdog:     {"created_at", "updated_at", "title", "severity", "category"},
}

// SortColumns returns the sortable columns for kind.
func SortColumns(kind models.Kind) []string {
	return sortColumns[kind]
}

// IsSortColumn reports whether col may be used to sort lists of kind.
func IsSortColumn(kind models.Kind, col string) bool {
	for _, c := range sortColumns[kind] {
		if c == col {
			return true
		}
	}
	return false
}

// orderBy builds the ORDER BY clause, falling back to created_at desc for
// anything outside the allow-list. id breaks ties so pages are stable.
func orderBy(kind models.Kind, opts ListOptions) string {
	if opts.Sort == "" || !IsSortColumn(kind, opts.Sort) {
		return " ORDER BY created_at DESC, id"
	}
	dir := "ASC"
	if opts.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST, id", opts.Sort, dir)
}

// EscapeLike escapes the LIKE wildcards in s so it matches literally.
// Patterns built from the result must use ESCAPE '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// whereBuilder accumulates AND-ed conditions. Each '?' in a condition is
// replaced with the next positional parameter.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, args ...any) {
	var b strings.Builder
	i := 0
	for _, r := range cond {
		if r == '?' && i < len(args) {
			w.args = append(w.args, args[i])
			b.WriteString("$" + strconv.Itoa(len(w.args)))
			i++
			continue
		}
		b.WriteRune(r)
	}
	w.conds = append(w.conds, b.String())
}

// search adds a case-insensitive partial match of q over cols.
func (w *whereBuilder) search(q string, cols ...string) {
	q = strings.TrimSpace(q)
	if q == "" || len(cols) == 0 {
		return
	}
	pattern := "%" + EscapeLike(q) + "%"
	w.args = append(w.args, pattern)
	ph := "$" + strconv.Itoa(len(w.args))
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, c, ph)
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
}

// visible restricts rows to the approved status of kind, plus the viewer's
// own rows when requested.
func (w *whereBuilder) visible(kind models.Kind, opts ListOptions) {
	approved := string(kind.ApprovedStatus())
	if opts.IncludeOwn && opts.Viewer != nil {
		w.add("(moderation_status = ? OR created_by = ?)", approved, *opts.Viewer)
		return
	}
	w.add("moderation_status = ?", approved)
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// next returns the placeholder for an argument appended after the conditions.
func (w *whereBuilder) next(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

// listPage runs the count and page queries for a filtered list.
func listPage[T any](ctx context.Context, q querier, table, cols string, kind models.Kind, w *whereBuilder, opts ListOptions, scan pgx.RowToFunc[T]) (*Page[T], error) {
	where := w.sql()

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM "+table+where, w.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count %s: %w", table, err)
	}

	page := &Page[T]{Total: total}
	if total == 0 {
		return page, nil
	}

	limit := w.next(opts.limit())
	offset := w.next(opts.offset())
	query := "SELECT " + cols + " FROM " + table + where + orderBy(kind, opts) + " LIMIT " + limit + " OFFSET " + offset

	rows, err := q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	page.Rows, err = pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	return page, nil
}

// markers runs a marker query over rows that have coordinates.
func markers(ctx context.Context, q querier, table, titleCol string, kind models.Kind, w *whereBuilder, limit int) ([]models.Marker, error) {
	w.add("lat IS NOT NULL AND lng IS NOT NULL")
	query := "SELECT id, " + titleCol + ", lat, lng FROM " + table + w.sql() +
		" ORDER BY created_at DESC LIMIT " + w.next(limit)

	rows, err := q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("markers %s: %w", table, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Marker, error) {
		var m models.Marker
		var id uuid.UUID
		if err := row.Scan(&id, &m.Title, &m.Lat, &m.Lng); err != nil {
			return m, err
		}
		m.Kind = kind
		m.ID = id.String()
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan markers %s: %w", table, err)
	}
	return out, nil
}

// uuidStrings converts ids for use with a ::uuid[] parameter.
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// location scans nullable coordinate columns into a *models.Location.
type location struct {
	lat, lng *float64
	place    *string
}

func (l *location) dest() []any {
	return []any{&l.lat, &l.lng, &l.place}
}

func (l *location) value() *models.Location {
	if l.lat == nil || l.lng == nil {
		return nil
	}
	loc := &models.Location{Lat: *l.lat, Lng: *l.lng}
	if l.place != nil {
		loc.PlaceName = *l.place
	}
	return loc
}

// locationArgs returns the lat, lng and place_name parameters for loc.
func locationArgs(loc *models.Location) (lat, lng, place any) {
	if loc == nil {
		return nil, nil, nil
	}
	var p any
	if loc.PlaceName != "" {
		p = loc.PlaceName
	}
	return loc.Lat, loc.Lng, p
}

// Package report turns raw visit records into display-ready rows,
// day-level statistics, filtered projections, and an exportable table.
// All date bucketing uses the configured local calendar day, never UTC
// day boundaries or string-prefix matching on instants: a visit
// stamped just before local midnight must land in the day the operator
// perceives.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/snyce/visitgate/internal/visit/models"
)

// NotApplicable is the sentinel shown for rows with no usable instant.
// Report completeness matters more than per-row correctness, so rows
// degrade to it instead of failing.
const NotApplicable = "N/A"

// UnknownName buckets visits whose company or host cannot be resolved.
const UnknownName = "Unknown"

// Engine derives views and aggregations from visit records. The clock
// and location are injectable for tests.
type Engine struct {
	loc *time.Location
	now func() time.Time
}

func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{loc: loc, now: time.Now}
}

// Row is the display projection of one visit.
type Row struct {
	ID          string `json:"id"`
	VisitorName string `json:"visitorName"`
	Host        string `json:"host"`
	Company     string `json:"company"`
	DisplayDate string `json:"displayDate"`
	DisplayTime string `json:"displayTime"`
	OutTime     string `json:"outTimeDisplay"`
	TimeRange   string `json:"timeRange"`
	Status      string `json:"status"`
	PhotoURL    string `json:"photoUrl"`
	// Timestamp orders rows newest-first; rows with no usable instant
	// carry zero and sort as oldest.
	Timestamp int64 `json:"timestamp"`
}

// Stats is the dashboard scalar view.
type Stats struct {
	TotalToday int `json:"totalToday"`
	Active     int `json:"active"`
	Pending    int `json:"pending"`
}

// ChartSeries is a label/value pairing ready for a bar chart.
type ChartSeries struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// DisplayDate formats an instant as dd/mm/yy in the engine's location.
func (en *Engine) DisplayDate(t time.Time) string {
	lt := t.In(en.loc)
	return fmt.Sprintf("%02d/%02d/%02d", lt.Day(), int(lt.Month()), lt.Year()%100)
}

// DisplayTime formats an instant as a 12-hour clock with a dot
// separator and lowercase meridiem, e.g. "11.23 am". Derived purely
// arithmetically: hour%12 with 0 mapped to 12.
func (en *Engine) DisplayTime(t time.Time) string {
	lt := t.In(en.loc)
	hour := lt.Hour()
	meridiem := "am"
	if hour >= 12 {
		meridiem = "pm"
	}
	hour = hour % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d.%02d %s", hour, lt.Minute(), meridiem)
}

// sameLocalDay compares the year/month/day components of two instants
// in the engine's location.
func (en *Engine) sameLocalDay(a, b time.Time) bool {
	al, bl := a.In(en.loc), b.In(en.loc)
	ay, am, ad := al.Date()
	by, bm, bd := bl.Date()
	return ay == by && am == bm && ad == bd
}

// Rows derives display rows for every visit, resolving host and
// company names through the given lookup collections, sorted strictly
// newest-first by primary instant.
func (en *Engine) Rows(visits []models.Visit, companies []models.Company, hosts []models.Host) []Row {
	companyNames := map[string]string{}
	for _, c := range companies {
		companyNames[c.ID.String()] = c.Name
	}
	hostNames := map[string]string{}
	for _, h := range hosts {
		hostNames[h.ID.String()] = h.Name
	}

	rows := make([]Row, 0, len(visits))
	for i := range visits {
		v := &visits[i]
		row := Row{
			ID:          v.ID.String(),
			VisitorName: v.Name,
			Host:        lookupName(hostNames, v.HostID.String()),
			Company:     lookupName(companyNames, v.CompanyID.String()),
			Status:      string(v.Status),
			PhotoURL:    v.PhotoURL,
		}

		instant, ok := v.PrimaryInstant()
		if !ok {
			row.DisplayDate = NotApplicable
			row.DisplayTime = NotApplicable
			row.OutTime = NotApplicable
			row.TimeRange = NotApplicable
			rows = append(rows, row)
			continue
		}

		row.DisplayDate = en.DisplayDate(instant)
		row.DisplayTime = en.DisplayTime(instant)
		row.Timestamp = instant.UnixMilli()
		row.OutTime = "-"
		if v.OutTime != nil {
			row.OutTime = en.DisplayTime(*v.OutTime)
		}
		if v.Status == models.StatusCheckedOut && v.OutTime != nil {
			row.TimeRange = fmt.Sprintf("%s - %s", row.DisplayTime, row.OutTime)
		} else {
			row.TimeRange = fmt.Sprintf("%s - Active", row.DisplayTime)
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp > rows[j].Timestamp
	})
	return rows
}

func lookupName(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return UnknownName
}

// TotalToday counts visits whose check-in landed on today's local date.
func (en *Engine) TotalToday(visits []models.Visit) int {
	today := en.now()
	count := 0
	for i := range visits {
		if visits[i].InTime != nil && en.sameLocalDay(*visits[i].InTime, today) {
			count++
		}
	}
	return count
}

// ActiveCount counts visits currently checked in.
func (en *Engine) ActiveCount(visits []models.Visit) int {
	return en.countByStatus(visits, models.StatusCheckedIn)
}

// PendingCount counts visits awaiting a decision.
func (en *Engine) PendingCount(visits []models.Visit) int {
	return en.countByStatus(visits, models.StatusPending)
}

func (en *Engine) countByStatus(visits []models.Visit, status models.VisitStatus) int {
	count := 0
	for i := range visits {
		if visits[i].Status == status {
			count++
		}
	}
	return count
}

// Stats bundles the dashboard scalars in one pass.
func (en *Engine) Stats(visits []models.Visit) Stats {
	return Stats{
		TotalToday: en.TotalToday(visits),
		Active:     en.ActiveCount(visits),
		Pending:    en.PendingCount(visits),
	}
}

// StatusCounts tallies visits by status with every status seeded at
// zero so the chart keeps a stable shape.
func (en *Engine) StatusCounts(visits []models.Visit) map[models.VisitStatus]int {
	counts := map[models.VisitStatus]int{
		models.StatusPending:    0,
		models.StatusApproved:   0,
		models.StatusRejected:   0,
		models.StatusCheckedIn:  0,
		models.StatusCheckedOut: 0,
	}
	for i := range visits {
		if _, ok := counts[visits[i].Status]; ok {
			counts[visits[i].Status]++
		}
	}
	return counts
}

// PerCompanyToday maps every known company name to its count of
// today's visits. Known companies are seeded at zero so companies with
// no visitors still chart; unknown names seen in the data are included
// when nonzero, and unresolvable companies bucket under UnknownName,
// kept only when nonzero.
func (en *Engine) PerCompanyToday(visits []models.Visit, companies []models.Company) map[string]int {
	byID := map[string]string{}
	counts := map[string]int{}
	for _, c := range companies {
		if c.Name != "" {
			byID[c.ID.String()] = c.Name
			counts[c.Name] = 0
		}
	}

	today := en.now()
	for i := range visits {
		v := &visits[i]
		if v.InTime == nil || !en.sameLocalDay(*v.InTime, today) {
			continue
		}
		counts[lookupName(byID, v.CompanyID.String())]++
	}

	if counts[UnknownName] == 0 {
		delete(counts, UnknownName)
	}
	return counts
}

// Chart builds the dashboard bar series: total first, then one bar per
// company in name order.
func (en *Engine) Chart(visits []models.Visit, companies []models.Company) ChartSeries {
	perCompany := en.PerCompanyToday(visits, companies)
	names := lo.Keys(perCompany)
	sort.Strings(names)

	series := ChartSeries{
		Labels: append([]string{"Total Visitors"}, names...),
		Values: []int{en.TotalToday(visits)},
	}
	for _, name := range names {
		series.Values = append(series.Values, perCompany[name])
	}
	return series
}

// UniqueHosts returns the sorted distinct host names appearing in rows,
// for filter dropdowns.
func UniqueHosts(rows []Row) []string {
	return uniqueValues(rows, func(r Row) string { return r.Host })
}

// UniqueCompanies returns the sorted distinct company names in rows.
func UniqueCompanies(rows []Row) []string {
	return uniqueValues(rows, func(r Row) string { return r.Company })
}

func uniqueValues(rows []Row, value func(Row) string) []string {
	values := lo.Uniq(lo.FilterMap(rows, func(r Row, _ int) (string, bool) {
		v := value(r)
		return v, v != ""
	}))
	sort.Strings(values)
	return values
}

// Filter is a set of independent optional predicates, all ANDed. The
// zero value matches everything.
type Filter struct {
	// Date and Time are substring matches against the display fields.
	Date string `form:"date" json:"date"`
	Time string `form:"time" json:"time"`
	// Host, Company, and Status are exact matches.
	Host    string `form:"host" json:"host"`
	Company string `form:"company" json:"company"`
	Status  string `form:"status" json:"status"`
	// Visitor is a case-insensitive substring match on the name.
	Visitor string `form:"visitor" json:"visitor"`
}

// Matches reports whether a row passes every supplied predicate.
func (f *Filter) Matches(row *Row) bool {
	if f.Date != "" && !strings.Contains(row.DisplayDate, f.Date) {
		return false
	}
	if f.Time != "" && !strings.Contains(row.DisplayTime, f.Time) {
		return false
	}
	if f.Host != "" && row.Host != f.Host {
		return false
	}
	if f.Company != "" && row.Company != f.Company {
		return false
	}
	if f.Status != "" && row.Status != f.Status {
		return false
	}
	if f.Visitor != "" && !strings.Contains(strings.ToLower(row.VisitorName), strings.ToLower(f.Visitor)) {
		return false
	}
	return true
}

// Apply filters rows preserving their order.
func (f *Filter) Apply(rows []Row) []Row {
	filtered := make([]Row, 0, len(rows))
	for i := range rows {
		if f.Matches(&rows[i]) {
			filtered = append(filtered, rows[i])
		}
	}
	return filtered
}

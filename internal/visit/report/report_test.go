package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/snyce/visitgate/internal/pkg/utils"
	"github.com/snyce/visitgate/internal/visit/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testZone = time.FixedZone("Asia/Kolkata", 5*3600+1800)

func testEngine(now time.Time) *Engine {
	en := NewEngine(testZone)
	en.now = func() time.Time { return now }
	return en
}

func TestDisplayTime(t *testing.T) {
	en := testEngine(time.Now())

	tests := []struct {
		hour, minute int
		want         string
	}{
		{0, 5, "12.05 am"},
		{13, 0, "1.00 pm"},
		{11, 23, "11.23 am"},
		{12, 0, "12.00 pm"},
		{23, 59, "11.59 pm"},
	}
	for _, tt := range tests {
		instant := time.Date(2024, 3, 1, tt.hour, tt.minute, 0, 0, testZone)
		assert.Equal(t, tt.want, en.DisplayTime(instant))
	}
}

func TestDisplayDate(t *testing.T) {
	en := testEngine(time.Now())
	instant := time.Date(2025, 11, 28, 9, 0, 0, 0, testZone)
	assert.Equal(t, "28/11/25", en.DisplayDate(instant))
}

// TestTotalToday checks the local-midnight boundary: a visit stamped
// just before midnight belongs to the previous local day even though a
// UTC comparison would disagree.
func TestTotalToday(t *testing.T) {
	now := time.Date(2024, 3, 2, 10, 0, 0, 0, testZone)
	en := testEngine(now)

	visits := []models.Visit{
		{InTime: utils.Ptr(time.Date(2024, 3, 1, 23, 59, 0, 0, testZone))},
		{InTime: utils.Ptr(time.Date(2024, 3, 2, 0, 1, 0, 0, testZone))},
		{Status: models.StatusPending}, // no in time at all
	}

	assert.Equal(t, 1, en.TotalToday(visits), "only the post-midnight visit counts as today")
}

func TestStatusCounts(t *testing.T) {
	en := testEngine(time.Now())
	visits := []models.Visit{
		{Status: models.StatusCheckedIn},
		{Status: models.StatusCheckedIn},
		{Status: models.StatusPending},
	}

	counts := en.StatusCounts(visits)
	assert.Equal(t, 2, counts[models.StatusCheckedIn])
	assert.Equal(t, 1, counts[models.StatusPending])
	// every status appears, seeded at zero
	assert.Contains(t, counts, models.StatusRejected)
	assert.Equal(t, 0, counts[models.StatusRejected])

	assert.Equal(t, 2, en.ActiveCount(visits))
	assert.Equal(t, 1, en.PendingCount(visits))
}

func TestPerCompanyToday(t *testing.T) {
	now := time.Date(2024, 3, 2, 10, 0, 0, 0, testZone)
	en := testEngine(now)

	busy := models.Company{ID: uuid.New(), Name: "Global Tech"}
	idle := models.Company{ID: uuid.New(), Name: "Nebula Innovations"}
	companies := []models.Company{busy, idle}

	today := utils.Ptr(time.Date(2024, 3, 2, 9, 30, 0, 0, testZone))
	visits := []models.Visit{
		{CompanyID: busy.ID, InTime: today},
		{CompanyID: busy.ID, InTime: today},
		{CompanyID: uuid.New(), InTime: today}, // unresolvable company
		{CompanyID: idle.ID, InTime: utils.Ptr(time.Date(2024, 3, 1, 9, 0, 0, 0, testZone))},
	}

	counts := en.PerCompanyToday(visits, companies)
	assert.Equal(t, 2, counts["Global Tech"])
	assert.Equal(t, 0, counts["Nebula Innovations"], "idle company must appear at zero, not be omitted")
	assert.Equal(t, 1, counts[UnknownName], "unresolvable company buckets under Unknown")
}

func TestPerCompanyToday_DropsEmptyUnknown(t *testing.T) {
	en := testEngine(time.Now())
	counts := en.PerCompanyToday(nil, []models.Company{{ID: uuid.New(), Name: "Global Tech"}})
	assert.NotContains(t, counts, UnknownName, "Unknown appears only when nonzero")
}

func TestChart(t *testing.T) {
	now := time.Date(2024, 3, 2, 10, 0, 0, 0, testZone)
	en := testEngine(now)

	company := models.Company{ID: uuid.New(), Name: "Global Tech"}
	visits := []models.Visit{
		{CompanyID: company.ID, InTime: utils.Ptr(time.Date(2024, 3, 2, 9, 0, 0, 0, testZone))},
	}

	series := en.Chart(visits, []models.Company{company})
	require.Equal(t, []string{"Total Visitors", "Global Tech"}, series.Labels)
	assert.Equal(t, []int{1, 1}, series.Values)
}

func rowFixtures(t *testing.T, en *Engine) []Row {
	t.Helper()
	companyID := uuid.New()
	hostA, hostB := uuid.New(), uuid.New()
	companies := []models.Company{{ID: companyID, Name: "Global Tech"}}
	hosts := []models.Host{
		{ID: hostA, Name: "Alice"},
		{ID: hostB, Name: "Bob"},
	}

	visits := []models.Visit{
		{
			ID:        uuid.New(),
			Name:      "Charlie Davis",
			HostID:    hostA,
			CompanyID: companyID,
			Status:    models.StatusCheckedOut,
			InTime:    utils.Ptr(time.Date(2024, 3, 2, 9, 0, 0, 0, testZone)),
			OutTime:   utils.Ptr(time.Date(2024, 3, 2, 11, 30, 0, 0, testZone)),
		},
		{
			ID:        uuid.New(),
			Name:      "Alice Williams",
			HostID:    hostB,
			CompanyID: companyID,
			Status:    models.StatusCheckedIn,
			InTime:    utils.Ptr(time.Date(2024, 3, 2, 10, 0, 0, 0, testZone)),
		},
		{
			// no usable instant at all
			ID:     uuid.New(),
			Name:   "Bob Brown",
			Status: models.StatusPending,
		},
	}
	return en.Rows(visits, companies, hosts)
}

func TestRows(t *testing.T) {
	en := testEngine(time.Now())
	rows := rowFixtures(t, en)
	require.Len(t, rows, 3)

	// newest first; the instantless row sorts oldest
	assert.Equal(t, "Alice Williams", rows[0].VisitorName)
	assert.Equal(t, "Charlie Davis", rows[1].VisitorName)
	assert.Equal(t, "Bob Brown", rows[2].VisitorName)

	assert.Equal(t, "9.00 am - 11.30 am", rows[1].TimeRange, "checked-out rows show the full range")
	assert.Equal(t, "10.00 am - Active", rows[0].TimeRange, "on-site rows show Active")

	na := rows[2]
	assert.Equal(t, NotApplicable, na.DisplayDate)
	assert.Equal(t, NotApplicable, na.DisplayTime)
	assert.Equal(t, NotApplicable, na.TimeRange)
	assert.Equal(t, UnknownName, na.Host, "unresolvable host falls back to Unknown")
	assert.Zero(t, na.Timestamp)
}

func TestFilter(t *testing.T) {
	en := testEngine(time.Now())
	rows := rowFixtures(t, en)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "empty filter matches everything",
			filter: Filter{},
			want:   []string{"Alice Williams", "Charlie Davis", "Bob Brown"},
		},
		{
			name:   "host is an exact match, independent of the name filter",
			filter: Filter{Host: "Alice"},
			want:   []string{"Charlie Davis"},
		},
		{
			name:   "visitor name is a case-insensitive substring",
			filter: Filter{Visitor: "alice"},
			want:   []string{"Alice Williams"},
		},
		{
			name:   "status exact",
			filter: Filter{Status: "CHECKED_IN"},
			want:   []string{"Alice Williams"},
		},
		{
			name:   "date substring",
			filter: Filter{Date: "02/03"},
			want:   []string{"Alice Williams", "Charlie Davis"},
		},
		{
			name:   "predicates are ANDed",
			filter: Filter{Company: "Global Tech", Host: "Bob"},
			want:   []string{"Alice Williams"},
		},
		{
			name:   "no matching rows",
			filter: Filter{Host: "Alice", Visitor: "Alice"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(rows)
			names := make([]string, 0, len(got))
			for _, r := range got {
				names = append(names, r.VisitorName)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestUniqueValues(t *testing.T) {
	en := testEngine(time.Now())
	rows := rowFixtures(t, en)

	assert.Equal(t, []string{"Alice", "Bob", UnknownName}, UniqueHosts(rows))
	assert.Equal(t, []string{"Global Tech", UnknownName}, UniqueCompanies(rows))
}

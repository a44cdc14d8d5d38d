// Package reporting computes read-only aggregates for the admin and NGO
// dashboards. Figures are not linearizable with concurrent writes.
package reporting

import (
	"context"
	"sort"
	"time"

	"disaster-relief-api-server/internal/apperr"
	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/store"

	"github.com/shopspring/decimal"
)

const (
	coordinationTaskLimit = 5
	signupMonths          = 6
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

type StatusCount struct {
	Status models.RequestStatus `json:"status"`
	Count  int64                `json:"count"`
}

type RequestsReport struct {
	TotalRequests    int64         `json:"totalRequests"`
	RequestsByStatus []StatusCount `json:"requestsByStatus"`
}

func (s *Service) RequestsReport(ctx context.Context) (*RequestsReport, error) {
	counts, err := s.store.Requests().CountByStatus(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Could not build requests report")
	}
	report := &RequestsReport{RequestsByStatus: make([]StatusCount, 0, len(counts))}
	for status, n := range counts {
		report.TotalRequests += n
		report.RequestsByStatus = append(report.RequestsByStatus, StatusCount{Status: status, Count: n})
	}
	sort.Slice(report.RequestsByStatus, func(i, j int) bool {
		return report.RequestsByStatus[i].Status < report.RequestsByStatus[j].Status
	})
	return report, nil
}

type DayCount struct {
	Date     string `json:"date"`
	Requests int64  `json:"requests"`
}

// Last7Days counts requests created on each of the seven UTC days ending
// with now's day, oldest first.
func (s *Service) Last7Days(ctx context.Context, now time.Time) ([]DayCount, error) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]DayCount, 0, 7)
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		n, err := s.store.Requests().CountCreatedBetween(ctx, day, day.AddDate(0, 0, 1))
		if err != nil {
			return nil, apperr.Internal(err, "Could not build daily stats")
		}
		out = append(out, DayCount{Date: day.Format("2006-01-02"), Requests: n})
	}
	return out, nil
}

type DashboardStats struct {
	TasksInProgress   int64 `json:"tasksInProgress"`
	ResourcesDeployed int64 `json:"resourcesDeployed"`
	ActiveVolunteers  int64 `json:"activeVolunteers"`
	PartnerNgos       int64 `json:"partnerNgos"`
}

type CoordinationTask struct {
	ID        string          `json:"id"`
	Org       string          `json:"org"`
	Task      string          `json:"task"`
	Urgency   models.Priority `json:"urgency"`
	Location  string          `json:"location"`
	CreatedAt time.Time       `json:"createdAt"`
}

type NgoDashboard struct {
	Stats             DashboardStats     `json:"stats"`
	CoordinationTasks []CoordinationTask `json:"coordinationTasks"`
}

// NgoDashboard is only visible to the NGO it describes.
func (s *Service) NgoDashboard(ctx context.Context, ngoID, callerID string) (*NgoDashboard, error) {
	if ngoID != callerID {
		return nil, apperr.Forbidden("You are not authorized to view this dashboard.")
	}

	var (
		d   NgoDashboard
		err error
	)
	d.Stats.TasksInProgress, err = s.store.Requests().Count(ctx, models.RequestFilter{
		ManagedBy: ngoID,
		Statuses:  []models.RequestStatus{models.StatusAssigned, models.StatusInProgress},
	})
	if err != nil {
		return nil, apperr.Internal(err, "Server Error")
	}
	if d.Stats.ResourcesDeployed, err = s.store.NgoResources().CountByOwnerAndStatus(ctx, ngoID, models.ResourceDeployed); err != nil {
		return nil, apperr.Internal(err, "Server Error")
	}
	if d.Stats.ActiveVolunteers, err = s.store.Users().CountByRole(ctx, models.RoleVolunteer, ""); err != nil {
		return nil, apperr.Internal(err, "Server Error")
	}
	if d.Stats.PartnerNgos, err = s.store.Users().CountByRole(ctx, models.RoleNGO, ngoID); err != nil {
		return nil, apperr.Internal(err, "Server Error")
	}

	pending, err := s.store.Requests().List(ctx, models.RequestFilter{
		Status:      models.StatusPending,
		RequestType: models.RequestTypeResource,
	})
	if err != nil {
		return nil, apperr.Internal(err, "Server Error")
	}
	// List is newest first; a stable sort keeps that within a priority.
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Priority.Rank() < pending[j].Priority.Rank()
	})
	if len(pending) > coordinationTaskLimit {
		pending = pending[:coordinationTaskLimit]
	}
	d.CoordinationTasks = make([]CoordinationTask, 0, len(pending))
	for _, r := range pending {
		d.CoordinationTasks = append(d.CoordinationTasks, CoordinationTask{
			ID:        r.ID,
			Org:       "Emergency Portal",
			Task:      r.Description,
			Urgency:   r.Priority,
			Location:  r.Location,
			CreatedAt: r.CreatedAt,
		})
	}
	return &d, nil
}

type NgoFulfilment struct {
	Name      string `json:"name"`
	Fulfilled int64  `json:"fulfilled"`
	// AvgHours is serialized as a fixed two-decimal string.
	AvgHours decimal.Decimal `json:"avgHours"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type Analytics struct {
	NgoInsights      []NgoFulfilment `json:"ngoInsights"`
	VolunteerSignups []MonthCount    `json:"volunteerSignups"`
}

// Analytics summarises completed work per NGO and volunteer sign-ups for
// the most recent months.
func (s *Service) Analytics(ctx context.Context) (*Analytics, error) {
	completed, err := s.store.Requests().List(ctx, models.RequestFilter{Status: models.StatusCompleted})
	if err != nil {
		return nil, apperr.Internal(err, "Could not load analytics")
	}

	type acc struct {
		count int64
		hours decimal.Decimal
	}
	byNgo := map[string]*acc{}
	for _, r := range completed {
		if r.ManagedBy == "" {
			continue
		}
		a, ok := byNgo[r.ManagedBy]
		if !ok {
			a = &acc{}
			byNgo[r.ManagedBy] = a
		}
		a.count++
		a.hours = a.hours.Add(decimal.NewFromFloat(r.UpdatedAt.Sub(r.CreatedAt).Hours()))
	}

	out := &Analytics{NgoInsights: []NgoFulfilment{}, VolunteerSignups: []MonthCount{}}
	for ngoID, a := range byNgo {
		name := ngoID
		if u, err := s.store.Users().Get(ctx, ngoID); err == nil {
			name = u.Name
		}
		avg := a.hours.Div(decimal.NewFromInt(a.count)).Round(2)
		out.NgoInsights = append(out.NgoInsights, NgoFulfilment{Name: name, Fulfilled: a.count, AvgHours: avg})
	}
	sort.Slice(out.NgoInsights, func(i, j int) bool {
		if out.NgoInsights[i].Fulfilled != out.NgoInsights[j].Fulfilled {
			return out.NgoInsights[i].Fulfilled > out.NgoInsights[j].Fulfilled
		}
		return out.NgoInsights[i].Name < out.NgoInsights[j].Name
	})

	volunteers, err := s.store.Users().ListByRole(ctx, models.RoleVolunteer)
	if err != nil {
		return nil, apperr.Internal(err, "Could not load analytics")
	}
	months := map[string]int64{}
	for _, v := range volunteers {
		months[v.CreatedAt.UTC().Format("2006-01")]++
	}
	for m, n := range months {
		out.VolunteerSignups = append(out.VolunteerSignups, MonthCount{Month: m, Count: n})
	}
	sort.Slice(out.VolunteerSignups, func(i, j int) bool {
		return out.VolunteerSignups[i].Month < out.VolunteerSignups[j].Month
	})
	if n := len(out.VolunteerSignups); n > signupMonths {
		out.VolunteerSignups = out.VolunteerSignups[n-signupMonths:]
	}
	return out, nil
}

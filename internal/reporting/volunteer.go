package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"disaster-relief-api-server/internal/apperr"
	"disaster-relief-api-server/internal/models"
)

const (
	bannerAlertLimit   = 5
	urgentRequestLimit = 5
	overviewLimit      = 10
	titleRunes         = 50
)

var activeStatuses = []models.RequestStatus{models.StatusPending, models.StatusAssigned, models.StatusInProgress}

// TimeAgo renders the age of t relative to now in the short form the
// dashboards show.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	}
	return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
}

func title(description string) string {
	r := []rune(strings.TrimSpace(description))
	if len(r) <= titleRunes {
		return string(r)
	}
	return string(r[:titleRunes]) + "..."
}

func severity(p models.Priority) string {
	return strings.ToLower(string(p))
}

type Metric struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value int64  `json:"value"`
}

type Activity struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type BannerAlert struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Location string `json:"location"`
	Time     string `json:"time"`
}

type VolunteerStats struct {
	Metrics        []Metric      `json:"metrics"`
	LatestActivity *Activity     `json:"latestActivity"`
	BannerAlerts   []BannerAlert `json:"bannerAlerts"`
}

func (s *Service) VolunteerStats(ctx context.Context, now time.Time) (*VolunteerStats, error) {
	completed := models.RequestFilter{Status: models.StatusCompleted}
	tasks, err := s.store.Requests().Count(ctx, completed)
	if err != nil {
		return nil, apperr.Internal(err, "Could not load volunteer stats")
	}
	people, err := s.store.Requests().SumPeople(ctx, completed)
	if err != nil {
		return nil, apperr.Internal(err, "Could not load volunteer stats")
	}
	volunteers, err := s.store.Users().CountByRole(ctx, models.RoleVolunteer, "")
	if err != nil {
		return nil, apperr.Internal(err, "Could not load volunteer stats")
	}

	out := &VolunteerStats{Metrics: []Metric{
		{ID: "tasks-completed", Label: "Tasks Completed", Value: tasks},
		{ID: "people-helped", Label: "People Helped", Value: people},
		{ID: "active-volunteers", Label: "Active Volunteers", Value: volunteers},
	}}

	latest, err := s.store.Requests().List(ctx, models.RequestFilter{
		Status: models.StatusCompleted, ByUpdated: true, Limit: 1,
	})
	if err != nil {
		return nil, apperr.Internal(err, "Could not load volunteer stats")
	}
	if len(latest) > 0 {
		out.LatestActivity = &Activity{
			Text:      fmt.Sprintf("Completed: %s", title(latest[0].Description)),
			Timestamp: TimeAgo(latest[0].UpdatedAt, now),
		}
	}

	if out.BannerAlerts, err = s.bannerAlerts(ctx, now); err != nil {
		return nil, err
	}
	return out, nil
}

// bannerAlerts lists the most recently touched requests that are being worked.
func (s *Service) bannerAlerts(ctx context.Context, now time.Time) ([]BannerAlert, error) {
	working, err := s.store.Requests().List(ctx, models.RequestFilter{
		Statuses:  []models.RequestStatus{models.StatusAssigned, models.StatusInProgress},
		ByUpdated: true,
		Limit:     bannerAlertLimit,
	})
	if err != nil {
		return nil, apperr.Internal(err, "Could not load alerts")
	}
	alerts := make([]BannerAlert, 0, len(working))
	for _, r := range working {
		alerts = append(alerts, BannerAlert{
			ID:       r.ID,
			Text:     fmt.Sprintf("%s: %s", r.Status, title(r.Description)),
			Location: r.Location,
			Time:     TimeAgo(r.UpdatedAt, now),
		})
	}
	return alerts, nil
}

type VolunteerTask struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Severity    string `json:"severity"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Helped      int    `json:"helped"`
	Description string `json:"description"`
}

// VolunteerTasks lists open help requests, most urgent first and newest
// first within a priority.
func (s *Service) VolunteerTasks(ctx context.Context, now time.Time) ([]VolunteerTask, error) {
	pending, err := s.store.Requests().List(ctx, models.RequestFilter{
		Status:      models.StatusPending,
		RequestType: models.RequestTypeHelp,
	})
	if err != nil {
		return nil, apperr.Internal(err, "Could not load tasks")
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Priority.Rank() < pending[j].Priority.Rank()
	})
	tasks := make([]VolunteerTask, 0, len(pending))
	for _, r := range pending {
		tasks = append(tasks, VolunteerTask{
			ID:          r.ID,
			Title:       title(r.Description),
			Severity:    severity(r.Priority),
			Time:        TimeAgo(r.CreatedAt, now),
			Location:    r.Location,
			Helped:      r.People,
			Description: r.Description,
		})
	}
	return tasks, nil
}

type AssignedTask struct {
	ID       string               `json:"id"`
	Title    string               `json:"title"`
	Severity string               `json:"severity"`
	Status   models.RequestStatus `json:"status"`
	Location string               `json:"location"`
}

// VolunteerAssignedTasks lists help requests being worked, optionally only
// those assigned to volunteerID.
func (s *Service) VolunteerAssignedTasks(ctx context.Context, volunteerID string) ([]AssignedTask, error) {
	working, err := s.store.Requests().List(ctx, models.RequestFilter{
		Statuses:          []models.RequestStatus{models.StatusAssigned, models.StatusInProgress},
		RequestType:       models.RequestTypeHelp,
		AssignedVolunteer: volunteerID,
		ByUpdated:         true,
	})
	if err != nil {
		return nil, apperr.Internal(err, "Could not load assigned tasks")
	}
	tasks := make([]AssignedTask, 0, len(working))
	for _, r := range working {
		tasks = append(tasks, AssignedTask{
			ID:       r.ID,
			Title:    title(r.Description),
			Severity: severity(r.Priority),
			Status:   r.Status,
			Location: r.Location,
		})
	}
	return tasks, nil
}

type OverviewStats struct {
	TotalSOS         int64 `json:"totalSOS"`
	PeopleHelped     int64 `json:"peopleHelped"`
	ActiveVolunteers int64 `json:"activeVolunteers"`
}

type OverviewRequest struct {
	ID        string               `json:"id"`
	Location  string               `json:"location"`
	Latitude  *float64             `json:"latitude,omitempty"`
	Longitude *float64             `json:"longitude,omitempty"`
	Priority  models.Priority      `json:"priority"`
	Status    models.RequestStatus `json:"status"`
	People    int                  `json:"people"`
	Time      string               `json:"time"`
}

type UrgentRequest struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Priority models.Priority `json:"priority"`
	Location string          `json:"location"`
	Time     string          `json:"time"`
}

type VolunteerMarker struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Location *models.GeoPoint `json:"location"`
}

type EmergencyOverview struct {
	Stats        OverviewStats     `json:"stats"`
	HelpRequests []OverviewRequest `json:"helpRequests"`
	Urgent       []UrgentRequest   `json:"urgentRequests"`
	Volunteers   []VolunteerMarker `json:"volunteers"`
	BannerAlerts []BannerAlert     `json:"bannerAlerts"`
}

func (s *Service) EmergencyOverview(ctx context.Context, now time.Time) (*EmergencyOverview, error) {
	var (
		o   EmergencyOverview
		err error
	)
	if o.Stats.TotalSOS, err = s.store.Requests().Count(ctx, models.RequestFilter{Statuses: activeStatuses}); err != nil {
		return nil, apperr.Internal(err, "Could not load overview")
	}
	if o.Stats.PeopleHelped, err = s.store.Requests().SumPeople(ctx, models.RequestFilter{Status: models.StatusCompleted}); err != nil {
		return nil, apperr.Internal(err, "Could not load overview")
	}
	if o.Stats.ActiveVolunteers, err = s.store.Users().CountByRole(ctx, models.RoleVolunteer, ""); err != nil {
		return nil, apperr.Internal(err, "Could not load overview")
	}

	active, err := s.store.Requests().List(ctx, models.RequestFilter{
		Statuses:    activeStatuses,
		RequestType: models.RequestTypeHelp,
		Limit:       overviewLimit,
	})
	if err != nil {
		return nil, apperr.Internal(err, "Could not load overview")
	}
	o.HelpRequests = make([]OverviewRequest, 0, len(active))
	for _, r := range active {
		o.HelpRequests = append(o.HelpRequests, OverviewRequest{
			ID:        r.ID,
			Location:  r.Location,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Priority:  r.Priority,
			Status:    r.Status,
			People:    r.People,
			Time:      TimeAgo(r.CreatedAt, now),
		})
	}

	urgent, err := s.store.Requests().List(ctx, models.RequestFilter{
		Status:     models.StatusPending,
		Priorities: []models.Priority{models.PriorityCritical, models.PriorityHigh},
		Limit:      urgentRequestLimit,
	})
	if err != nil {
		return nil, apperr.Internal(err, "Could not load overview")
	}
	o.Urgent = make([]UrgentRequest, 0, len(urgent))
	for _, r := range urgent {
		o.Urgent = append(o.Urgent, UrgentRequest{
			ID:       r.ID,
			Title:    title(r.Description),
			Priority: r.Priority,
			Location: r.Location,
			Time:     TimeAgo(r.CreatedAt, now),
		})
	}

	volunteers, err := s.store.Users().ListByRole(ctx, models.RoleVolunteer)
	if err != nil {
		return nil, apperr.Internal(err, "Could not load overview")
	}
	o.Volunteers = make([]VolunteerMarker, 0, len(volunteers))
	for _, u := range volunteers {
		if !u.IsActive || u.CurrentLocation == nil {
			continue
		}
		o.Volunteers = append(o.Volunteers, VolunteerMarker{ID: u.ID, Name: u.Name, Location: u.CurrentLocation})
	}

	if o.BannerAlerts, err = s.bannerAlerts(ctx, now); err != nil {
		return nil, err
	}
	return &o, nil
}

// Volunteers lists every volunteer account.
func (s *Service) Volunteers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.Users().ListByRole(ctx, models.RoleVolunteer)
	if err != nil {
		return nil, apperr.Internal(err, "Could not load volunteers")
	}
	return users, nil
}

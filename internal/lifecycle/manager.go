// Package lifecycle drives help and resource requests through their
// statuses. Pending is the only entry point; Completed and Cancelled are
// final.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"disaster-relief-api-server/internal/alert"
	"disaster-relief-api-server/internal/apperr"
	"disaster-relief-api-server/internal/geocode"
	"disaster-relief-api-server/internal/mailer"
	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/notify"
	"disaster-relief-api-server/internal/s3"
	"disaster-relief-api-server/internal/store"
)

// PhotoUploader stores a request photo and returns its public URL.
type PhotoUploader interface {
	UploadFile(ctx context.Context, file io.Reader, objectKey, contentType string) (string, error)
}

type Manager struct {
	store    store.Store
	pub      notify.Publisher
	mail     mailer.Sender
	alerts   alert.Alerter
	geo      geocode.Geocoder
	uploader PhotoUploader
	timeout  time.Duration
	now      func() time.Time

	// background tracks outbound email and alerts still in flight.
	background sync.WaitGroup
}

type Option func(*Manager)

func WithMailer(s mailer.Sender) Option      { return func(m *Manager) { m.mail = s } }
func WithAlerter(a alert.Alerter) Option     { return func(m *Manager) { m.alerts = a } }
func WithGeocoder(g geocode.Geocoder) Option { return func(m *Manager) { m.geo = g } }
func WithUploader(u PhotoUploader) Option    { return func(m *Manager) { m.uploader = u } }
func WithTimeout(d time.Duration) Option     { return func(m *Manager) { m.timeout = d } }
func WithClock(now func() time.Time) Option  { return func(m *Manager) { m.now = now } }

func NewManager(st store.Store, pub notify.Publisher, opts ...Option) *Manager {
	m := &Manager{
		store:   st,
		pub:     pub,
		mail:    mailer.Nop{},
		alerts:  alert.Nop{},
		timeout: 10 * time.Second,
		now:     func() time.Time { return time.Now().UTC() },
	}
	if m.pub == nil {
		m.pub = notify.Nop{}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Wait blocks until queued emails and alerts have been attempted.
func (m *Manager) Wait() { m.background.Wait() }

// Photo is an optional image attached to a new request.
type Photo struct {
	Body        io.Reader
	Filename    string
	ContentType string
}

type CreateInput struct {
	RequestType models.RequestType `json:"requestType" form:"requestType"`
	Name        string             `json:"name" form:"name"`
	Email       string             `json:"email" form:"email"`
	Contact     string             `json:"contact" form:"contact"`
	Location    string             `json:"location" form:"location"`
	Latitude    *float64           `json:"latitude" form:"latitude"`
	Longitude   *float64           `json:"longitude" form:"longitude"`
	Description string             `json:"description" form:"description"`
	People      *int               `json:"people" form:"people"`
	Priority    models.Priority    `json:"priority" form:"priority"`
	Photo       *Photo             `json:"-" form:"-"`
}

func (in *CreateInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Contact = strings.TrimSpace(in.Contact)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)
	if in.RequestType == "" {
		in.RequestType = models.RequestTypeHelp
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}

	if !in.RequestType.Valid() {
		return apperr.Validation("Invalid request type: %s", in.RequestType)
	}
	hasCoords := in.Latitude != nil && in.Longitude != nil
	missing := map[string]string{}
	if in.Location == "" && !hasCoords {
		missing["location"] = "Location is required"
	}
	if in.Description == "" {
		missing["description"] = "Description is required"
	}
	if in.RequestType == models.RequestTypeHelp {
		if in.Name == "" {
			missing["name"] = "Name is required"
		}
		if in.Contact == "" {
			missing["contact"] = "Contact is required"
		}
	}
	if len(missing) > 0 {
		return apperr.ValidationFields(missing)
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		return apperr.Validation("Invalid email address")
	}
	if !in.Priority.Valid() {
		return apperr.Validation("Invalid priority: %s", in.Priority)
	}
	if in.People != nil && *in.People < 1 {
		return apperr.Validation("People must be at least 1")
	}
	return nil
}

// Create stores a new Pending request. Geocoding, photo upload, the
// confirmation email and alerts are all best effort: their failure never
// fails the request.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*models.HelpRequest, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	people := 1
	if in.People != nil {
		people = *in.People
	}
	now := m.now()
	req := &models.HelpRequest{
		RequestType:   in.RequestType,
		Name:          in.Name,
		Email:         in.Email,
		Contact:       in.Contact,
		Location:      m.resolveLocation(ctx, in),
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		Description:   in.Description,
		CurrentPhoto:  m.uploadPhoto(ctx, in.Photo),
		People:        people,
		Priority:      in.Priority,
		Status:        models.StatusPending,
		AssistanceLog: []models.AssistanceEntry{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := m.store.Requests().Insert(ctx, req); err != nil {
		return nil, apperr.Internal(err, "Could not save the request")
	}
	log.Printf("[lifecycle] %s request %s created (%s)", req.RequestType, req.ID, req.Priority)

	m.pub.Publish(notify.EventNewRequest, req)
	if req.Email != "" {
		m.sendConfirmation(*req)
	}
	if req.Priority == models.PriorityCritical {
		m.raiseAlert(*req)
	}
	return req, nil
}

func (m *Manager) resolveLocation(ctx context.Context, in CreateInput) string {
	fallback := in.Location
	if fallback == "" && in.Latitude != nil && in.Longitude != nil {
		fallback = fmt.Sprintf("%.5f, %.5f", *in.Latitude, *in.Longitude)
	}
	if m.geo == nil || in.Latitude == nil || in.Longitude == nil {
		return fallback
	}
	gctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	name, err := m.geo.Reverse(gctx, *in.Latitude, *in.Longitude)
	if err != nil {
		log.Printf("[lifecycle] reverse geocoding failed, keeping supplied location: %v", err)
		return fallback
	}
	return name
}

func (m *Manager) uploadPhoto(ctx context.Context, p *Photo) string {
	if p == nil || m.uploader == nil {
		return ""
	}
	uctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	url, err := m.uploader.UploadFile(uctx, p.Body, s3.PhotoKey(p.Filename, m.now()), p.ContentType)
	if err != nil {
		log.Printf("[lifecycle] photo upload failed: %v", err)
		return ""
	}
	return url
}

func (m *Manager) sendConfirmation(req models.HelpRequest) {
	msg, err := mailer.Confirmation(req.Email, mailer.ConfirmationData{
		ID: req.ID, Name: req.Name, Location: req.Location, People: req.People, Priority: string(req.Priority),
	})
	if err != nil {
		log.Printf("[lifecycle] %v", err)
		return
	}
	m.goBackground(func(ctx context.Context) {
		if err := m.mail.Send(ctx, msg); err != nil {
			log.Printf("[lifecycle] confirmation email for %s failed: %v", req.ID, err)
			return
		}
		log.Printf("[lifecycle] confirmation email sent to %s", req.Email)
	})
}

func (m *Manager) raiseAlert(req models.HelpRequest) {
	text := fmt.Sprintf("*Critical %s request*\nLocation: %s\nPeople affected: %d\n%s",
		strings.ToLower(string(req.RequestType)), req.Location, req.People, req.Description)
	m.goBackground(func(ctx context.Context) {
		if err := m.alerts.Alert(ctx, text); err != nil {
			log.Printf("[lifecycle] alert for %s failed: %v", req.ID, err)
		}
	})
}

func (m *Manager) goBackground(fn func(ctx context.Context)) {
	m.background.Add(1)
	go func() {
		defer m.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		fn(ctx)
	}()
}

// Get returns the request with its volunteer and NGO resolved to summaries.
func (m *Manager) Get(ctx context.Context, id string) (*models.RequestDetails, error) {
	req, err := m.store.Requests().Get(ctx, id)
	if err != nil {
		return nil, store.AppError(err, "Request not found")
	}
	details := &models.RequestDetails{HelpRequest: *req}
	if req.AssignedVolunteer != "" {
		if u, err := m.store.Users().Get(ctx, req.AssignedVolunteer); err == nil {
			details.AssignedVolunteer = u.Summary()
		}
	}
	if req.ManagedBy != "" {
		if u, err := m.store.Users().Get(ctx, req.ManagedBy); err == nil {
			details.ManagedBy = u.Summary()
		}
	}
	return details, nil
}

func (m *Manager) List(ctx context.Context, filter models.RequestFilter) ([]models.HelpRequest, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Validation("Invalid status: %s", filter.Status)
	}
	if filter.RequestType != "" && !filter.RequestType.Valid() {
		return nil, apperr.Validation("Invalid request type: %s", filter.RequestType)
	}
	reqs, err := m.store.Requests().List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err, "Could not load requests")
	}
	return reqs, nil
}

// maxTransitionAttempts bounds retries when another writer moves the
// request between the read and the conditional write.
const maxTransitionAttempts = 3

// transition moves a request to next, applying change in the same write.
// The write only lands if the status is still the one that was checked.
func (m *Manager) transition(ctx context.Context, id string, next models.RequestStatus, change store.RequestChange) (*models.HelpRequest, error) {
	change.Status = &next
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		cur, err := m.store.Requests().Get(ctx, id)
		if err != nil {
			return nil, store.AppError(err, "Request not found")
		}
		if !cur.Status.CanTransition(next) {
			return nil, apperr.Conflict("Cannot move a %s request to %s", cur.Status, next)
		}
		expect := cur.Status
		change.ExpectStatus = &expect

		updated, err := m.store.Requests().Apply(ctx, id, change, m.now())
		if errors.Is(err, store.ErrStale) {
			continue
		}
		if err != nil {
			return nil, store.AppError(err, "Request not found")
		}
		return updated, nil
	}
	return nil, apperr.Conflict("Request was changed concurrently, please retry")
}

// AssignToVolunteer puts a volunteer on the request and marks it Assigned.
func (m *Manager) AssignToVolunteer(ctx context.Context, requestID, volunteerID string) (*models.HelpRequest, error) {
	if strings.TrimSpace(volunteerID) == "" {
		return nil, apperr.Validation("Volunteer ID is required")
	}
	if _, err := m.store.Requests().Get(ctx, requestID); err != nil {
		return nil, store.AppError(err, "Request not found")
	}
	vol, err := m.store.Users().Get(ctx, volunteerID)
	if err != nil {
		return nil, store.AppError(err, "Volunteer not found")
	}
	if vol.Role != models.RoleVolunteer {
		return nil, apperr.InvalidRole("User %s is not a volunteer", vol.Name)
	}

	updated, err := m.transition(ctx, requestID, models.StatusAssigned, store.RequestChange{AssignedVolunteer: &volunteerID})
	if err != nil {
		return nil, err
	}
	log.Printf("[lifecycle] request %s assigned to volunteer %s", requestID, volunteerID)
	m.pub.Publish(notify.EventRequestUpdated, updated)
	return updated, nil
}

// AcceptCoordinationTask lets an NGO take over a request. Only the NGO
// itself may accept on its own behalf.
func (m *Manager) AcceptCoordinationTask(ctx context.Context, requestID, ngoID, callerID string) (*models.HelpRequest, error) {
	if ngoID != callerID {
		return nil, apperr.Forbidden("You are not authorized to perform this action.")
	}
	ngo, err := m.store.Users().Get(ctx, ngoID)
	if err != nil {
		return nil, store.AppError(err, "NGO not found")
	}
	if ngo.Role != models.RoleNGO {
		return nil, apperr.InvalidRole("User %s is not an NGO", ngo.Name)
	}

	updated, err := m.transition(ctx, requestID, models.StatusAssigned, store.RequestChange{ManagedBy: &ngoID})
	if err != nil {
		return nil, err
	}
	log.Printf("[lifecycle] request %s accepted by NGO %s", requestID, ngoID)
	m.pub.Publish(notify.EventRequestUpdated, updated)
	return updated, nil
}

// UpdateStatus sets a new status; notes are kept as completion notes when
// the request is being completed.
func (m *Manager) UpdateStatus(ctx context.Context, requestID string, status models.RequestStatus, notes string) (*models.HelpRequest, error) {
	if !status.Valid() {
		return nil, apperr.Validation("Invalid status: %s", status)
	}
	var change store.RequestChange
	if notes = strings.TrimSpace(notes); status == models.StatusCompleted && notes != "" {
		change.CompletionNotes = &notes
	}
	updated, err := m.transition(ctx, requestID, status, change)
	if err != nil {
		return nil, err
	}
	log.Printf("[lifecycle] request %s is now %s", requestID, status)
	m.pub.Publish(notify.EventRequestUpdated, updated)
	return updated, nil
}

// RequestAssistance flags the request and appends to its assistance log in
// one write. Assignments are left as they are.
func (m *Manager) RequestAssistance(ctx context.Context, requestID, notes, requester string) (*models.HelpRequest, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, apperr.Validation("Assistance notes are required.")
	}
	entry := models.AssistanceEntry{Notes: notes, Date: m.now(), RequestedBy: requester}
	updated, err := m.transition(ctx, requestID, models.StatusNeedsAssistance, store.RequestChange{AppendAssistance: &entry})
	if err != nil {
		return nil, err
	}
	log.Printf("[lifecycle] assistance requested on %s", requestID)
	m.pub.Publish(notify.EventAssistanceRequested, updated)
	return updated, nil
}

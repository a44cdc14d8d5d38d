// server/internal/models/help_request.go
package models

import "time"

type RequestType string

const (
	RequestTypeHelp     RequestType = "Help"
	RequestTypeResource RequestType = "Resource"
)

func (t RequestType) Valid() bool {
	return t == RequestTypeHelp || t == RequestTypeResource
}

type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium:
		return true
	}
	return false
}

// Rank orders priorities most urgent first.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	}
	return 2
}

type RequestStatus string

const (
	StatusPending         RequestStatus = "Pending"
	StatusAssigned        RequestStatus = "Assigned"
	StatusInProgress      RequestStatus = "InProgress"
	StatusCompleted       RequestStatus = "Completed"
	StatusCancelled       RequestStatus = "Cancelled"
	StatusNeedsAssistance RequestStatus = "Needs Assistance"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled, StatusNeedsAssistance:
		return true
	}
	return false
}

// Terminal statuses admit no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether a request may move from s to next.
// Nothing leaves or re-enters Completed or Cancelled, nothing goes back to
// Pending, and re-applying any other current status is allowed.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	if !next.Valid() || s.Terminal() {
		return false
	}
	if s == next {
		return true
	}
	return next != StatusPending
}

// AssistanceEntry is one append-only line of a request's assistance log.
type AssistanceEntry struct {
	Notes       string    `bson:"notes" json:"notes"`
	Date        time.Time `bson:"date" json:"date"`
	RequestedBy string    `bson:"requestedBy,omitempty" json:"requestedBy,omitempty"`
}

// HelpRequest is a victim's help request or an internal resource request.
type HelpRequest struct {
	ID                string            `bson:"_id" json:"id"`
	RequestType       RequestType       `bson:"requestType" json:"requestType"`
	Name              string            `bson:"name,omitempty" json:"name,omitempty"`
	Email             string            `bson:"email,omitempty" json:"email,omitempty"`
	Contact           string            `bson:"contact,omitempty" json:"contact,omitempty"`
	Location          string            `bson:"location" json:"location"`
	Latitude          *float64          `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude         *float64          `bson:"longitude,omitempty" json:"longitude,omitempty"`
	Description       string            `bson:"description" json:"description"`
	CurrentPhoto      string            `bson:"currentPhoto,omitempty" json:"currentPhoto,omitempty"`
	People            int               `bson:"people" json:"people"`
	Priority          Priority          `bson:"priority" json:"priority"`
	Status            RequestStatus     `bson:"status" json:"status"`
	AssignedVolunteer string            `bson:"assignedVolunteer,omitempty" json:"assignedVolunteer,omitempty"`
	ManagedBy         string            `bson:"managedBy,omitempty" json:"managedBy,omitempty"`
	CompletionNotes   string            `bson:"completionNotes,omitempty" json:"completionNotes,omitempty"`
	AssistanceLog     []AssistanceEntry `bson:"assistanceLog" json:"assistanceLog"`
	CreatedAt         time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// RequestFilter narrows request listings; zero values are ignored.
type RequestFilter struct {
	Status            RequestStatus
	Statuses          []RequestStatus
	RequestType       RequestType
	ManagedBy         string
	AssignedVolunteer string
	Priorities        []Priority
	// ByUpdated sorts by last update instead of creation, newest first.
	ByUpdated bool
	Limit     int
}

// RequestDetails is a request with its volunteer and NGO resolved.
type RequestDetails struct {
	HelpRequest
	AssignedVolunteer *UserSummary `json:"assignedVolunteer,omitempty"`
	ManagedBy         *UserSummary `json:"managedBy,omitempty"`
}

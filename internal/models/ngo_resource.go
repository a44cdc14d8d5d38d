// server/internal/models/ngo_resource.go
package models

import "time"

type ResourceStatus string

const (
	ResourceAvailable     ResourceStatus = "Available"
	ResourcePartiallyUsed ResourceStatus = "Partially Used"
	ResourceDepleted      ResourceStatus = "Depleted"
	ResourceDeployed      ResourceStatus = "Deployed"
)

func (s ResourceStatus) Valid() bool {
	switch s {
	case ResourceAvailable, ResourcePartiallyUsed, ResourceDepleted, ResourceDeployed:
		return true
	}
	return false
}

// NgoResource is an NGO's own holding of one warehouse item. There is at most
// one per (ManagedBy, CentralResourceID) pair.
type NgoResource struct {
	ID                string         `bson:"_id" json:"id"`
	Name              string         `bson:"name" json:"name"`
	Category          Category       `bson:"category" json:"category"`
	Quantity          int            `bson:"quantity" json:"quantity"`
	Unit              string         `bson:"unit" json:"unit"`
	Location          string         `bson:"location" json:"location"`
	Contact           string         `bson:"contact" json:"contact"`
	ManagedBy         string         `bson:"managedBy" json:"managedBy"`
	CentralResourceID string         `bson:"centralResourceId" json:"centralResourceId"`
	Status            ResourceStatus `bson:"status" json:"status"`
	CreatedAt         time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// NgoResourcePatch carries the NGO-editable fields; nil means "keep".
type NgoResourcePatch struct {
	Name     *string         `json:"name"`
	Category *Category       `json:"category"`
	Quantity *int            `json:"quantity"`
	Unit     *string         `json:"unit"`
	Location *string         `json:"location"`
	Contact  *string         `json:"contact"`
	Status   *ResourceStatus `json:"status"`
}

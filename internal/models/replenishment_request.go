// server/internal/models/replenishment_request.go
package models

import "time"

type ReplenishmentStatus string

const (
	ReplenishmentPending  ReplenishmentStatus = "Pending"
	ReplenishmentApproved ReplenishmentStatus = "Approved"
	ReplenishmentRejected ReplenishmentStatus = "Rejected"
)

// ReplenishmentRequest is an NGO asking the warehouse to top up one of its
// holdings. It leaves Pending exactly once.
type ReplenishmentRequest struct {
	ID                   string              `bson:"_id" json:"id"`
	NgoInventoryRecordID string              `bson:"ngoInventoryRecordId" json:"ngoInventoryRecordId"`
	CentralResourceID    string              `bson:"centralResourceId" json:"centralResourceId"`
	ResourceName         string              `bson:"resourceName" json:"resourceName"`
	NgoID                string              `bson:"ngoId" json:"ngoId"`
	NgoName              string              `bson:"ngoName" json:"ngoName"`
	Quantity             int                 `bson:"quantity" json:"quantity"`
	Status               ReplenishmentStatus `bson:"status" json:"status"`
	ResolvedBy           string              `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
	ResolvedAt           *time.Time          `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	CreatedAt            time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time           `bson:"updatedAt" json:"updatedAt"`
}

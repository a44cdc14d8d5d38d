// server/internal/models/contact_query.go
package models

import "time"

type ContactStatus string

const (
	ContactPending  ContactStatus = "Pending"
	ContactResolved ContactStatus = "Resolved"
)

func (s ContactStatus) Valid() bool {
	return s == ContactPending || s == ContactResolved
}

// ContactQuery is a message sent through the public contact form.
type ContactQuery struct {
	ID          string        `bson:"_id" json:"id"`
	Name        string        `bson:"name" json:"name"`
	Email       string        `bson:"email" json:"email"`
	PhoneNumber string        `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	QueryType   string        `bson:"queryType" json:"queryType"`
	Subject     string        `bson:"subject" json:"subject"`
	Message     string        `bson:"message" json:"message"`
	Status      ContactStatus `bson:"status" json:"status"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// server/internal/models/user.go
package models

import (
	"fmt"
	"time"
)

// Role is the closed set of identities the API knows about.
type Role string

const (
	RoleNGO       Role = "NGO"
	RoleVolunteer Role = "Volunteer"
	RoleEmergency Role = "Emergency"
	RoleAdmin     Role = "Admin"
)

// ParseRole accepts only the canonical spelling of a role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleNGO, RoleVolunteer, RoleEmergency, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User matches the document in the users collection.
type User struct {
	ID              string    `bson:"_id" json:"id"`
	Name            string    `bson:"name" json:"name"`
	Email           string    `bson:"email" json:"email"`
	Password        string    `bson:"password" json:"-"`
	PersonalEmail   string    `bson:"personalEmail,omitempty" json:"personalEmail,omitempty"`
	Role            Role      `bson:"role" json:"role"`
	IsActive        bool      `bson:"isActive" json:"isActive"`
	CurrentLocation *GeoPoint `bson:"currentLocation,omitempty" json:"currentLocation,omitempty"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// UserSummary is what gets embedded when a request resolves its volunteer or NGO.
type UserSummary struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	CurrentLocation *GeoPoint `json:"currentLocation,omitempty"`
}

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, CurrentLocation: u.CurrentLocation}
}

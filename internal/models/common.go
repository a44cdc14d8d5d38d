// server/internal/models/common.go
package models

import "time"

// Category classifies both warehouse items and NGO holdings.
type Category string

const (
	CategoryFood     Category = "Food"
	CategoryWater    Category = "Water"
	CategoryMedical  Category = "Medical"
	CategoryShelter  Category = "Shelter"
	CategoryClothing Category = "Clothing"
	CategoryOther    Category = "Other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryWater, CategoryMedical, CategoryShelter, CategoryClothing, CategoryOther:
		return true
	}
	return false
}

// GeoPoint is a last-known position, e.g. a volunteer's live location.
type GeoPoint struct {
	Lat         float64   `bson:"lat" json:"lat"`
	Lng         float64   `bson:"lng" json:"lng"`
	LastUpdated time.Time `bson:"lastUpdated" json:"lastUpdated"`
}

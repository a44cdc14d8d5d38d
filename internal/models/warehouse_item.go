// server/internal/models/warehouse_item.go
package models

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// WarehouseItem is one stock line of the central warehouse, keyed by a
// human-readable code such as "RES001".
type WarehouseItem struct {
	ID            string    `bson:"_id" json:"id"`
	ResourceName  string    `bson:"resourceName" json:"resourceName"`
	NameKey       string    `bson:"resourceNameKey" json:"-"` // case-folded name, unique
	Category      Category  `bson:"category" json:"category"`
	TotalQuantity int       `bson:"totalQuantity" json:"totalQuantity"`
	Unit          string    `bson:"unit" json:"unit"`
	Location      string    `bson:"location" json:"location"`
	LastUpdated   time.Time `bson:"lastUpdated" json:"lastUpdated"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// FoldName is the case-insensitive identity of a warehouse item name, stored
// as NameKey. A Caser is stateful, so each call gets its own.
func FoldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

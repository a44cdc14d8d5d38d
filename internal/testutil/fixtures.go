// Package testutil seeds an in-memory store for service and handler tests.
package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/store"
	"disaster-relief-api-server/internal/store/memstore"

	"github.com/stretchr/testify/require"
)

func NewStore() *memstore.Store {
	return memstore.New()
}

// User inserts an active user with the given role. The email is derived from
// the name.
func User(t *testing.T, st store.Store, name string, role models.Role) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		Name:      name,
		Email:     strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.org",
		Password:  "x",
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.Users().Insert(context.Background(), u))
	return u
}

// WarehouseItem inserts an item with a fixed code and quantity.
func WarehouseItem(t *testing.T, st store.Store, id, name string, qty int) *models.WarehouseItem {
	t.Helper()
	now := time.Now().UTC()
	item := &models.WarehouseItem{
		ID:            id,
		ResourceName:  name,
		NameKey:       models.FoldName(name),
		Category:      models.CategoryFood,
		TotalQuantity: qty,
		Unit:          "kits",
		Location:      "Central Depot",
		LastUpdated:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, st.Warehouse().Insert(context.Background(), item))
	return item
}

// Request inserts a Pending help request.
func Request(t *testing.T, st store.Store, typ models.RequestType, priority models.Priority) *models.HelpRequest {
	t.Helper()
	now := time.Now().UTC()
	req := &models.HelpRequest{
		RequestType: typ,
		Name:        "Asha",
		Contact:     "9999999999",
		Location:    "Kochi",
		Description: "Flooded ground floor",
		People:      3,
		Priority:    priority,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, st.Requests().Insert(context.Background(), req))
	return req
}

// Quantity reads a warehouse item's current stock.
func Quantity(t *testing.T, st store.Store, id string) int {
	t.Helper()
	item, err := st.Warehouse().Get(context.Background(), id)
	require.NoError(t, err)
	return item.TotalQuantity
}

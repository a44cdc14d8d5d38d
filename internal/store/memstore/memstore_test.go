package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedItem(t *testing.T, s *Store, id string, qty int) {
	t.Helper()
	err := s.Warehouse().Insert(context.Background(), &models.WarehouseItem{
		ID: id, ResourceName: "Item " + id, NameKey: models.FoldName("Item " + id), Category: models.CategoryFood, TotalQuantity: qty,
	})
	require.NoError(t, err)
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedItem(t, s, "RES001", 10)

	item, err := s.Warehouse().Withdraw(ctx, "RES001", 4)
	require.NoError(t, err)
	assert.Equal(t, 6, item.TotalQuantity)

	_, err = s.Warehouse().Withdraw(ctx, "RES001", 7)
	assert.ErrorIs(t, err, store.ErrInsufficientStock)

	_, err = s.Warehouse().Withdraw(ctx, "RES999", 1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.Warehouse().Get(ctx, "RES001")
	require.NoError(t, err)
	assert.Equal(t, 6, got.TotalQuantity)
}

func TestWarehouseUniqueName(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedItem(t, s, "RES001", 1)

	err := s.Warehouse().Insert(ctx, &models.WarehouseItem{ID: "RES002", NameKey: models.FoldName("ITEM res001")})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	err = s.Warehouse().Insert(ctx, &models.WarehouseItem{ID: "RES001", NameKey: "other"})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedItem(t, s, "RES001", 10)

	boom := errors.New("boom")
	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.Warehouse().Withdraw(ctx, "RES001", 5); err != nil {
			return err
		}
		if _, _, err := s.NgoResources().Credit(ctx, models.NgoResource{ManagedBy: "ngoA", CentralResourceID: "RES001"}, 5); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	item, err := s.Warehouse().Get(ctx, "RES001")
	require.NoError(t, err)
	assert.Equal(t, 10, item.TotalQuantity)

	recs, err := s.NgoResources().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestTransactionCommit(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedItem(t, s, "RES001", 10)

	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := s.Warehouse().Withdraw(ctx, "RES001", 3)
		return err
	})
	require.NoError(t, err)

	item, _ := s.Warehouse().Get(ctx, "RES001")
	assert.Equal(t, 7, item.TotalQuantity)
}

func TestCreditKeepsOneRecordPerPair(t *testing.T) {
	ctx := context.Background()
	s := New()
	tmpl := models.NgoResource{ManagedBy: "ngoA", CentralResourceID: "RES001", Status: models.ResourceAvailable}

	first, created, err := s.NgoResources().Credit(ctx, tmpl, 30)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := s.NgoResources().Credit(ctx, tmpl, 20)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 50, second.Quantity)

	other, created, err := s.NgoResources().Credit(ctx, models.NgoResource{ManagedBy: "ngoB", CentralResourceID: "RES001"}, 5)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, other.ID)

	n, err := s.NgoResources().CountByCentralResource(ctx, "RES001")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestResolveOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := New()
	req := &models.ReplenishmentRequest{Status: models.ReplenishmentPending, Quantity: 5}
	require.NoError(t, s.Replenishments().Insert(ctx, req))

	now := time.Now().UTC()
	resolved, err := s.Replenishments().Resolve(ctx, req.ID, models.ReplenishmentApproved, "admin", now)
	require.NoError(t, err)
	assert.Equal(t, models.ReplenishmentApproved, resolved.Status)

	_, err = s.Replenishments().Resolve(ctx, req.ID, models.ReplenishmentRejected, "admin", now)
	assert.ErrorIs(t, err, store.ErrStale)
}

func TestApplyAppendsAssistance(t *testing.T) {
	ctx := context.Background()
	s := New()
	req := &models.HelpRequest{Status: models.StatusAssigned}
	require.NoError(t, s.Requests().Insert(ctx, req))

	status := models.StatusNeedsAssistance
	for _, notes := range []string{"need boat", "need medic"} {
		_, err := s.Requests().Apply(ctx, req.ID, store.RequestChange{
			Status:           &status,
			AppendAssistance: &models.AssistanceEntry{Notes: notes},
		}, time.Now())
		require.NoError(t, err)
	}

	got, err := s.Requests().Get(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, got.AssistanceLog, 2)
	assert.Equal(t, "need boat", got.AssistanceLog[0].Notes)
	assert.Equal(t, "need medic", got.AssistanceLog[1].Notes)

	expected := models.StatusPending
	_, err = s.Requests().Apply(ctx, req.ID, store.RequestChange{ExpectStatus: &expected}, time.Now())
	assert.ErrorIs(t, err, store.ErrStale)
}

func TestSequences(t *testing.T) {
	ctx := context.Background()
	s := New()

	n, err := s.Sequences().Next(ctx, "warehouse")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, s.Sequences().AdvanceTo(ctx, "warehouse", 41))
	require.NoError(t, s.Sequences().AdvanceTo(ctx, "warehouse", 3))

	n, err = s.Sequences().Next(ctx, "warehouse")
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
}

func TestConcurrentWithdrawNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedItem(t, s, "RES001", 100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithTransaction(ctx, func(ctx context.Context) error {
				_, err := s.Warehouse().Withdraw(ctx, "RES001", 3)
				return err
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	item, _ := s.Warehouse().Get(ctx, "RES001")
	assert.Equal(t, 33, succeeded)
	assert.Equal(t, 1, item.TotalQuantity)
}

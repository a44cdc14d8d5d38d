package inventory

import (
	"context"
	"sync"
	"testing"

	"disaster-relief-api-server/internal/apperr"
	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/notify"
	"disaster-relief-api-server/internal/store/memstore"
	"disaster-relief-api-server/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func setup(t *testing.T) (*Service, *memstore.Store, *notify.Recorder) {
	t.Helper()
	st := testutil.NewStore()
	rec := &notify.Recorder{}
	return NewService(st, rec), st, rec
}

func TestFormatWarehouseID(t *testing.T) {
	assert.Equal(t, "RES001", FormatWarehouseID(1))
	assert.Equal(t, "RES042", FormatWarehouseID(42))
	assert.Equal(t, "RES1000", FormatWarehouseID(1000))

	n, ok := parseWarehouseID("RES017")
	assert.True(t, ok)
	assert.EqualValues(t, 17, n)
	_, ok = parseWarehouseID("ABC017")
	assert.False(t, ok)
}

func TestAddWarehouseItem(t *testing.T) {
	svc, _, rec := setup(t)
	ctx := context.Background()

	first, err := svc.AddWarehouseItem(ctx, WarehouseInput{
		ResourceName: "Rice Bags", Category: models.CategoryFood, TotalQuantity: intp(100), Unit: "bags", Location: "Depot A",
	})
	require.NoError(t, err)
	assert.Equal(t, "RES001", first.ID)

	second, err := svc.AddWarehouseItem(ctx, WarehouseInput{
		ResourceName: "Water Cans", Category: models.CategoryWater, TotalQuantity: intp(0), Unit: "cans", Location: "Depot A",
	})
	require.NoError(t, err)
	assert.Equal(t, "RES002", second.ID)
	assert.Equal(t, []string{notify.EventInventoryUpdated, notify.EventInventoryUpdated}, rec.Events())

	_, err = svc.AddWarehouseItem(ctx, WarehouseInput{
		ResourceName: "  rice BAGS ", Category: models.CategoryFood, TotalQuantity: intp(5), Unit: "bags", Location: "Depot B",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestAddWarehouseItemValidation(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.AddWarehouseItem(ctx, WarehouseInput{ResourceName: "Tents"})
	require.Error(t, err)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Contains(t, ae.Fields, "unit")

	_, err = svc.AddWarehouseItem(ctx, WarehouseInput{
		ResourceName: "Tents", Category: "Toys", TotalQuantity: intp(1), Unit: "pcs", Location: "X",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.AddWarehouseItem(ctx, WarehouseInput{
		ResourceName: "Tents", Category: models.CategoryShelter, TotalQuantity: intp(-1), Unit: "pcs", Location: "X",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestSyncWarehouseSequence(t *testing.T) {
	svc, st, _ := setup(t)
	ctx := context.Background()
	testutil.WarehouseItem(t, st, "RES007", "Blankets", 10)
	testutil.WarehouseItem(t, st, "LEGACY", "Soap", 10)

	require.NoError(t, svc.SyncWarehouseSequence(ctx))
	id, err := svc.NextWarehouseID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RES008", id)
}

func TestAssignToNgoScenario(t *testing.T) {
	svc, st, _ := setup(t)
	ctx := context.Background()
	testutil.WarehouseItem(t, st, "RES001", "Food Kits", 100)
	ngo := testutil.User(t, st, "Relief One", models.RoleNGO)

	rec, created, err := svc.AssignToNgo(ctx, AssignInput{CentralResourceID: "RES001", NgoID: ngo.ID, Quantity: 30})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 30, rec.Quantity)
	assert.Equal(t, DefaultNgoLocation, rec.Location)
	assert.Equal(t, DefaultNgoContact, rec.Contact)
	assert.Equal(t, models.ResourceAvailable, rec.Status)
	assert.Equal(t, "Food Kits", rec.Name)
	assert.Equal(t, 70, testutil.Quantity(t, st, "RES001"))

	again, created, err := svc.AssignToNgo(ctx, AssignInput{CentralResourceID: "RES001", NgoID: ngo.ID, Quantity: 20})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, rec.ID, again.ID)
	assert.Equal(t, 50, again.Quantity)
	assert.Equal(t, 50, testutil.Quantity(t, st, "RES001"))

	all, err := svc.ListNgoResources(ctx, ngo.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAssignToNgoFailuresLeaveStockUnchanged(t *testing.T) {
	svc, st, rec := setup(t)
	ctx := context.Background()
	testutil.WarehouseItem(t, st, "RES001", "Food Kits", 100)
	ngo := testutil.User(t, st, "Relief One", models.RoleNGO)
	vol := testutil.User(t, st, "Ravi", models.RoleVolunteer)

	tests := []struct {
		name string
		in   AssignInput
		kind apperr.Kind
	}{
		{"too much", AssignInput{CentralResourceID: "RES001", NgoID: ngo.ID, Quantity: 101}, apperr.KindInsufficientStock},
		{"zero", AssignInput{CentralResourceID: "RES001", NgoID: ngo.ID, Quantity: 0}, apperr.KindValidation},
		{"missing item", AssignInput{CentralResourceID: "RES404", NgoID: ngo.ID, Quantity: 1}, apperr.KindNotFound},
		{"missing ngo", AssignInput{CentralResourceID: "RES001", NgoID: "nobody", Quantity: 1}, apperr.KindNotFound},
		{"not an ngo", AssignInput{CentralResourceID: "RES001", NgoID: vol.ID, Quantity: 1}, apperr.KindInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.AssignToNgo(ctx, tt.in)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Equal(t, 100, testutil.Quantity(t, st, "RES001"))
		})
	}

	recs, err := svc.ListAllNgoResources(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Empty(t, rec.Events())
}

func TestAssignToNgoConservesQuantity(t *testing.T) {
	svc, st, _ := setup(t)
	ctx := context.Background()
	testutil.WarehouseItem(t, st, "RES001", "Food Kits", 100)
	ngos := []*models.User{
		testutil.User(t, st, "Relief One", models.RoleNGO),
		testutil.User(t, st, "Relief Two", models.RoleNGO),
	}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _ = svc.AssignToNgo(ctx, AssignInput{CentralResourceID: "RES001", NgoID: ngos[i%2].ID, Quantity: 7})
		}(i)
	}
	wg.Wait()

	recs, err := svc.ListAllNgoResources(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	held := 0
	for _, r := range recs {
		held += r.Quantity
		require.NotNil(t, r.Owner)
	}
	left := testutil.Quantity(t, st, "RES001")
	assert.GreaterOrEqual(t, left, 0)
	assert.Equal(t, 100, held+left)
	assert.Equal(t, 98, held)
}

func TestNgoResourceOwnership(t *testing.T) {
	svc, st, _ := setup(t)
	ctx := context.Background()
	testutil.WarehouseItem(t, st, "RES001", "Food Kits", 100)
	owner := testutil.User(t, st, "Relief One", models.RoleNGO)
	other := testutil.User(t, st, "Relief Two", models.RoleNGO)
	rec, _, err := svc.AssignToNgo(ctx, AssignInput{CentralResourceID: "RES001", NgoID: owner.ID, Quantity: 10})
	require.NoError(t, err)

	qty := 0
	_, err = svc.UpdateNgoResource(ctx, rec.ID, other.ID, models.NgoResourcePatch{Quantity: &qty})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	_, err = svc.DeployNgoResource(ctx, rec.ID, other.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	err = svc.DeleteNgoResource(ctx, rec.ID, other.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	still, err := st.NgoResources().Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, still.Quantity)
	assert.Equal(t, models.ResourceAvailable, still.Status)
}

func TestUpdateNgoResource(t *testing.T) {
	svc, st, _ := setup(t)
	ctx := context.Background()
	testutil.WarehouseItem(t, st, "RES001", "Food Kits", 100)
	ngo := testutil.User(t, st, "Relief One", models.RoleNGO)
	rec, _, err := svc.AssignToNgo(ctx, AssignInput{CentralResourceID: "RES001", NgoID: ngo.ID, Quantity: 10})
	require.NoError(t, err)

	qty := 4
	status := models.ResourcePartiallyUsed
	loc := "Camp 3"
	blank := "  "
	updated, err := svc.UpdateNgoResource(ctx, rec.ID, ngo.ID, models.NgoResourcePatch{
		Quantity: &qty, Status: &status, Location: &loc, Contact: &blank,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)
	assert.Equal(t, models.ResourcePartiallyUsed, updated.Status)
	assert.Equal(t, "Camp 3", updated.Location)
	assert.Equal(t, DefaultNgoContact, updated.Contact)
	assert.Equal(t, 90, testutil.Quantity(t, st, "RES001"))

	bad := models.ResourceStatus("Lost")
	_, err = svc.UpdateNgoResource(ctx, rec.ID, ngo.ID, models.NgoResourcePatch{Status: &bad})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	neg := -1
	_, err = svc.UpdateNgoResource(ctx, rec.ID, ngo.ID, models.NgoResourcePatch{Quantity: &neg})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestDeployAndDeleteNgoResource(t *testing.T) {
	svc, st, _ := setup(t)
	ctx := context.Background()
	testutil.WarehouseItem(t, st, "RES001", "Food Kits", 100)
	testutil.WarehouseItem(t, st, "RES002", "Tarps", 100)
	ngo := testutil.User(t, st, "Relief One", models.RoleNGO)
	a, _, err := svc.AssignToNgo(ctx, AssignInput{CentralResourceID: "RES001", NgoID: ngo.ID, Quantity: 10})
	require.NoError(t, err)
	b, _, err := svc.AssignToNgo(ctx, AssignInput{CentralResourceID: "RES002", NgoID: ngo.ID, Quantity: 10})
	require.NoError(t, err)

	res, err := svc.DeployNgoResource(ctx, a.ID, ngo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResourceDeployed, res.UpdatedResource.Status)
	assert.EqualValues(t, 1, res.UpdatedStats.ResourcesDeployed)

	res, err = svc.DeployNgoResource(ctx, b.ID, ngo.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.UpdatedStats.ResourcesDeployed)

	require.NoError(t, svc.DeleteNgoResource(ctx, a.ID, ngo.ID))
	assert.Equal(t, 90, testutil.Quantity(t, st, "RES001"))
	err = svc.DeleteNgoResource(ctx, a.ID, ngo.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestUpdateAndDeleteWarehouseItem(t *testing.T) {
	svc, st, _ := setup(t)
	ctx := context.Background()
	testutil.WarehouseItem(t, st, "RES001", "Food Kits", 100)
	testutil.WarehouseItem(t, st, "RES002", "Tarps", 5)
	ngo := testutil.User(t, st, "Relief One", models.RoleNGO)

	name := "FOOD KITS"
	updated, err := svc.UpdateWarehouseItem(ctx, "RES001", WarehousePatch{ResourceName: &name, TotalQuantity: intp(120)})
	require.NoError(t, err)
	assert.Equal(t, "FOOD KITS", updated.ResourceName)
	assert.Equal(t, 120, updated.TotalQuantity)

	taken := "tarps"
	_, err = svc.UpdateWarehouseItem(ctx, "RES001", WarehousePatch{ResourceName: &taken})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	_, err = svc.UpdateWarehouseItem(ctx, "RES001", WarehousePatch{TotalQuantity: intp(-5)})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = svc.UpdateWarehouseItem(ctx, "RES404", WarehousePatch{})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, _, err = svc.AssignToNgo(ctx, AssignInput{CentralResourceID: "RES001", NgoID: ngo.ID, Quantity: 1})
	require.NoError(t, err)
	err = svc.DeleteWarehouseItem(ctx, "RES001")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	require.NoError(t, svc.DeleteWarehouseItem(ctx, "RES002"))
	_, err = svc.GetWarehouseItem(ctx, "RES002")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

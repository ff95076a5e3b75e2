package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"lifeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignNearestPicksClosestUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Victim at Davanagere city center; one unit ~1.2km north, another
	// ~5km east.
	call := f.callWithLocation(t, "+919876543210", 14.4644, 75.9218)
	near := f.registerAmbulance(t, "KA-17-A-1001", 14.4752, 75.9218)
	f.registerAmbulance(t, "KA-17-A-1002", 14.4644, 75.9681)

	summary, err := f.dispatch.AssignNearest(ctx, call.ID)
	require.NoError(t, err)

	assert.Equal(t, near.VehicleNumber, summary.VehicleNumber)
	assert.InDelta(t, 1.2, summary.DistanceKM, 0.05)
	assert.Equal(t, 2, summary.ETAMinutes)

	updated, err := f.calls.GetCall(ctx, call.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusAssigned, updated.Status)
	require.NotNil(t, updated.AssignedAmbulanceID)
	assert.Equal(t, near.ID, *updated.AssignedAmbulanceID)

	reserved, err := f.ambulance.GetAmbulance(ctx, near.ID)
	require.NoError(t, err)
	assert.False(t, reserved.IsAvailable)
}

func TestAssignNearestTieBreaksOnVehicleNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	call := f.callWithLocation(t, "+919876543210", 14.4644, 75.9218)
	f.registerAmbulance(t, "KA-17-B-2000", 14.4700, 75.9218)
	f.registerAmbulance(t, "KA-17-A-1000", 14.4700, 75.9218)

	summary, err := f.dispatch.AssignNearest(ctx, call.ID)
	require.NoError(t, err)
	assert.Equal(t, "KA-17-A-1000", summary.VehicleNumber)
}

func TestAssignNearestRequiresLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	response := f.initiateCall(t, "+919876543210")
	f.registerAmbulance(t, "KA-17-A-1001", 14.4752, 75.9218)

	_, err := f.dispatch.AssignNearest(ctx, response.CallID)
	assert.ErrorIs(t, err, models.ErrLocationMissing)
}

func TestAssignNearestNoAmbulances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	call := f.callWithLocation(t, "+919876543210", 14.4644, 75.9218)

	_, err := f.dispatch.AssignNearest(ctx, call.ID)
	assert.ErrorIs(t, err, models.ErrNoAmbulancesAvailable)
}

func TestAssignNearestRejectsDoubleAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	call := f.callWithLocation(t, "+919876543210", 14.4644, 75.9218)
	f.registerAmbulance(t, "KA-17-A-1001", 14.4752, 75.9218)
	f.registerAmbulance(t, "KA-17-A-1002", 14.4644, 75.9681)

	_, err := f.dispatch.AssignNearest(ctx, call.ID)
	require.NoError(t, err)

	_, err = f.dispatch.AssignNearest(ctx, call.ID)
	assert.True(t, models.IsInvalidTransition(err))
}

// Two calls racing for one unit: exactly one assignment may win.
func TestConcurrentAssignmentExclusivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.registerAmbulance(t, "KA-17-A-1001", 14.4752, 75.9218)

	const callers = 20
	calls := make([]*models.EmergencyCall, callers)
	for i := range calls {
		calls[i] = f.callWithLocation(t, "+919876543210", 14.4644, 75.9218)
	}

	var wins, exhausted int64
	var wg sync.WaitGroup
	for i := range calls {
		wg.Add(1)
		go func(call *models.EmergencyCall) {
			defer wg.Done()
			_, err := f.dispatch.AssignNearest(ctx, call.ID)
			switch {
			case err == nil:
				atomic.AddInt64(&wins, 1)
			case err == models.ErrNoAmbulancesAvailable:
				atomic.AddInt64(&exhausted, 1)
			default:
				t.Errorf("unexpected assignment error: %v", err)
			}
		}(calls[i])
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins)
	assert.Equal(t, int64(callers-1), exhausted)
}

// Two dispatchers racing on one call: exactly one assignment may win, and
// the loser's reserved unit must return to the pool.
func TestConcurrentSameCallAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	call := f.callWithLocation(t, "+919876543210", 14.4644, 75.9218)
	f.registerAmbulance(t, "KA-17-A-1001", 14.4752, 75.9218)
	f.registerAmbulance(t, "KA-17-A-1002", 14.4644, 75.9681)

	const dispatchers = 10
	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < dispatchers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.dispatch.AssignNearest(ctx, call.ID)
			switch {
			case err == nil:
				atomic.AddInt64(&wins, 1)
			case models.IsInvalidTransition(err):
			case err == models.ErrNoAmbulancesAvailable:
			default:
				t.Errorf("unexpected assignment error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins)

	updated, err := f.calls.GetCall(ctx, call.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusAssigned, updated.Status)
	require.NotNil(t, updated.AssignedAmbulanceID)

	// Only the winning unit stays reserved; everything else is back in
	// the pool.
	units, err := f.ambulance.ListAmbulances(ctx)
	require.NoError(t, err)
	for _, unit := range units {
		if unit.ID == *updated.AssignedAmbulanceID {
			assert.False(t, unit.IsAvailable)
		} else {
			assert.True(t, unit.IsAvailable, "unit %s should have been released", unit.VehicleNumber)
		}
	}
}

func TestMarkArrivedAndComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	call := f.callWithLocation(t, "+919876543210", 14.4644, 75.9218)
	unit := f.registerAmbulance(t, "KA-17-A-1001", 14.4752, 75.9218)

	_, err := f.dispatch.AssignNearest(ctx, call.ID)
	require.NoError(t, err)

	arrived, err := f.dispatch.MarkArrived(ctx, unit.VehicleNumber)
	require.NoError(t, err)
	assert.True(t, arrived)

	updated, err := f.calls.GetCall(ctx, call.ID)
	require.NoError(t, err)
	assert.NotNil(t, updated.PickupAt)

	completed, err := f.dispatch.CompleteCall(ctx, unit.VehicleNumber)
	require.NoError(t, err)
	assert.True(t, completed)

	updated, err = f.calls.GetCall(ctx, call.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)

	// The unit is back in the pool.
	released, err := f.ambulance.GetAmbulance(ctx, unit.ID)
	require.NoError(t, err)
	assert.True(t, released.IsAvailable)

	// A second completion finds no active call.
	completed, err = f.dispatch.CompleteCall(ctx, unit.VehicleNumber)
	require.NoError(t, err)
	assert.False(t, completed)
}

func TestMarkArrivedWithoutAssignment(t *testing.T) {
	f := newFixture(t)

	unit := f.registerAmbulance(t, "KA-17-A-1001", 14.4752, 75.9218)

	arrived, err := f.dispatch.MarkArrived(context.Background(), unit.VehicleNumber)
	require.NoError(t, err)
	assert.False(t, arrived)
}

func TestAssignmentNotifiesBothSides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	call := f.callWithLocation(t, "+919876543210", 14.4644, 75.9218)
	f.registerAmbulance(t, "KA-17-A-1001", 14.4752, 75.9218)

	_, err := f.dispatch.AssignNearest(ctx, call.ID)
	require.NoError(t, err)

	messages := f.smsProvider.messages()
	recipients := make(map[string]bool)
	for _, m := range messages {
		recipients[m.To] = true
	}
	assert.True(t, recipients["+919876500001"], "driver should be notified")
	assert.True(t, recipients["+919876543210"], "caller should be notified")
}

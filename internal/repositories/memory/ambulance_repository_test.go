package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"lifeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRejectsDuplicateVehicle(t *testing.T) {
	repo := NewAmbulanceRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Ambulance{VehicleNumber: "KA-17-1234", IsAvailable: true}))
	err := repo.Create(ctx, &models.Ambulance{VehicleNumber: "KA-17-1234", IsAvailable: true})
	assert.ErrorIs(t, err, models.ErrDuplicateVehicle)
}

func TestReserveIsExclusive(t *testing.T) {
	repo := NewAmbulanceRepository()
	ctx := context.Background()

	amb := &models.Ambulance{VehicleNumber: "KA-17-1234", IsAvailable: true}
	require.NoError(t, repo.Create(ctx, amb))

	// Many goroutines race for the same unit; exactly one may win.
	const racers = 50
	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Reserve(ctx, amb.ID); err == nil {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins)

	got, err := repo.GetByID(ctx, amb.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAvailable)

	// Release makes it reservable again.
	require.NoError(t, repo.Release(ctx, amb.ID))
	assert.NoError(t, repo.Reserve(ctx, amb.ID))
}

func TestListAvailableSnapshot(t *testing.T) {
	repo := NewAmbulanceRepository()
	ctx := context.Background()

	a := &models.Ambulance{VehicleNumber: "A-1", IsAvailable: true}
	b := &models.Ambulance{VehicleNumber: "A-2", IsAvailable: true}
	c := &models.Ambulance{VehicleNumber: "A-3", IsAvailable: false}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Create(ctx, c))

	available, err := repo.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Len(t, available, 2)

	require.NoError(t, repo.Reserve(ctx, a.ID))
	available, err = repo.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "A-2", available[0].VehicleNumber)
}

func TestUpdateLocation(t *testing.T) {
	repo := NewAmbulanceRepository()
	ctx := context.Background()

	amb := &models.Ambulance{VehicleNumber: "KA-17-1234", Latitude: 14.0, Longitude: 75.0, IsAvailable: true}
	require.NoError(t, repo.Create(ctx, amb))

	require.NoError(t, repo.UpdateLocation(ctx, "KA-17-1234", 14.5, 75.5))
	got, err := repo.GetByVehicleNumber(ctx, "KA-17-1234")
	require.NoError(t, err)
	assert.Equal(t, 14.5, got.Latitude)
	assert.Equal(t, 75.5, got.Longitude)

	err = repo.UpdateLocation(ctx, "missing", 0, 0)
	assert.ErrorIs(t, err, models.ErrAmbulanceNotFound)
}

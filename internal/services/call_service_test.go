package services

import (
	"context"
	"testing"

	"lifeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitiateCallSendsShareLink(t *testing.T) {
	f := newFixture(t)

	response := f.initiateCall(t, "+919876543210")

	assert.True(t, response.SMSSent)
	assert.False(t, response.SMSProtocolInitiated)
	assert.Contains(t, response.LocationShareURL, response.ShareToken)

	messages := f.smsProvider.messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "+919876543210", messages[0].To)
	assert.Contains(t, messages[0].Message, response.LocationShareURL)

	call, err := f.calls.GetCall(context.Background(), response.CallID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusInitiated, call.Status)
	assert.Empty(t, call.SMSLocationCode)
}

func TestInitiateCallOfflineStartsCodeProtocol(t *testing.T) {
	f := newFixture(t)

	response, err := f.calls.InitiateCall(context.Background(), &models.InitiateCallRequest{
		CallerPhone:  "+919876543210",
		Connectivity: models.ConnectivityOffline,
	})
	require.NoError(t, err)

	assert.False(t, response.SMSSent)
	assert.True(t, response.SMSProtocolInitiated)

	call, err := f.calls.GetCall(context.Background(), response.CallID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusLocationRequested, call.Status)
	assert.NotEmpty(t, call.SMSLocationCode)
}

func TestInitiateCallFallsBackWhenLinkSMSFails(t *testing.T) {
	f := newFixture(t)
	f.smsProvider.fail = true

	response, err := f.calls.InitiateCall(context.Background(), &models.InitiateCallRequest{
		CallerPhone:  "+919876543210",
		Connectivity: models.ConnectivityOnline,
	})
	require.NoError(t, err)

	assert.False(t, response.SMSSent)
	assert.True(t, response.SMSProtocolInitiated)

	call, err := f.calls.GetCall(context.Background(), response.CallID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusLocationRequested, call.Status)
	assert.Equal(t, models.ConnectivityOffline, call.Connectivity)
}

func TestInitiateCallRejectsBadPhone(t *testing.T) {
	f := newFixture(t)

	_, err := f.calls.InitiateCall(context.Background(), &models.InitiateCallRequest{
		CallerPhone: "not-a-number",
	})
	assert.ErrorIs(t, err, models.ErrInvalidPhone)
}

func TestRecordLocationByShareToken(t *testing.T) {
	f := newFixture(t)

	response := f.initiateCall(t, "+919876543210")

	call, err := f.calls.RecordLocation(context.Background(), &models.RecordLocationRequest{
		ShareToken: response.ShareToken,
		Latitude:   f64(14.4644),
		Longitude:  f64(75.9218),
	})
	require.NoError(t, err)

	assert.Equal(t, models.CallStatusLocationShared, call.Status)
	assert.Equal(t, models.LocationMethodWeb, call.LocationMethod)
	require.NotNil(t, call.Latitude)
	assert.InDelta(t, 14.4644, *call.Latitude, 1e-9)
	assert.NotNil(t, call.LocationSharedAt)
}

func TestRecordLocationRejectsOutOfRange(t *testing.T) {
	f := newFixture(t)

	response := f.initiateCall(t, "+919876543210")

	_, err := f.calls.RecordLocation(context.Background(), &models.RecordLocationRequest{
		ShareToken: response.ShareToken,
		Latitude:   f64(95.0),
		Longitude:  f64(75.9218),
	})
	assert.ErrorIs(t, err, models.ErrInvalidCoordinates)
}

func TestRecordLocationOnClosedCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	response := f.initiateCall(t, "+919876543210")
	_, err := f.calls.Cancel(ctx, response.CallID)
	require.NoError(t, err)

	_, err = f.calls.RecordLocation(ctx, &models.RecordLocationRequest{
		ShareToken: response.ShareToken,
		Latitude:   f64(14.4644),
		Longitude:  f64(75.9218),
	})
	assert.True(t, models.IsInvalidTransition(err))
}

func TestCancelReleasesAssignedAmbulance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	call := f.callWithLocation(t, "+919876543210", 14.4644, 75.9218)
	unit := f.registerAmbulance(t, "KA-17-A-1001", 14.4752, 75.9218)

	_, err := f.dispatch.AssignNearest(ctx, call.ID)
	require.NoError(t, err)

	cancelled, err := f.calls.Cancel(ctx, call.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusCancelled, cancelled.Status)

	released, err := f.ambulance.GetAmbulance(ctx, unit.ID)
	require.NoError(t, err)
	assert.True(t, released.IsAvailable)
}

func TestCancelIsIllegalDuringCodeProtocol(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	call := offlineCall(t, f, "+919876543210")

	_, err := f.calls.Cancel(ctx, call.ID)
	assert.True(t, models.IsInvalidTransition(err))
}

func TestMarkPickupRequiresAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	call := f.callWithLocation(t, "+919876543210", 14.4644, 75.9218)

	_, err := f.calls.MarkPickup(ctx, call.ID)
	assert.ErrorIs(t, err, models.ErrCallNotAssigned)

	f.registerAmbulance(t, "KA-17-A-1001", 14.4752, 75.9218)
	_, err = f.dispatch.AssignNearest(ctx, call.ID)
	require.NoError(t, err)

	updated, err := f.calls.MarkPickup(ctx, call.ID)
	require.NoError(t, err)
	assert.NotNil(t, updated.PickupAt)
}

func TestActiveCallsExcludesTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.initiateCall(t, "+919876543210")
	second := f.initiateCall(t, "+919876543211")

	_, err := f.calls.Cancel(ctx, first.CallID)
	require.NoError(t, err)

	active, err := f.calls.ActiveCalls(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.CallID, active[0].ID)
}

func TestLifecycleEventsPublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	call := f.callWithLocation(t, "+919876543210", 14.4644, 75.9218)
	f.registerAmbulance(t, "KA-17-A-1001", 14.4752, 75.9218)

	_, err := f.dispatch.AssignNearest(ctx, call.ID)
	require.NoError(t, err)
	_, err = f.calls.Complete(ctx, call.ID)
	require.NoError(t, err)

	names := f.events.names()
	assert.Contains(t, names, EventCallInitiated)
	assert.Contains(t, names, EventCallLocationShared)
	assert.Contains(t, names, EventCallAssigned)
	assert.Contains(t, names, EventCallCompleted)
	assert.Contains(t, names, EventAmbulanceRegistered)
}

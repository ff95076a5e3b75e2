package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CallStatus string
type ConnectivityStatus string
type LocationMethod string

const (
	CallStatusInitiated         CallStatus = "initiated"
	CallStatusLocationRequested CallStatus = "location_requested"
	CallStatusLocationShared    CallStatus = "location_shared"
	CallStatusAssigned          CallStatus = "assigned"
	CallStatusCompleted         CallStatus = "completed"
	CallStatusCancelled         CallStatus = "cancelled"

	ConnectivityUnknown ConnectivityStatus = "unknown"
	ConnectivityOnline  ConnectivityStatus = "online"
	ConnectivityOffline ConnectivityStatus = "offline"

	LocationMethodWeb    LocationMethod = "web"
	LocationMethodSMS    LocationMethod = "sms"
	LocationMethodManual LocationMethod = "manual"
)

// statusTransitions is the single source of truth for call lifecycle
// legality. Every mutation goes through Transition; handlers never check
// status themselves.
var statusTransitions = map[CallStatus][]CallStatus{
	CallStatusInitiated:         {CallStatusLocationShared, CallStatusLocationRequested, CallStatusCancelled},
	CallStatusLocationRequested: {CallStatusLocationShared},
	CallStatusLocationShared:    {CallStatusAssigned, CallStatusCancelled},
	CallStatusAssigned:          {CallStatusCompleted, CallStatusCancelled},
}

func (s CallStatus) CanTransitionTo(next CallStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s CallStatus) IsTerminal() bool {
	return s == CallStatusCompleted || s == CallStatusCancelled
}

// ActiveCallStatuses are the states the SMS menu treats as "an emergency is
// in progress" for STATUS and CANCEL lookups.
var ActiveCallStatuses = []CallStatus{
	CallStatusInitiated,
	CallStatusLocationShared,
	CallStatusAssigned,
}

// PendingLocationStatuses are the states in which a location reply may still
// be matched to a call.
var PendingLocationStatuses = []CallStatus{
	CallStatusInitiated,
	CallStatusLocationRequested,
}

// EmergencyCall tracks one incident from report to resolution.
type EmergencyCall struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CallerPhone string             `json:"caller_phone" bson:"caller_phone" validate:"required"`
	Status      CallStatus         `json:"status" bson:"status"`

	// ShareToken is the one-time token embedded in the web location link.
	ShareToken   string             `json:"share_token" bson:"share_token"`
	Connectivity ConnectivityStatus `json:"connectivity" bson:"connectivity"`

	// SMS fallback protocol. The code is only set while the call is waiting
	// for a location and is cleared the moment one is recorded.
	SMSLocationCode string     `json:"sms_location_code,omitempty" bson:"sms_location_code,omitempty"`
	SMSCodeExpiry   *time.Time `json:"sms_code_expiry,omitempty" bson:"sms_code_expiry,omitempty"`

	Latitude       *float64       `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude      *float64       `json:"longitude,omitempty" bson:"longitude,omitempty"`
	Address        string         `json:"address,omitempty" bson:"address,omitempty"`
	LocationMethod LocationMethod `json:"location_method,omitempty" bson:"location_method,omitempty"`

	AssignedAmbulanceID *primitive.ObjectID `json:"assigned_ambulance_id,omitempty" bson:"assigned_ambulance_id,omitempty"`

	CreatedAt        time.Time  `json:"created_at" bson:"created_at"`
	LocationSharedAt *time.Time `json:"location_shared_at,omitempty" bson:"location_shared_at,omitempty"`
	AssignedAt       *time.Time `json:"assigned_at,omitempty" bson:"assigned_at,omitempty"`
	PickupAt         *time.Time `json:"pickup_at,omitempty" bson:"pickup_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// Transition moves the call to the next status, or returns
// *InvalidTransitionError if the state machine does not allow it.
func (c *EmergencyCall) Transition(next CallStatus) error {
	if !c.Status.CanTransitionTo(next) {
		return &InvalidTransitionError{From: c.Status, To: next}
	}
	c.Status = next
	return nil
}

func (c *EmergencyCall) HasLocation() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// CodeExpired reports whether the SMS location code can no longer be
// consumed. Expiry is checked at use time; there is no background sweep.
func (c *EmergencyCall) CodeExpired(now time.Time) bool {
	return c.SMSCodeExpiry != nil && now.After(*c.SMSCodeExpiry)
}

type InitiateCallRequest struct {
	CallerPhone  string             `json:"caller_phone" binding:"required"`
	Connectivity ConnectivityStatus `json:"connectivity"`
}

type InitiateCallResponse struct {
	CallID               primitive.ObjectID `json:"call_id"`
	ShareToken           string             `json:"share_token"`
	LocationShareURL     string             `json:"location_share_url"`
	SMSSent              bool               `json:"sms_sent"`
	SMSProtocolInitiated bool               `json:"sms_protocol_initiated"`
}

// Coordinates are pointers so binding:"required" rejects a missing field
// without also rejecting a legitimate 0.0 coordinate.
type RecordLocationRequest struct {
	CallID     primitive.ObjectID `json:"call_id,omitempty"`
	ShareToken string             `json:"share_token,omitempty"`
	Latitude   *float64           `json:"latitude" binding:"required"`
	Longitude  *float64           `json:"longitude" binding:"required"`
	Method     LocationMethod     `json:"method"`
}

// AssignmentSummary is what the dispatcher gets back from a successful
// nearest-ambulance assignment.
type AssignmentSummary struct {
	CallID        primitive.ObjectID `json:"call_id"`
	AmbulanceID   primitive.ObjectID `json:"ambulance_id"`
	VehicleNumber string             `json:"vehicle_number"`
	DriverName    string             `json:"driver_name"`
	DriverPhone   string             `json:"driver_phone"`
	DistanceKM    float64            `json:"distance_km"`
	ETAMinutes    int                `json:"eta_minutes"`
}

package services

// EventPublisher pushes lifecycle events to connected dispatch dashboards.
// The websocket hub implements it; tests pass nil and events are dropped.
type EventPublisher interface {
	Publish(event string, data interface{})
}

const (
	EventCallInitiated       = "call.initiated"
	EventCallLocationShared  = "call.location_shared"
	EventCallAssigned        = "call.assigned"
	EventCallPickup          = "call.pickup"
	EventCallCompleted       = "call.completed"
	EventCallCancelled       = "call.cancelled"
	EventAmbulanceRegistered = "ambulance.registered"
	EventAmbulanceLocation   = "ambulance.location_updated"
)

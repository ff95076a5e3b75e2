package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ambulance is a dispatchable unit. VehicleNumber is the externally visible
// identifier drivers log in with; it never changes after registration.
type Ambulance struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleNumber string             `json:"vehicle_number" bson:"vehicle_number" validate:"required"`
	DriverName    string             `json:"driver_name" bson:"driver_name" validate:"required"`
	DriverPhone   string             `json:"driver_phone" bson:"driver_phone" validate:"required"`
	Latitude      float64            `json:"latitude" bson:"latitude"`
	Longitude     float64            `json:"longitude" bson:"longitude"`
	IsAvailable   bool               `json:"is_available" bson:"is_available"`
	LastUpdated   time.Time          `json:"last_updated" bson:"last_updated"`
}

// Coordinates are pointers so binding:"required" rejects a missing field
// without also rejecting a legitimate 0.0 on the equator or prime meridian.
type RegisterAmbulanceRequest struct {
	VehicleNumber string   `json:"vehicle_number" binding:"required"`
	DriverName    string   `json:"driver_name" binding:"required"`
	DriverPhone   string   `json:"driver_phone" binding:"required"`
	Latitude      *float64 `json:"latitude" binding:"required"`
	Longitude     *float64 `json:"longitude" binding:"required"`
}

type UpdateLocationRequest struct {
	VehicleNumber string   `json:"vehicle_number" binding:"required"`
	Latitude      *float64 `json:"latitude" binding:"required"`
	Longitude     *float64 `json:"longitude" binding:"required"`
}

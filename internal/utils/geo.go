package utils

import (
	"fmt"
	"math"
)

// EarthRadiusKM is the mean earth radius used by the haversine formula.
const EarthRadiusKM = 6371.0

// DefaultAvgSpeedKMH is the fallback city driving speed for ETA estimates
// when configuration supplies nothing sensible.
const DefaultAvgSpeedKMH = 40.0

// CalculateDistance returns the great-circle distance in kilometers between
// two coordinate pairs. Callers are expected to pass in-range coordinates;
// the function does not validate them.
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKM * c
}

// EstimateETAMinutes converts a distance into a travel time estimate at the
// given average speed, rounded to the nearest whole minute.
func EstimateETAMinutes(distanceKM, averageSpeedKMH float64) int {
	if averageSpeedKMH <= 0 {
		averageSpeedKMH = DefaultAvgSpeedKMH
	}
	return int(math.Round(distanceKM / averageSpeedKMH * 60))
}

func IsValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// FormatDistance renders a distance for SMS and dashboard display.
func FormatDistance(distanceKM float64) string {
	if distanceKM < 1 {
		return fmt.Sprintf("%d meters", int(distanceKM*1000))
	}
	return fmt.Sprintf("%.1f km", distanceKM)
}

// FormatTravelTime renders an ETA in minutes for display.
func FormatTravelTime(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d minutes", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	unit := "hours"
	if hours == 1 {
		unit = "hour"
	}
	if mins == 0 {
		return fmt.Sprintf("%d %s", hours, unit)
	}
	return fmt.Sprintf("%d %s %d minutes", hours, unit, mins)
}

package config

import (
	"time"
)

type GeocodeConfig struct {
	Provider         string        `yaml:"provider"`
	GoogleAPIKey     string        `yaml:"google_api_key"`
	NominatimBaseURL string        `yaml:"nominatim_base_url"`
	UserAgent        string        `yaml:"user_agent"`
	Timeout          time.Duration `yaml:"timeout"`
}

func loadGeocodeConfig() *GeocodeConfig {
	return &GeocodeConfig{
		Provider:         getEnv("GEOCODE_PROVIDER", "nominatim"),
		GoogleAPIKey:     getEnv("GOOGLE_MAPS_API_KEY", ""),
		NominatimBaseURL: getEnv("NOMINATIM_BASE_URL", ""),
		UserAgent:        getEnv("GEOCODE_USER_AGENT", "lifeline-dispatch/1.0"),
		Timeout:          getEnvAsDuration("GEOCODE_TIMEOUT", 10*time.Second),
	}
}

package config

type DispatchConfig struct {
	AvgSpeedKMH      float64 `yaml:"avg_speed_kmh"`
	AssignMaxRetries int     `yaml:"assign_max_retries"`
}

func loadDispatchConfig() *DispatchConfig {
	return &DispatchConfig{
		// City-traffic average used for ETA estimates.
		AvgSpeedKMH:      getEnvAsFloat64("DISPATCH_AVG_SPEED_KMH", 40),
		AssignMaxRetries: getEnvAsInt("DISPATCH_ASSIGN_MAX_RETRIES", 3),
	}
}

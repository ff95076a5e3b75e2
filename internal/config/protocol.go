package config

import (
	"time"
)

// ProtocolConfig governs the SMS location protocol: the code format callers
// receive and the keywords the inbound webhook understands.
type ProtocolConfig struct {
	CodePrefix        string        `yaml:"code_prefix"`
	CodeLength        int           `yaml:"code_length"`
	CodeTTL           time.Duration `yaml:"code_ttl"`
	ReplyKeyword      string        `yaml:"reply_keyword"`
	EmergencyKeywords []string      `yaml:"emergency_keywords"`
}

func loadProtocolConfig() *ProtocolConfig {
	return &ProtocolConfig{
		CodePrefix:        getEnv("SMS_CODE_PREFIX", "ERS-LOC-"),
		CodeLength:        getEnvAsInt("SMS_CODE_LENGTH", 6),
		CodeTTL:           getEnvAsDuration("SMS_CODE_TTL", 30*time.Minute),
		ReplyKeyword:      getEnv("SMS_REPLY_KEYWORD", "LOCATION"),
		EmergencyKeywords: getEnvAsSlice("SMS_EMERGENCY_KEYWORDS", []string{"HELP", "SOS", "EMERGENCY", "108"}),
	}
}

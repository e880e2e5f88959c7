package config

import "time"

// Default values for optional configuration parameters.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultDBPath = "storage.db"

	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultGeminiTemperature = 1.0
	DefaultGeminiTimeout     = 2 * time.Minute
	DefaultGeminiMaxRetries  = 2
	DefaultGeminiRetryDelay  = 5 * time.Second

	// Messages need this many reactions before they qualify for the
	// news chat.
	DefaultNewsMinReactions = 5

	DefaultDigestSchedule      = "0 21 * * *" // daily at 21:00
	DefaultMaintenanceSchedule = "0 4 * * 1"  // mondays at 04:00
)

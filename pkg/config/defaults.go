package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "vetslots"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultBusinessTimeZone    = "UTC"
	DefaultMaxListAppointments = 1000
	DefaultTokenMaxAttempts    = 3

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute
	DefaultRateLimitFailOpen = true
	DefaultRateLimitPrefix   = "vetslots:rl"

	DefaultRedisDB = 0

	DefaultKafkaEnabled              = false
	DefaultKafkaAppointmentsTopic    = "appointments.events"
	DefaultKafkaAppointmentsDLQTopic = "appointments.events.dlq"

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
)

package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvBusinessTimeZone   = "BUSINESS_TIMEZONE"
	EnvMaxListAppointment = "MAX_LIST_APPOINTMENTS"
	EnvTokenMaxAttempts   = "TOKEN_MAX_ATTEMPTS"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"
	EnvRateLimitFailOpen = "RATE_LIMIT_FAIL_OPEN"
	EnvRateLimitPrefix   = "RATE_LIMIT_PREFIX"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvKafkaEnabled              = "KAFKA_ENABLED"
	EnvKafkaAppointmentsTopic    = "KAFKA_APPOINTMENTS_TOPIC"
	EnvKafkaAppointmentsDLQTopic = "KAFKA_APPOINTMENTS_DLQ_TOPIC"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)

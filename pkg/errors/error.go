package errors

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralBadRequestError represents a generic bad input error.
	GeneralBadRequestError ErrorCode = "general_bad_request_error"
	// GeneralRepositoryError represents a generic repository error.
	GeneralRepositoryError ErrorCode = "general_repository_error"

	// FeedUnavailableError represents a feed source that cannot be opened or read.
	FeedUnavailableError ErrorCode = "feed_unavailable_error"
	// FeedMalformedRecordError represents a feed record that cannot be turned into an order.
	FeedMalformedRecordError ErrorCode = "feed_malformed_record_error"

	// ActivityPanicError represents a panic recovered from an engine activity.
	ActivityPanicError ErrorCode = "activity_panic_error"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisDisconnectionError represents an error when disconnecting from Redis.
	RedisDisconnectionError ErrorCode = "redis_disconnection_error"
	// RedisPingError represents an error when pinging Redis.
	RedisPingError ErrorCode = "redis_pinging_error"
	// RedisGetError represents an error when getting a value from Redis.
	RedisGetError ErrorCode = "redis_get_error"
	// RedisSetError represents an error when setting a value in Redis.
	RedisSetError ErrorCode = "redis_set_error"
	// RedisPublishError represents an error when publishing messages to channels in Redis.
	RedisPublishError ErrorCode = "redis_publish_error"

	// PostgresSchemaError represents a failure while creating the result schema.
	PostgresSchemaError ErrorCode = "postgres_schema_error"
	// PostgresCopyError represents a failure while copying result rows.
	PostgresCopyError ErrorCode = "postgres_copy_error"

	// KafkaPublishError represents a failure while writing events to Kafka.
	KafkaPublishError ErrorCode = "kafka_publish_error"
)

// String returns the code as a plain string.
func (c ErrorCode) String() string {
	return string(c)
}

package common

// Gin context keys
const (
	UserContextKey   = "user"
	UserIDContextKey = "user_id"
)

const HeaderRequestID = "X-Request-ID"

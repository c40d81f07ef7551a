package handlers

const (
	// maxBodyBytes bounds JSON request bodies
	maxBodyBytes = 1 << 20

	ErrInvalidRequest        = "Invalid request body"
	ErrInvalidID             = "Invalid id in path"
	ErrUnauthorized          = "Unauthorized"
	ErrTooManyRequests       = "Too many requests"
	ErrInternalServerError   = "Internal server error"
	ErrServiceUnavailable    = "Service temporarily unavailable"
	ErrInvalidQueryParameter = "Invalid query parameter"
)

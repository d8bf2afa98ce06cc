package constants

// HTTP Header Names
const (
	HeaderContentType    = "Content-Type"
	HeaderAuthorization  = "Authorization"
	HeaderUserAgent      = "User-Agent"
	HeaderXRequestID     = "X-Request-ID"
	HeaderXCorrelationID = "X-Correlation-ID"
	HeaderOrigin         = "Origin"
)

// AuthScheme is the only scheme accepted in the Authorization header.
const AuthScheme = "Bearer"

// Common HTTP Error Messages
const (
	MsgUnauthorized       = "Unauthorized access"
	MsgForbidden          = "Access forbidden"
	MsgNotFound           = "Resource not found"
	MsgBadRequest         = "Invalid request"
	MsgInternalError      = "Internal server error"
	MsgServiceUnavailable = "Service temporarily unavailable"
	MsgConflict           = "Resource already exists"
	MsgTimeout            = "Request timeout"
)

// HTTP Success Messages
const (
	MsgRegistered     = "User registered successfully"
	MsgLoggedIn       = "Login successful"
	MsgLoggedOut      = "Successfully logged out"
	MsgUpdated        = "User updated successfully"
	MsgDeleted        = "User deleted successfully"
	MsgPasswordUpdate = "Password updated successfully"
	MsgAdminGranted   = "Admin status granted successfully"
	MsgAdminRevoked   = "Admin status revoked successfully"
)

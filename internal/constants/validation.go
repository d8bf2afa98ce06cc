package constants

// Field Length Limits
const (
	MinUsernameLength = 3
	MaxUsernameLength = 80
	MinPasswordLength = 3
	// bcrypt ignores everything past 72 bytes
	MaxPasswordBytes = 72
	MaxEmailLength   = 255
)

package validation

// CustomMessage returns field specific messages keyed by validation tag.
func CustomMessage(field string) map[string]string {
	var customValidationMessages = map[string]map[string]string{
		"username": {
			"required": "username is required",
			"min":      "username must be at least 3 characters",
			"max":      "username must be at most 80 characters",
			"alphanum": "username may only contain letters and digits",
		},
		"email": {
			"required": "email is required",
			"email":    "email is not a valid address",
		},
		"password": {
			"required": "password is required",
		},
		"current_password": {
			"required": "current password is required",
		},
		"new_password": {
			"required": "new password is required",
		},
		"refresh_token": {
			"required": "refresh token is required",
		},
	}
	return customValidationMessages[field]
}

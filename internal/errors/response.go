package errors

import (
	"net/http"

	"github.com/Payphone-Digital/auth-service/internal/constants"
)

// HTTPResponse renders err for an HTTP client. Domain errors expose their
// reason code, message and details; infrastructure errors only get a
// generic message.
func HTTPResponse(err error) (int, map[string]any) {
	status := ToHTTPStatus(err)

	if domainErr := GetDomainError(err); domainErr != nil {
		var details any
		if len(domainErr.Details) > 0 {
			details = domainErr.Details
		}
		return status, constants.BuildCodedErrorResponse(domainErr.Code, domainErr.Message, details)
	}

	if status == http.StatusServiceUnavailable {
		return status, constants.BuildCodedErrorResponse("SERVICE_UNAVAILABLE", constants.MsgServiceUnavailable, nil)
	}
	return status, constants.BuildCodedErrorResponse("INTERNAL_ERROR", constants.MsgInternalError, nil)
}

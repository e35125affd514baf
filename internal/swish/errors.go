package swish

import (
	"fmt"
	"strings"
)

// ErrorDetail is one entry of the gateway's error list.
type ErrorDetail struct {
	ErrorCode             string `json:"errorCode"`
	ErrorMessage          string `json:"errorMessage"`
	AdditionalInformation string `json:"additionalInformation,omitempty"`
}

// APIError is returned for every non-2xx gateway response.
type APIError struct {
	StatusCode int
	Errors     []ErrorDetail
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("swish: unexpected status %d", e.StatusCode)
	}
	codes := make([]string, len(e.Errors))
	for i, d := range e.Errors {
		codes[i] = d.ErrorCode + " " + d.ErrorMessage
	}
	return fmt.Sprintf("swish: status %d: %s", e.StatusCode, strings.Join(codes, "; "))
}

// First returns the first reported error, or a generic detail when the gateway sent none.
func (e *APIError) First() ErrorDetail {
	if len(e.Errors) == 0 {
		return ErrorDetail{
			ErrorCode:    fmt.Sprintf("HTTP_%d", e.StatusCode),
			ErrorMessage: "Unexpected response from payment gateway",
		}
	}
	return e.Errors[0]
}

package httpclient

import (
	"fmt"
	"io"
	"net/http"
)

// maxErrorBodyBytes caps how much of a response body is read for error
// reporting.
const maxErrorBodyBytes = 1 << 20 // 1 MB

// ReadBody fully consumes and closes the response body, capped at 1 MB.
// Callers use it both for success payloads and for preserving error detail
// from non-2xx responses.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body (status %d): %w", resp.StatusCode, err)
	}
	return body, nil
}

// IsSuccess returns true if the HTTP status code is a 2xx success.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
// Client errors (validation, bad credentials) are permanent: repeating the
// same request will not change the answer.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}

// IsServerError returns true if the HTTP status code is a 5xx server error.
func IsServerError(status int) bool {
	return status >= 500
}

package api

import "fmt"

// RequestError is the single failure type every client operation returns:
// either the transport failed (StatusCode 0, Err set) or the service
// answered with a non-2xx status (StatusCode set, Body holds the response).
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("api: %s %s: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("api: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *RequestError) Unwrap() error { return e.Err }

package errors

import (
	"errors"
	"net/http"
	"sync"
)

// mapping is the HTTP answer for a registered domain error
type mapping struct {
	target  error
	code    ErrorCode
	status  int
	message string
}

var (
	mappingsMu sync.RWMutex
	mappings   []mapping
)

// Register maps err, and every error wrapping it, to code and httpStatus.
// An empty message falls back to the code's default. Registering the same
// err again replaces its mapping; otherwise the first match in registration
// order wins.
func Register(err error, code ErrorCode, httpStatus int, message string) {
	if message == "" {
		message = code.Message()
	}
	m := mapping{target: err, code: code, status: httpStatus, message: message}

	mappingsMu.Lock()
	defer mappingsMu.Unlock()
	for i := range mappings {
		if mappings[i].target == err {
			mappings[i] = m
			return
		}
	}
	mappings = append(mappings, m)
}

func lookup(err error) (mapping, bool) {
	mappingsMu.RLock()
	defer mappingsMu.RUnlock()
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m, true
		}
	}
	return mapping{}, false
}

// HandleBusinessError converts err to an HTTP status and error response: an
// ErrorResponse in the chain answers as itself, a registered error with its
// mapping, anything else with 500.
func HandleBusinessError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	var errResp *ErrorResponse
	if errors.As(err, &errResp) {
		return errResp.StatusCode(), errResp
	}

	if m, ok := lookup(err); ok {
		resp := New(m.code, m.message)
		resp.WithDetail("error", err.Error())
		return m.status, resp
	}

	return http.StatusInternalServerError, New(CodeInternalServerError, "An internal error occurred")
}

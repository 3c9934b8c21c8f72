package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// HeaderXRequestID is the header carrying the request id
const HeaderXRequestID = "X-Request-ID"

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Success     bool           `json:"success"`
	ErrorDetail ErrorDetail    `json:"error"`
	Timestamp   time.Time      `json:"timestamp"`
	RequestID   string         `json:"request_id,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// ErrorDetail contains detailed error information
type ErrorDetail struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *ErrorResponse) Error() string {
	return e.ErrorDetail.Message
}

// New creates a new error response with the given code and message
func New(code ErrorCode, message string) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		ErrorDetail: ErrorDetail{
			Code:    code.Int(),
			Message: message,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewWithDetails creates a new error response with additional details
func NewWithDetails(code ErrorCode, message string, details map[string]any) *ErrorResponse {
	resp := New(code, message)
	resp.ErrorDetail.Details = details
	return resp
}

// NewFromCode creates a new error response using the default message for the code
func NewFromCode(code ErrorCode) *ErrorResponse {
	return New(code, code.Message())
}

// WithRequestID adds request ID to the error response
func (e *ErrorResponse) WithRequestID(requestID string) *ErrorResponse {
	e.RequestID = requestID
	return e
}

// WithMeta adds metadata to the error response
func (e *ErrorResponse) WithMeta(meta map[string]any) *ErrorResponse {
	e.Meta = meta
	return e
}

// WithDetail adds a single detail to the error response
func (e *ErrorResponse) WithDetail(key string, value any) *ErrorResponse {
	if e.ErrorDetail.Details == nil {
		e.ErrorDetail.Details = make(map[string]any)
	}
	e.ErrorDetail.Details[key] = value
	return e
}

// StatusCode returns the HTTP status for the response's error code
func (e *ErrorResponse) StatusCode() int {
	return GetHTTPStatus(ErrorCode(e.ErrorDetail.Code))
}

// Envelope renders the response as a map carrying a "code" key holding the
// HTTP status. API middleware returns it to short-circuit a request; the
// router reads "code" to pick the response status.
func (e *ErrorResponse) Envelope(status int) map[string]any {
	env := map[string]any{
		"code":      status,
		"success":   e.Success,
		"error":     e.ErrorDetail,
		"timestamp": e.Timestamp,
	}
	if e.RequestID != "" {
		env["request_id"] = e.RequestID
	}
	if len(e.Meta) > 0 {
		env["meta"] = e.Meta
	}
	return env
}

// GetRequestID extracts the request id from the request or response headers
func GetRequestID(w http.ResponseWriter, r *http.Request) string {
	if w != nil {
		if reqID := w.Header().Get(HeaderXRequestID); reqID != "" {
			return reqID
		}
	}
	if r != nil {
		return r.Header.Get(HeaderXRequestID)
	}
	return ""
}

// Send writes the error response as JSON
func (e *ErrorResponse) Send(w http.ResponseWriter, r *http.Request, httpStatus int) error {
	if e.RequestID == "" {
		e.RequestID = GetRequestID(w, r)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	return json.NewEncoder(w).Encode(e)
}

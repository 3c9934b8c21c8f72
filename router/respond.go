package router

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"go.uber.org/zap"
)

// StatusCoder is implemented by API results that choose their own status
type StatusCoder interface {
	StatusCode() int
}

// statusOf extracts the response status carried by an API value: the "code"
// key of a map or StatusCode of a StatusCoder. stripped is v without a valid
// "code" key.
func statusOf(v any) (status int, stripped any, ok bool) {
	switch t := v.(type) {
	case map[string]any:
		code, found := t["code"]
		if !found {
			return 0, v, false
		}
		status, ok = toStatus(code)
		if !ok {
			return status, v, false
		}
		out := make(map[string]any, len(t)-1)
		for k, val := range t {
			if k != "code" {
				out[k] = val
			}
		}
		return status, out, true
	case StatusCoder:
		status, ok = validStatus(t.StatusCode())
		return status, v, ok
	}
	return 0, v, false
}

func toStatus(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return validStatus(n)
	case int32:
		return validStatus(int(n))
	case int64:
		return validStatus(int(n))
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return validStatus(int(n))
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return validStatus(int(i))
	}
	return 0, false
}

func validStatus(code int) (int, bool) {
	if code < 100 || code > 599 {
		return 0, false
	}
	return code, true
}

// writeAPI encodes v as JSON. A valid "code" key sets the status and is
// removed from the body. Without one, handler results answer 200 and
// middleware short-circuits 400.
func (r *Router) writeAPI(c *Context, v any, halted bool) {
	status := http.StatusOK
	if halted {
		status = http.StatusBadRequest
	} else if c.status != 0 {
		status = c.status
	}
	if code, body, ok := statusOf(v); ok {
		status = code
		v = body
	}

	data, err := json.Marshal(v)
	if err != nil {
		r.errorHandler(c, fmt.Errorf("encode response: %w", err))
		return
	}
	w := c.Response()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		r.logger.Debug("Response write failed", zap.Error(err))
	}
}

// writeStandard writes strings, byte slices and Stringers as the raw body and
// JSON-encodes anything else. nil writes only the status.
func (r *Router) writeStandard(c *Context, v any) {
	status := http.StatusOK
	if c.status != 0 {
		status = c.status
	}

	var body []byte
	switch t := v.(type) {
	case nil:
	case string:
		body = []byte(t)
	case []byte:
		body = t
	case fmt.Stringer:
		body = []byte(t.String())
	default:
		data, err := json.Marshal(v)
		if err != nil {
			r.errorHandler(c, fmt.Errorf("encode response: %w", err))
			return
		}
		body = data
		c.Response().Header().Set("Content-Type", "application/json")
	}

	c.Response().WriteHeader(status)
	if len(body) == 0 {
		return
	}
	if _, err := c.Response().Write(body); err != nil {
		r.logger.Debug("Response write failed", zap.Error(err))
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

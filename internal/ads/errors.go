package ads

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// ErrRowsClosed is reported by Err when Next is called after Close.
var ErrRowsClosed = errors.New("rows closed")

// ErrNoCustomerID is returned when a search names no customer account.
var ErrNoCustomerID = errors.New("customer id is required")

// APIError is a failure reported by the reporting API, either as a non-2xx
// response or as an error element inside a search stream.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("ads api error %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("ads api error %d: %s", e.StatusCode, e.Message)
}

// parseAPIError reads the Google API error envelope. searchStream wraps it in an array.
func parseAPIError(statusCode int, body []byte) *APIError {
	res := gjson.ParseBytes(body)
	if res.IsArray() {
		res = res.Get("0")
	}

	envelope := res.Get("error")
	if !envelope.Exists() {
		return &APIError{StatusCode: statusCode, Message: truncate(string(body))}
	}
	return apiErrorFrom(statusCode, envelope)
}

func apiErrorFrom(statusCode int, envelope gjson.Result) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if code := envelope.Get("code").Int(); code != 0 {
		apiErr.StatusCode = int(code)
	}
	apiErr.Status = envelope.Get("status").String()
	apiErr.Message = envelope.Get("message").String()
	apiErr.RequestID = envelope.Get("details.#.requestId").Get("0").String()
	return apiErr
}

const maxErrorBody = 512

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// Package response writes the JSON envelope used by the measurecast status
// endpoints: a data field on success and an error field on failure.
package response

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Response is the JSON envelope. Exactly one of Data and Error is set.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error describes a failed request.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error codes.
const (
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Success wraps data in an envelope.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail builds an error envelope.
func Fail(code, message, details string) Response {
	return Response{Error: &Error{Code: code, Message: message, Details: details}}
}

// JSON writes resp with status.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes data with 200.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// MethodNotAllowed writes 405 and the Allow header.
func MethodNotAllowed(w http.ResponseWriter, method string, allow ...string) {
	if len(allow) > 0 {
		w.Header().Set("Allow", strings.Join(allow, ", "))
	}
	JSON(w, http.StatusMethodNotAllowed, Fail(CodeMethodNotAllowed,
		"Method not allowed", method+" is not supported here"))
}

// InternalError writes 500. The cause is never sent to the client.
func InternalError(w http.ResponseWriter) {
	JSON(w, http.StatusInternalServerError, Fail(CodeInternal,
		"Internal server error", "An unexpected error occurred"))
}

// ServiceUnavailable writes 503 with reason as details.
func ServiceUnavailable(w http.ResponseWriter, reason string) {
	JSON(w, http.StatusServiceUnavailable, Fail(CodeServiceUnavailable,
		"Service unavailable", reason))
}

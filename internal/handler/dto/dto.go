// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// ErrorResponse is the body of every JSON error. Detail repeats the message
// for clients that read the "detail" field.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// NewError builds an ErrorResponse.
func NewError(code, message string) ErrorResponse {
	return ErrorResponse{Error: message, Code: code, Detail: message}
}

// ServiceInfo is the response of GET /.
type ServiceInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Message string `json:"message"`
}

// Package models contains the wire types shared by the API server and its clients.
package models

import (
	"encoding/json"
	"fmt"
)

// ValidationGroup is the error group that collects every message of a validation pass.
const ValidationGroup = "validation"

// Response is the success envelope returned for every 2xx response.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// NewResponse wraps data in a success envelope.
func NewResponse[T any](data T) Response[T] {
	return Response[T]{Success: true, Data: data}
}

// ErrorResponse is the error envelope returned for every non-2xx response.
type ErrorResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Code    ErrorCode           `json:"code"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(code ErrorCode, message string, errors map[string][]string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: message,
		Code:    code,
		Errors:  errors,
	}
}

// Envelope is the union of both envelope shapes as seen by a client before the
// success discriminant has been inspected.
type Envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
	Code    string              `json:"code,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// DecodeData unmarshals the data member of a success envelope into T.
func DecodeData[T any](env *Envelope) (T, error) {
	var out T
	if env == nil {
		return out, fmt.Errorf("decode data: nil envelope")
	}
	if !env.Success {
		return out, fmt.Errorf("decode data: envelope is not a success envelope (code %q)", env.Code)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, fmt.Errorf("decode data: %w", err)
	}
	return out, nil
}

package types

import "fmt"

// Error is a structured error reported through the host protocol. A zero
// Code denotes success.
type Error struct {
	Module  string `json:"module,omitempty"`
	Code    uint32 `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

var _ error = Error{}

// NewError creates a new structured error.
func NewError(module string, code uint32, message string) Error {
	return Error{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

func (e Error) Error() string {
	if e.Module == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Module, e.Message)
}

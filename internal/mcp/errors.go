// Package mcp exposes the anagram index as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"

	owerrors "github.com/Aman-CERP/otherwords/internal/errors"
)

// Custom MCP error codes.
const (
	// ErrCodeIndexLocked means another process holds the index.
	ErrCodeIndexLocked = -32001

	// ErrCodeTimeout means the request timed out or was cancelled.
	ErrCodeTimeout = -32003

	// ErrCodeSourceNotFound means a source path does not exist.
	ErrCodeSourceNotFound = -32004

	// Standard JSON-RPC error codes.
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError is a protocol error with a code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts an error into an MCPError. Messages of structured
// errors carry their suggestion.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var me *MCPError
	if errors.As(err, &me) {
		return me
	}

	var oe *owerrors.OWError
	if errors.As(err, &oe) {
		return mapOWError(oe)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

func mapOWError(e *owerrors.OWError) *MCPError {
	msg := owerrors.FormatInline(e)

	switch {
	case e.Code == owerrors.ErrCodeIndexLocked:
		return &MCPError{Code: ErrCodeIndexLocked, Message: msg}
	case e.Code == owerrors.ErrCodeSourceNotFound:
		return &MCPError{Code: ErrCodeSourceNotFound, Message: msg}
	case e.Category == owerrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: msg}
	}
}

// NewInvalidParamsError creates an invalid-parameters error.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for an unknown tool.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("Tool '%s' not found.", name)}
}

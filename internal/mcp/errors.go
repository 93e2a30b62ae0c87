// Package mcp implements the Model Context Protocol server for graphquery.
package mcp

import (
	"context"
	"errors"
	"fmt"

	gqerrors "github.com/Aman-CERP/graphquery/internal/errors"
)

// Custom MCP error codes for graphquery.
const (
	// ErrCodeCycle indicates graph resolution hit a cyclic reference.
	ErrCodeCycle = -32001

	// ErrCodeUnknownIndex indicates a query referenced an undefined index.
	ErrCodeUnknownIndex = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError is an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError creates an invalid-params error.
func NewInvalidParamsError(message string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: message}
}

// NewMethodNotFoundError creates a method-not-found error for a tool name.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("tool not found: %s", name)}
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	}

	switch gqerrors.GetCode(err) {
	case gqerrors.ErrCodeCycleDetected:
		return &MCPError{Code: ErrCodeCycle, Message: err.Error()}
	case gqerrors.ErrCodeUnknownIndex:
		return &MCPError{Code: ErrCodeUnknownIndex, Message: err.Error()}
	case gqerrors.ErrCodeInvalidInput, gqerrors.ErrCodeConfigInvalid:
		return &MCPError{Code: ErrCodeInvalidParams, Message: err.Error()}
	}

	return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
}

package rpc

import (
	"errors"
	"fmt"
)

// ErrNoEndpoints is returned when the client is configured without any endpoint.
var ErrNoEndpoints = errors.New("no rpc endpoints configured")

// Error is an error object returned by a JSON-RPC endpoint. Such errors mean the endpoint is
// reachable and processed the request, so they are returned to the caller without failing over.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Method  string `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc method %s failed with code %d: %s", e.Method, e.Code, e.Message)
}

// IsRPCError returns whether err is (or wraps) an error returned by the endpoint itself.
func IsRPCError(err error) bool {
	var rpcErr *Error
	return errors.As(err, &rpcErr)
}

// StatusError is returned when an endpoint answers with a non-200 HTTP status.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("endpoint %s returned http status %d", e.Endpoint, e.StatusCode)
}

// Package errors provides structured, code-carrying errors shared by the
// rocketwatch transports.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeNotFound reports a missing rocket projection.
	CodeNotFound Code = "NOT_FOUND"

	// CodeInvalidEvent reports an envelope that fails type discrimination.
	CodeInvalidEvent Code = "INVALID_EVENT"
	// CodeInvalidQuery reports malformed search criteria, sort fields, or filters.
	CodeInvalidQuery Code = "INVALID_QUERY"

	// CodeStoreUnavailable reports a failed round trip to the document store.
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	// CodeQueueUnavailable reports a failed round trip to the message queue.
	CodeQueueUnavailable Code = "QUEUE_UNAVAILABLE"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeInvalidEvent, CodeInvalidQuery:
		return codes.InvalidArgument
	case CodeNotFound:
		return codes.NotFound
	case CodeStoreUnavailable, CodeQueueUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidEvent, CodeInvalidQuery:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeStoreUnavailable, CodeQueueUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

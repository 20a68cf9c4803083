package graphql

import (
	"context"
	"errors"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/nerrad567/local-api-gateway/internal/endpoint"
	"github.com/nerrad567/local-api-gateway/internal/host"
)

// Error codes set in the "code" extension.
const (
	CodeEndpointDisabled  = "ENDPOINT_DISABLED"
	CodePlayerUnavailable = "PLAYER_UNAVAILABLE"
	CodeNoMinimapSession  = "NO_MINIMAP_SESSION"
	CodeBadUserInput      = "BAD_USER_INPUT"
	CodeHostTimeout       = "HOST_TIMEOUT"
	CodeCancelled         = "CANCELLED"
	CodeInternal          = "INTERNAL_ERROR"
)

// inputError is a resolver argument rejected before reaching the host.
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func badInput(msg string) error {
	return &inputError{msg: msg}
}

// internalError hides an unexpected failure behind a generic message.
type internalError struct {
	cause error
}

func (e *internalError) Error() string { return "internal error" }
func (e *internalError) Unwrap() error { return e.cause }

// toGQLError converts err to a GraphQL error at path with a client-facing
// message and a code extension.
func toGQLError(err error, path ast.Path) *gqlerror.Error {
	var ge *gqlerror.Error
	if errors.As(err, &ge) {
		if ge.Path == nil && path != nil {
			ge.Path = path
		}
		return ge
	}

	msg, code := err.Error(), CodeInternal
	var (
		disabled *endpoint.DisabledError
		input    *inputError
		internal *internalError
	)
	switch {
	case errors.As(err, &disabled):
		code = CodeEndpointDisabled
	case errors.As(err, &input):
		code = CodeBadUserInput
	case errors.Is(err, host.ErrPlayerUnavailable):
		msg, code = "Player not available", CodePlayerUnavailable
	case errors.Is(err, host.ErrWaypointsUnavailable):
		msg, code = "No Xaero's Minimap session available", CodeNoMinimapSession
	case errors.Is(err, host.ErrHostTimeout):
		msg, code = "Game did not respond in time", CodeHostTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		msg, code = "Request cancelled", CodeCancelled
	case errors.As(err, &internal):
		msg = internal.Error()
	}

	return &gqlerror.Error{
		Err:        err,
		Message:    msg,
		Path:       path,
		Extensions: map[string]interface{}{"code": code},
	}
}

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrNotFound        = fmt.Errorf("battle not found")
	ErrConflict        = fmt.Errorf("conflict")
	ErrInvalidState    = fmt.Errorf("invalid battle state")
	ErrUnauthorized    = fmt.Errorf("unauthorized")

	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrSubscriberClosed = fmt.Errorf("subscriber closed")
	ErrSubscriberFull   = fmt.Errorf("subscriber queue full")
	ErrArchiveFull      = fmt.Errorf("archive queue full")
	ErrEmptyWords       = fmt.Errorf("no words have been found")
	ErrInvalidHash      = fmt.Errorf("invalid passphrase hash format")
)

// HTTPStatus maps a domain error to the status code returned at the HTTP boundary.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrConflict), stderrors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case stderrors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// MapToGRPCError translates a domain error into a gRPC status error.
// Errors that already carry a status are returned untouched.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case stderrors.Is(err, ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case stderrors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case stderrors.Is(err, ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case stderrors.Is(err, ErrInvalidState):
		return status.Error(codes.FailedPrecondition, err.Error())
	case stderrors.Is(err, ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

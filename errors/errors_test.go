package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, http.StatusOK},
		{"wrapped invalid argument", fmt.Errorf("%w: topics", ErrInvalidArgument), http.StatusBadRequest},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"duplicate vote", fmt.Errorf("%w: already voted", ErrConflict), http.StatusConflict},
		{"not live", fmt.Errorf("%w: pending", ErrInvalidState), http.StatusConflict},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"unknown", fmt.Errorf("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestMapToGRPCError(t *testing.T) {
	req := require.New(t)

	req.NoError(MapToGRPCError(nil))
	req.Equal(codes.InvalidArgument, status.Code(MapToGRPCError(fmt.Errorf("%w: round", ErrInvalidArgument))))
	req.Equal(codes.NotFound, status.Code(MapToGRPCError(ErrNotFound)))
	req.Equal(codes.AlreadyExists, status.Code(MapToGRPCError(ErrConflict)))
	req.Equal(codes.FailedPrecondition, status.Code(MapToGRPCError(ErrInvalidState)))
	req.Equal(codes.Internal, status.Code(MapToGRPCError(fmt.Errorf("boom"))))

	// Given an error that already carries a status
	original := status.Error(codes.Canceled, "client left")

	// Then it is kept as is
	req.Equal(original, MapToGRPCError(original))
}

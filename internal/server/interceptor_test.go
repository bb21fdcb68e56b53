package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/logger"
)

var testInfo = &grpc.UnaryServerInfo{FullMethod: "/campus.v1.CampusService/Test"}

func TestUnaryRecoveryTurnsPanicIntoInternal(t *testing.T) {
	intercept := UnaryRecovery(logger.Discard())

	resp, err := intercept(context.Background(), nil, testInfo, func(context.Context, any) (any, error) {
		var s []int
		return s[3], nil
	})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))

	resp, err = intercept(context.Background(), nil, testInfo, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestUnaryLoggingMapsDomainErrors(t *testing.T) {
	intercept := UnaryLogging(logger.Discard())

	_, err := intercept(context.Background(), nil, testInfo, func(context.Context, any) (any, error) {
		return nil, svcErr.NotFound("user 9")
	})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

package server

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/logger"
)

// UnaryLogging logs every unary call with its status code and latency, and
// converts any domain error that escaped a handler into a gRPC status.
func UnaryLogging(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		err = svcErr.Map(err)

		code := status.Code(err)
		attrs := []any{"method", info.FullMethod, "code", code.String(), logger.Since(start)}
		switch code {
		case codes.OK:
			log.Debug("rpc", attrs...)
		case codes.Internal, codes.Unknown, codes.DataLoss:
			log.Error("rpc", append(attrs, "err", err)...)
		default:
			log.Info("rpc", append(attrs, "err", err)...)
		}
		return resp, err
	}
}

// UnaryRecovery converts a panicking handler into codes.Internal so one bad
// request cannot take the process down.
func UnaryRecovery(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic", "method", info.FullMethod, "error", r, "stack", string(debug.Stack()))
				// avoid leaking internals to clients
				resp, err = nil, status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

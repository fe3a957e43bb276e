package lsp

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/rs/zerolog"
)

// Notifier pushes server-initiated notifications to the client. A started
// *jrpc2.Server satisfies it.
type Notifier interface {
	Notify(ctx context.Context, method string, params any) error
}

func newParseError(err error) *jrpc2.Error {
	return &jrpc2.Error{
		Code:    -32700, // Parse error
		Message: err.Error(),
	}
}

func ApplyRequestToZerolog(ctx context.Context, req *jrpc2.Request) context.Context {
	return zerolog.Ctx(ctx).With().Str("rpc_method", req.Method()).Str("rpc_id", req.ID()).Logger().WithContext(ctx)
}

func createHandler[T any, O any](method func(ctx context.Context, params *T) (O, error)) jrpc2.Handler {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (any, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		var params T
		if err := r.UnmarshalParams(&params); err != nil {
			return nil, newParseError(err)
		}

		result, err := method(ctx, &params)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

func createEmptyResultHandler[T any](method func(ctx context.Context, params *T) error) jrpc2.Handler {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (any, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		var params T
		if err := r.UnmarshalParams(&params); err != nil {
			return nil, newParseError(err)
		}

		return nil, method(ctx, &params)
	})
}

func createEmptyHandler(method func(ctx context.Context) error) jrpc2.Handler {
	return handler.New(func(ctx context.Context, r *jrpc2.Request) (any, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		return nil, method(ctx)
	})
}

// NonNilSlice keeps empty results encoded as [] rather than null.
func NonNilSlice[T any](x []T) []T {
	if x == nil {
		return []T{}
	}
	return x
}

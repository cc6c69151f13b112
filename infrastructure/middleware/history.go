package middleware

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/kvtrack/domain/kv"
	"github.com/felixgeelhaar/kvtrack/domain/middleware"
	"github.com/felixgeelhaar/kvtrack/infrastructure/logging"
)

// CallHistory returns middleware that records each call's rendered inputs
// and output in two parallel store lists keyed by method name.
//
// The input is appended before the call and the output after it. When the
// wrapped call fails, an output starting with FailurePrefix is appended so
// the lists stay index-aligned; the original error is returned either way.
func CallHistory(store kv.Store) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, inv *middleware.Invocation) (any, error) {
			inputs := InputsKey(inv.Method)
			outputs := OutputsKey(inv.Method)

			if _, err := store.AppendToList(ctx, inputs, []byte(middleware.RenderArgs(inv.Args))); err != nil {
				return nil, err
			}

			result, err := next(ctx, inv)
			if err != nil {
				if _, appendErr := store.AppendToList(ctx, outputs, []byte(FailurePrefix+err.Error())); appendErr != nil {
					logging.Warn().
						Add(logging.Method(inv.Method)).
						Add(logging.ErrorField(appendErr)).
						Msg("failed to record call failure")
					return nil, errors.Join(err, appendErr)
				}
				return nil, err
			}

			if _, err := store.AppendToList(ctx, outputs, []byte(middleware.RenderResult(result))); err != nil {
				return nil, err
			}

			return result, nil
		}
	}
}

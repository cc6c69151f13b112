package application

import (
	"context"
	"fmt"
	"io"

	"github.com/felixgeelhaar/kvtrack/domain/kv"
	instrument "github.com/felixgeelhaar/kvtrack/infrastructure/middleware"
)

// CallRecord pairs one recorded input with its output.
type CallRecord struct {
	Inputs string
	Output string
}

// Replayer reads call history recorded by CallHistory.
type Replayer struct {
	store kv.Store
}

// NewReplayer creates a replayer over store.
func NewReplayer(store kv.Store) *Replayer {
	return &Replayer{store: store}
}

// Records returns method's call history oldest first. Inputs and outputs
// are paired positionally and truncated to the shorter list.
func (r *Replayer) Records(ctx context.Context, method string) ([]CallRecord, error) {
	inputs, outputs, err := r.lists(ctx, method)
	if err != nil {
		return nil, err
	}

	n := min(len(inputs), len(outputs))
	records := make([]CallRecord, n)
	for i := 0; i < n; i++ {
		records[i] = CallRecord{Inputs: string(inputs[i]), Output: string(outputs[i])}
	}
	return records, nil
}

// Replay writes a header with the number of recorded calls followed by one
// "<method><inputs> -> <output>" line per record.
func (r *Replayer) Replay(ctx context.Context, method string, w io.Writer) error {
	inputs, outputs, err := r.lists(ctx, method)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "%s was called %d times:\n", method, len(inputs)); err != nil {
		return err
	}
	n := min(len(inputs), len(outputs))
	for i := 0; i < n; i++ {
		if _, err := fmt.Fprintf(w, "%s%s -> %s\n", method, inputs[i], outputs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Replayer) lists(ctx context.Context, method string) ([][]byte, [][]byte, error) {
	inputs, err := r.store.ListRange(ctx, instrument.InputsKey(method), 0, -1)
	if err != nil {
		return nil, nil, fmt.Errorf("read inputs: %w", err)
	}
	outputs, err := r.store.ListRange(ctx, instrument.OutputsKey(method), 0, -1)
	if err != nil {
		return nil, nil, fmt.Errorf("read outputs: %w", err)
	}
	return inputs, outputs, nil
}

// Package replay reports the recorded call history of an instrumented
// operation: how many times it ran and, per call, its arguments and result.
// Replay only reads; it never mutates the store.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/roach88/callcache/internal/instrument"
	"github.com/roach88/callcache/internal/kv"
)

// ErrNoCalls is returned when an operation has no counter in the store.
// An operation that was never called has no "0 times" report.
var ErrNoCalls = errors.New("no recorded calls")

// Call pairs one recorded input snapshot with its output.
type Call struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Report is the recorded history of one operation.
type Report struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
	Calls []Call `json:"calls"`
}

// Load reads the counter and both history lists for name.
//
// Inputs and outputs are paired in list order. If the lists differ in
// length (a call failed after its input was recorded), the extra entries
// are dropped.
func Load(ctx context.Context, store kv.Store, name string) (*Report, error) {
	raw, err := store.Get(ctx, name)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("%w for %s", ErrNoCalls, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read counter %s: %w", name, err)
	}
	count, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("read counter %s: %w", name, err)
	}

	inputs, err := store.LRange(ctx, instrument.InputsKey(name), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("read inputs %s: %w", name, err)
	}
	outputs, err := store.LRange(ctx, instrument.OutputsKey(name), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("read outputs %s: %w", name, err)
	}

	n := min(len(inputs), len(outputs))
	calls := make([]Call, n)
	for i := 0; i < n; i++ {
		calls[i] = Call{Input: string(inputs[i]), Output: string(outputs[i])}
	}

	return &Report{Name: name, Count: count, Calls: calls}, nil
}

// Write renders r as text, one line per call:
//
//	Cache.Store was called 2 times:
//	Cache.Store(*["foo"]) -> 0b7c...
func Write(w io.Writer, r *Report) error {
	if _, err := fmt.Fprintf(w, "%s was called %d times:\n", r.Name, r.Count); err != nil {
		return err
	}
	for _, c := range r.Calls {
		if _, err := fmt.Fprintf(w, "%s(*%s) -> %s\n", r.Name, c.Input, c.Output); err != nil {
			return err
		}
	}
	return nil
}

// Replay loads the history of name and writes it to w.
func Replay(ctx context.Context, store kv.Store, name string, w io.Writer) error {
	r, err := Load(ctx, store, name)
	if err != nil {
		return err
	}
	return Write(w, r)
}

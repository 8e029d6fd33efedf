package scenario

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/callcache/internal/cache"
	"github.com/roach88/callcache/internal/kv"
	"github.com/roach88/callcache/internal/replay"
	"github.com/roach88/callcache/internal/value"
)

// MissingOutput is the trace output of a get on an absent key.
const MissingOutput = "(nil)"

// Event is one executed step.
type Event struct {
	Step   int    `json:"step"`
	Op     string `json:"op"`
	Input  string `json:"input,omitempty"`
	Output string `json:"output"`
}

// Result is the outcome of running a script.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	Trace  []Event  `json:"trace"`
	Errors []string `json:"errors,omitempty"`

	// Keys lists the keys returned by store steps, in order.
	Keys []string `json:"keys"`
}

func newResult() *Result {
	return &Result{Pass: true, Trace: []Event{}, Keys: []string{}}
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes script against c. The cache is used as-is; callers wanting
// a clean slate construct it with cache.New.
func Run(ctx context.Context, c *cache.Cache, script *Script) (*Result, error) {
	result := newResult()

	for i, step := range script.Steps {
		var err error
		switch {
		case step.Store != nil:
			err = runStore(ctx, c, i, step.Store, result)
		case step.Get != nil:
			err = runGet(ctx, c, i, step.Get, result)
		case step.Count != nil:
			err = runCount(ctx, c.KV(), i, step.Count, result)
		case step.Replay != "":
			err = runReplay(ctx, c.KV(), i, step.Replay, result)
		default:
			err = errors.New("empty step")
		}
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return result, nil
}

func runStore(ctx context.Context, c *cache.Cache, i int, s *StoreStep, r *Result) error {
	kind, err := value.ParseKind(s.Kind)
	if err != nil {
		return err
	}
	v, err := value.Parse(kind, s.Value)
	if err != nil {
		return err
	}

	key, err := c.Store(ctx, v)
	if err != nil {
		return err
	}

	snapshot, err := value.Snapshot(v)
	if err != nil {
		return err
	}
	r.Keys = append(r.Keys, key)
	r.Trace = append(r.Trace, Event{Step: i, Op: "store", Input: snapshot, Output: key})
	return nil
}

func runGet(ctx context.Context, c *cache.Cache, i int, g *GetStep, r *Result) error {
	kind, err := value.ParseKind(g.As)
	if err != nil {
		return err
	}

	key := g.Key
	if g.Ref != nil {
		if *g.Ref < 0 || *g.Ref >= len(r.Keys) {
			return fmt.Errorf("ref %d out of range", *g.Ref)
		}
		key = r.Keys[*g.Ref]
	}

	v, found, err := c.GetValue(ctx, key, kind)
	if err != nil {
		return err
	}

	output := MissingOutput
	if found {
		output = v.String()
	}
	r.Trace = append(r.Trace, Event{Step: i, Op: "get", Input: key, Output: output})

	switch {
	case g.Missing && found:
		r.addError("steps[%d]: get %s: expected missing key, got %q", i, key, output)
	case g.Expect != nil && !found:
		r.addError("steps[%d]: get %s: expected %q, key is missing", i, key, *g.Expect)
	case g.Expect != nil && output != *g.Expect:
		r.addError("steps[%d]: get %s: expected %q, got %q", i, key, *g.Expect, output)
	}
	return nil
}

func runCount(ctx context.Context, store kv.Store, i int, cs *CountStep, r *Result) error {
	var got int64
	raw, err := store.Get(ctx, cs.Name)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		got = 0
	case err != nil:
		return err
	default:
		if got, err = strconv.ParseInt(string(raw), 10, 64); err != nil {
			return fmt.Errorf("counter %s: %w", cs.Name, err)
		}
	}

	output := strconv.FormatInt(got, 10)
	r.Trace = append(r.Trace, Event{Step: i, Op: "count", Input: cs.Name, Output: output})
	if got != cs.Expect {
		r.addError("steps[%d]: count %s: expected %d, got %d", i, cs.Name, cs.Expect, got)
	}
	return nil
}

func runReplay(ctx context.Context, store kv.Store, i int, name string, r *Result) error {
	var buf bytes.Buffer
	if err := replay.Replay(ctx, store, name, &buf); err != nil {
		if errors.Is(err, replay.ErrNoCalls) {
			r.Trace = append(r.Trace, Event{Step: i, Op: "replay", Input: name, Output: err.Error()})
			r.addError("steps[%d]: replay %s: %v", i, name, err)
			return nil
		}
		return err
	}
	r.Trace = append(r.Trace, Event{Step: i, Op: "replay", Input: name, Output: buf.String()})
	return nil
}

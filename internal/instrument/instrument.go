package instrument

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/callcache/internal/kv"
	"github.com/roach88/callcache/internal/value"
)

// Call is an instrumentable operation.
type Call func(ctx context.Context, args ...value.Value) (value.Value, error)

// Middleware wraps a Call with a side effect. It must not alter the
// arguments passed in or the result returned.
type Middleware func(next Call) Call

// Layer names one of the built-in middlewares.
type Layer int

const (
	LayerCount Layer = iota
	LayerHistory
)

func (l Layer) String() string {
	switch l {
	case LayerCount:
		return "count"
	case LayerHistory:
		return "history"
	default:
		return fmt.Sprintf("Layer(%d)", int(l))
	}
}

// ParseLayer maps "count" or "history" to a Layer.
func ParseLayer(s string) (Layer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "count":
		return LayerCount, nil
	case "history":
		return LayerHistory, nil
	default:
		return 0, fmt.Errorf("unknown instrumentation layer %q", s)
	}
}

// Order lists layers from outermost to innermost.
type Order []Layer

// DefaultOrder counts the call, then records its history.
var DefaultOrder = Order{LayerCount, LayerHistory}

// ParseOrder parses layer names, outermost first, and validates the result.
func ParseOrder(names []string) (Order, error) {
	order := make(Order, 0, len(names))
	for _, name := range names {
		l, err := ParseLayer(name)
		if err != nil {
			return nil, err
		}
		order = append(order, l)
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate rejects unknown and repeated layers.
func (o Order) Validate() error {
	seen := make(map[Layer]bool, len(o))
	for _, l := range o {
		if l != LayerCount && l != LayerHistory {
			return fmt.Errorf("unknown instrumentation layer %v", l)
		}
		if seen[l] {
			return fmt.Errorf("instrumentation layer %v appears more than once", l)
		}
		seen[l] = true
	}
	return nil
}

func (o Order) Strings() []string {
	out := make([]string, len(o))
	for i, l := range o {
		out[i] = l.String()
	}
	return out
}

// Compose applies middlewares to core. The first middleware is outermost.
func Compose(core Call, mws ...Middleware) Call {
	call := core
	for i := len(mws) - 1; i >= 0; i-- {
		call = mws[i](call)
	}
	return call
}

// Wrap instruments core under name using the layers in order.
// An empty order returns core unchanged.
func Wrap(store kv.Store, name string, core Call, order Order) (Call, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	mws := make([]Middleware, 0, len(order))
	for _, l := range order {
		switch l {
		case LayerCount:
			mws = append(mws, Count(store, name))
		case LayerHistory:
			mws = append(mws, History(store, name))
		}
	}
	return Compose(core, mws...), nil
}

// QualifiedName builds the key an operation is recorded under,
// e.g. QualifiedName("Cache", "Store") == "Cache.Store".
func QualifiedName(receiver, method string) string {
	return receiver + "." + method
}

// InputsKey is the list holding argument snapshots for name.
func InputsKey(name string) string {
	return name + ":inputs"
}

// OutputsKey is the list holding stringified results for name.
func OutputsKey(name string) string {
	return name + ":outputs"
}

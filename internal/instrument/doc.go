// Package instrument records how an operation is used.
//
// Two independent middlewares wrap a Call:
//   - Count increments the counter <name> before every call
//   - History appends the argument snapshot to <name>:inputs, runs the
//     call, then appends the result to <name>:outputs
//
// Composition order is an explicit Order value (outermost first) rather
// than the nesting of wrapper calls at the definition site. DefaultOrder
// counts first, then records history.
//
// All state lives in the kv.Store passed in. The i-th entry of the inputs
// list pairs with the i-th entry of the outputs list as long as calls do
// not fail; a failed call leaves its input recorded with no output.
package instrument

// Package event implements the in-process Event Bus.
//
// The bus maps an event name to an ordered list of callbacks:
//   - Subscribe returns an Unsubscribe handle that removes exactly that registration
//   - Publish runs every callback registered for a name, in registration order,
//     synchronously on the calling goroutine
//   - Callbacks take no arguments; consumers pull state from its owner
//
// The bus knows nothing about connections. It only signals that something happened.
package event

// Package connection implements the Connection Manager component.
//
// The Connection Manager:
//   - Owns exactly one websocket transport to the game server at a time
//   - Reports status (init, pending, open, error) through the Event Bus
//   - Reconnects after failures with exponential backoff, reset on every open
//   - Sends an application-level "Ping" frame while open to keep proxies from idling out
//   - Decodes inbound frames through the game codec and republishes the tags
//
// All state transitions run on a single event loop goroutine. Transport
// callbacks and timers only enqueue work onto that loop.
package connection

// Package audit implements asynchronous audit event dispatch. Events are
// emitted by the engine, buffered, and forwarded to a caller-supplied Sink
// on a dedicated goroutine so audit I/O never sits on the request path.
package audit

// Package sink delivers finished records to durable storage: the Sink
// interface the session's writer goroutine calls once per record, and a
// MongoDB adapter that inserts each record as its own document through
// the official MongoDB Go driver.
package sink

import (
	"context"
	"net"
	"time"
)

// Record is a sink-ready banner: when it was captured, who answered,
// and the parser's typed payload.
type Record[T any] struct {
	Timestamp time.Time
	IP        net.IP
	Port      uint16
	Payload   T
}

// Sink persists records of one parser's output type. Implementations
// must be safe for concurrent use by the writer goroutine only; nothing
// in this package calls Write concurrently.
type Sink[T any] interface {
	Write(ctx context.Context, rec Record[T]) error
}

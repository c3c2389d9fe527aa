package respd

import (
	"context"
	"time"
)

// Pool manages a set of reusable connections to one server.
type Pool interface {
	// Acquire returns a connection wrapped in a Resource, creating one
	// if the pool is below its size limit, or waiting otherwise.
	Acquire(ctx context.Context) (Resource, error)

	// AcquireAllIdle removes every idle connection from the pool, for
	// health checking. Callers must Destroy or ReleaseUnused each one.
	AcquireAllIdle() []Resource

	// Stats returns a snapshot of pool counters.
	Stats() PoolStats

	// Close closes the pool and every idle connection.
	Close()
}

// Resource is one pooled connection and its lifecycle handle.
type Resource interface {
	Value() *Connection

	// Release returns the connection to the pool for reuse.
	Release()

	// ReleaseUnused returns the connection without refreshing its idle
	// clock. Health checks use this so they do not keep connections
	// alive artificially.
	ReleaseUnused()

	// Destroy closes the connection and removes it from the pool.
	Destroy()

	CreationTime() time.Time
	IdleDuration() time.Duration
}

// PoolFactory builds a Pool from a connection constructor and a size
// limit. NewChannelPool and NewPuddlePool both satisfy it.
type PoolFactory func(constructor func(ctx context.Context) (*Connection, error), maxSize int32) (Pool, error)

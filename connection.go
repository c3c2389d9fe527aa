package respd

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/pior/respd/resp"
)

const connReadBufferSize = 4 * 1024

// Connection is a single client connection to a server. It serializes
// request/reply cycles under a mutex, so one Connection can be shared,
// though pools normally hand it to one goroutine at a time.
type Connection struct {
	mu     sync.Mutex
	conn   net.Conn
	buf    []byte
	out    []byte
	closed bool
}

func NewConnection(conn net.Conn) *Connection {
	return &Connection{
		conn: conn,
		buf:  make([]byte, 0, connReadBufferSize),
	}
}

// Do sends one request and decodes one reply. The args form the request
// array: command keyword first, then its arguments.
func (c *Connection) Do(ctx context.Context, args ...[]byte) (resp.Value, error) {
	values, err := c.DoBatch(ctx, [][][]byte{args})
	if err != nil {
		return resp.Value{}, err
	}
	return values[0], nil
}

// DoBatch pipelines several requests on one round trip and returns one
// reply per request, in order.
func (c *Connection) DoBatch(ctx context.Context, batch [][][]byte) ([]resp.Value, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrConnectionClosed
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetDeadline(deadline); err != nil {
			return nil, err
		}
	} else {
		if err := c.conn.SetDeadline(time.Time{}); err != nil {
			return nil, err
		}
	}

	c.out = c.out[:0]
	for _, args := range batch {
		c.out = resp.AppendCommand(c.out, args...)
	}
	if _, err := c.conn.Write(c.out); err != nil {
		c.closed = true
		return nil, err
	}

	values := make([]resp.Value, 0, len(batch))
	for range batch {
		value, err := c.readValue()
		if err != nil {
			c.closed = true
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// readValue reads from the connection until the buffer holds one
// complete reply frame, then decodes and consumes it. A read error is
// surfaced only after the bytes that arrived with it were checked, so a
// reply delivered together with EOF is not dropped.
func (c *Connection) readValue() (resp.Value, error) {
	var readErr error
	for {
		_, size, err := resp.CheckValue(c.buf)
		if err == nil {
			value, err := resp.DecodeValue(c.buf[:size])
			if err != nil {
				return resp.Value{}, err
			}
			c.buf = append(c.buf[:0], c.buf[size:]...)
			return value, nil
		}
		if !errors.Is(err, resp.ErrIncomplete) {
			return resp.Value{}, err
		}
		if readErr != nil {
			return resp.Value{}, readErr
		}

		if len(c.buf) == cap(c.buf) {
			grown := make([]byte, len(c.buf), cap(c.buf)*2)
			copy(grown, c.buf)
			c.buf = grown
		}
		var n int
		n, readErr = c.conn.Read(c.buf[len(c.buf):cap(c.buf)])
		c.buf = c.buf[:len(c.buf)+n]
	}
}

// IsClosed reports whether the connection has been closed, either
// explicitly or after an I/O error.
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

package respd

import "errors"

var (
	// ErrConnectionClosed reports use of a client connection after Close.
	ErrConnectionClosed = errors.New("respd: connection closed")

	// ErrPoolClosed reports an acquire on a closed pool.
	ErrPoolClosed = errors.New("respd: pool closed")

	// ErrNoServers reports a client configured without any server address.
	ErrNoServers = errors.New("respd: no servers configured")

	// ErrServerReply wraps an error line received from the server.
	ErrServerReply = errors.New("respd: server error reply")
)

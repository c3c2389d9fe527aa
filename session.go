package respd

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/pior/respd/internal/bufpool"
	"github.com/pior/respd/resp"
)

const (
	sessionWriteTimeout = 5 * time.Second

	// Hard cap on the receive buffer. A request that cannot complete
	// within it is treated like a malformed one: error out and close.
	sessionMaxBufferSize = 1 << 30
)

var errFrameTooLarge = errors.New("respd: frame exceeds maximum size")

// session owns one accepted connection: it accumulates reads, carves
// complete request frames out of the buffer, dispatches them against the
// store and writes the replies back.
type session struct {
	conn        net.Conn
	store       *Store
	logger      zerolog.Logger
	idleTimeout time.Duration

	buf []byte
	out []byte
}

func newSession(conn net.Conn, store *Store, logger zerolog.Logger, idleTimeout time.Duration) *session {
	return &session{
		conn:        conn,
		store:       store,
		logger:      logger.With().Str("remote_addr", conn.RemoteAddr().String()).Logger(),
		idleTimeout: idleTimeout,
		buf:         bufpool.Get(),
		out:         bufpool.Get(),
	}
}

// run services the connection until EOF, an I/O error, or a protocol
// error. Protocol errors get a best-effort error line before the close.
func (s *session) run() {
	defer s.conn.Close()
	defer func() {
		bufpool.Put(s.buf)
		bufpool.Put(s.out)
	}()

	for {
		readErr := s.fill()

		// Whatever arrived is processed even when the read also
		// reported EOF, so a client that writes and closes still gets
		// its replies.
		ok, err := s.drainFrames()
		if err != nil {
			s.reject(err)
			return
		}
		if ok {
			if err := s.flush(); err != nil {
				s.logger.Debug().Err(err).Msg("session write failed")
				return
			}
		}

		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				s.logger.Debug().Err(readErr).Msg("session read failed")
			}
			return
		}
	}
}

// fill reads once into the spare capacity of the receive buffer, growing
// it when full.
func (s *session) fill() error {
	if len(s.buf) == cap(s.buf) {
		grown, ok := growBuffer(s.buf, sessionMaxBufferSize)
		if !ok {
			return errFrameTooLarge
		}
		s.buf = grown
	}

	if s.idleTimeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout)); err != nil {
			return err
		}
	}

	n, err := s.conn.Read(s.buf[len(s.buf):cap(s.buf)])
	s.buf = s.buf[:len(s.buf)+n]
	return err
}

// growBuffer doubles the capacity of buf, clamped to limit. It reports
// false when buf is already at the limit and cannot grow.
func growBuffer(buf []byte, limit int) ([]byte, bool) {
	if cap(buf) >= limit {
		return buf, false
	}
	grown := make([]byte, len(buf), min(max(cap(buf)*2, 64), limit))
	copy(grown, buf)
	return grown, true
}

// drainFrames processes every complete frame currently buffered and
// queues the replies. It reports whether any reply is pending, and a
// non-nil error for malformed input, which ends the session.
func (s *session) drainFrames() (bool, error) {
	pending := s.buf
	replied := false

	for {
		_, size, err := resp.CheckArray(pending)
		if errors.Is(err, resp.ErrIncomplete) {
			break
		}
		if err != nil {
			return replied, err
		}

		args, err := resp.DecodeArgs(pending[:size])
		if err != nil {
			return replied, err
		}
		s.dispatch(resp.Detach(args))

		pending = pending[size:]
		replied = true
	}

	// Move the unconsumed tail to the front so the buffer never grows
	// past one frame plus whatever arrived behind it.
	if len(pending) < len(s.buf) {
		n := copy(s.buf, pending)
		s.buf = s.buf[:n]
	}
	return replied, nil
}

// dispatch parses and executes one request, appending the encoded reply.
// Command errors answer with an error line and keep the session alive.
func (s *session) dispatch(args resp.Arguments[[]byte]) {
	cmd, err := resp.ParseCmd(args)

	var reply resp.Value
	if err != nil {
		reply = resp.ErrorReply(err)
	} else {
		reply = s.store.Apply(cmd)
	}
	s.out = reply.AppendEncode(s.out)
}

func (s *session) flush() error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(sessionWriteTimeout)); err != nil {
		return err
	}
	_, err := s.conn.Write(s.out)
	s.out = s.out[:0]
	return err
}

// reject writes one error line for a protocol violation. The caller
// closes the connection; whatever was buffered before the bad frame is
// still flushed first so earlier pipelined requests get their replies.
func (s *session) reject(cause error) {
	s.logger.Debug().Err(cause).Msg("closing session on protocol error")

	s.out = resp.ErrorReply(resp.ErrMalformed).AppendEncode(s.out)
	_ = s.flush()
}

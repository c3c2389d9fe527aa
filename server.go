package respd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	rejectionTimeout = 500 * time.Millisecond

	maxClientsReply = "-ERR max number of clients reached\r\n"
)

// Server accepts RESP connections and serves them against a Store.
type Server struct {
	config ServerConfig
	store  *Store
	logger zerolog.Logger

	listener    net.Listener
	connLimiter chan struct{}
	wg          sync.WaitGroup
}

func NewServer(config ServerConfig, logger zerolog.Logger) (*Server, error) {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &Server{
		config:      config,
		store:       NewStore(),
		logger:      logger,
		connLimiter: make(chan struct{}, config.MaxConns),
	}, nil
}

// Store exposes the server's state, mainly so tests and tooling can
// inspect it.
func (s *Server) Store() *Store {
	return s.store
}

// Addr returns the bound listen address. Valid once ListenAndServe has
// started accepting, which is signalled through the ready channel.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// ListenAndServe binds the configured address and serves until ctx is
// cancelled. On cancellation it stops accepting, then waits up to the
// shutdown timeout for in-flight sessions to finish. If ready is non-nil
// it is closed once the listener is bound.
func (s *Server) ListenAndServe(ctx context.Context, ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("respd: listen on %s: %w", s.config.Addr, err)
	}
	s.listener = ln

	if ready != nil {
		close(ready)
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info().Str("address", ln.Addr().String()).Msg("shutting down")

		if err := ln.Close(); err != nil {
			shutdownErr <- err
			return
		}

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			shutdownErr <- nil
		case <-time.After(s.config.ShutdownTimeout):
			shutdownErr <- errors.New("respd: shutdown timeout exceeded")
		}
	}()

	s.logger.Info().Str("address", ln.Addr().String()).Msg("server started")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error().Err(err).Msg("accept failed")
			continue
		}

		select {
		case s.connLimiter <- struct{}{}:
			s.wg.Add(1)
			go s.handleConn(conn)
		default:
			s.rejectConn(conn)
		}
	}

	return <-shutdownErr
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() {
		<-s.connLimiter
		s.wg.Done()
	}()

	newSession(conn, s.store, s.logger, s.config.IdleTimeout).run()
}

// rejectConn turns away a connection over the limit. The write deadline
// keeps a client that never reads from stalling the accept loop.
func (s *Server) rejectConn(conn net.Conn) {
	s.logger.Info().Str("remote_addr", conn.RemoteAddr().String()).Msg("connection limit reached")

	_ = conn.SetWriteDeadline(time.Now().Add(rejectionTimeout))
	_, _ = conn.Write([]byte(maxClientsReply))
	_ = conn.Close()
}

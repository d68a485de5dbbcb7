package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultHost         = "127.0.0.1"
	defaultPort         = 8000
	defaultDocumentRoot = "./website"
	defaultLogFile      = "log.txt"
	defaultGracePeriod  = 3 * time.Second
)

type Config struct {
	Host string
	// Port 0 picks a free port.
	Port           int
	DocumentRoot   string
	LogFile        string
	ReadBufferSize int
	// Persistent serves further requests on a connection instead of closing
	// it after the first response.
	Persistent  bool
	GracePeriod time.Duration
	Location    *time.Location
	Logger      zerolog.Logger
	Now         func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.DocumentRoot == "" {
		c.DocumentRoot = defaultDocumentRoot
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = defaultReadBufferSize
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = defaultGracePeriod
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type Server struct {
	config       Config
	handler      *Handler
	listener     net.Listener
	accepting    chan struct{} // closed when the accept loop returns
	wg           sync.WaitGroup
	connectionID int64 // atomic
}

func NewServer(config Config) (*Server, error) {
	config = config.withDefaults()
	handler, err := NewHandler(config)
	if err != nil {
		return nil, err
	}
	return &Server{config: config, handler: handler}, nil
}

// Addr is the bound address, valid after Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds the listener and accepts connections in the background until
// shutdownCtx is done. Only the bind can fail.
func (s *Server) Start(shutdownCtx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.config.Address(), err)
	}
	s.listener = listener
	s.accepting = make(chan struct{})
	logger := s.config.Logger

	logger.Info().
		Str("addr", listener.Addr().String()).
		Str("root", s.handler.resolver.Root()).
		Bool("persistent", s.config.Persistent).
		Msg("server running")

	go func() {
		<-shutdownCtx.Done()
		if err := listener.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing listener")
		}
	}()

	go func() {
		defer close(s.accepting)
		for {
			conn, err := listener.Accept()
			if err != nil {
				if shutdownCtx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return
				}
				logger.Error().Err(err).Msg("error accepting connection")
				continue
			}

			id := atomic.AddInt64(&s.connectionID, 1)
			logger.Debug().Int64("conn_id", id).Str("remote", conn.RemoteAddr().String()).Msg("got connection")
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.handler.Serve(id, conn)
			}()
		}
	}()
	return nil
}

// Stop waits for live workers, giving up after the grace period. The
// listener is closed by cancelling the context passed to Start, so Stop
// must come after that cancel.
func (s *Server) Stop() {
	logger := s.config.Logger
	logger.Info().Msg("server is shutting down")
	if s.accepting != nil {
		// no wg.Add may race with the Wait below
		<-s.accepting
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.config.GracePeriod):
		logger.Warn().Dur("grace_period", s.config.GracePeriod).Msg("grace period exceeded, abandoning live connections")
	}
	logger.Info().Msg("shutdown complete")
}

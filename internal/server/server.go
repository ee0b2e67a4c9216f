package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/Kavishankarks/1mrc/internal/store"
)

const defaultGracePeriod = 3 * time.Second

// Config holds the acceptor's settings.
type Config struct {
	Addr        string        // host:port to bind
	GracePeriod time.Duration // how long Stop waits for in-flight handlers
}

// Server owns the listening socket and the shared aggregate store, and runs
// one handler goroutine per accepted connection.
type Server struct {
	config   Config
	store    *store.Store
	listener net.Listener
	wg       sync.WaitGroup
}

// New creates a server around an existing store. The store is injected rather
// than constructed here so tests can observe it directly and so the process
// owns exactly one instance.
func New(config Config, st *store.Store) *Server {
	if config.GracePeriod <= 0 {
		config.GracePeriod = defaultGracePeriod
	}
	return &Server{config: config, store: st}
}

// Start binds the listening socket and runs the accept loop in the
// background. The loop exits when shutdownCtx is cancelled, which closes the
// listener; in-flight handlers are drained by Stop.
func (s *Server) Start(shutdownCtx context.Context) error {
	listener, err := listen(s.config.Addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.config.Addr, err)
	}
	s.listener = listener
	log.Printf("server listening on %s", listener.Addr())

	go func() {
		<-shutdownCtx.Done()
		if err := s.listener.Close(); err != nil {
			log.Printf("error closing listener: %v", err)
		}
	}()

	go func() {
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				if shutdownCtx.Err() != nil {
					return // shutdown in progress
				}
				// A failed accept affects no existing connection;
				// keep accepting.
				log.Printf("error accepting connection: %v", err)
				continue
			}

			s.wg.Add(1)
			go s.handleConn(conn)
		}
	}()
	return nil
}

// Stop waits for in-flight handlers to finish, up to the grace period.
// Handlers run to completion; there is no mid-request cancellation, so after
// the grace period the remaining connections are simply abandoned to the
// process exit.
func (s *Server) Stop() {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.config.GracePeriod):
		log.Printf("grace period exceeded, abandoning in-flight connections")
	}
}

// Addr returns the bound listener address. Useful when the configured port
// was 0 and the kernel picked one.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Package hapserver publishes accessories to controllers over the HAP
// protocol. Pairing, encryption and mDNS discovery all belong to the
// underlying hap library; this adapter only manages its lifecycle.
package hapserver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/rs/zerolog"
)

type Server struct {
	dir  string
	pin  string
	addr string
	log  zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewServer(dir, pin string, port int, log zerolog.Logger) *Server {
	addr := ""
	if port > 0 {
		addr = fmt.Sprintf(":%d", port)
	}
	return &Server{dir: dir, pin: pin, addr: addr, log: log}
}

// Publish starts serving the given accessory set. A server already
// running is torn down first, so republishing after a configuration
// change is a plain Publish call.
func (s *Server) Publish(ctx context.Context, bridge *accessory.A, accessories []*accessory.A) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	srv, err := hap.NewServer(hap.NewFsStore(s.dir), bridge, accessories...)
	if err != nil {
		return fmt.Errorf("creating hap server: %w", err)
	}
	srv.Pin = s.pin
	srv.Addr = s.addr

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		if err := srv.ListenAndServe(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error().Err(err).Msg("hap server exited")
		}
	}()
	s.log.Info().Int("accessories", len(accessories)).Msg("publishing accessories")
	return nil
}

// Stop shuts the server down and waits for it to exit. Safe to call when
// nothing is published, and safe to call concurrently with Publish.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Server) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

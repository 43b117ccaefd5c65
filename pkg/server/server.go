// Package server hosts the protocol adapters that front the shared
// namespace core and ties their lifecycles together: all adapters start
// with Serve and stop together when the context ends or one of them
// fails.
package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/pagevol/mds/internal/logger"
	"github.com/pagevol/mds/pkg/adapter"
)

// Server runs a set of adapters over one namespace core.
type Server struct {
	mu       sync.Mutex
	adapters []adapter.Adapter
	serving  bool
}

// New builds an empty server. Register adapters before calling Serve.
func New() *Server {
	return &Server{}
}

// AddAdapter registers an adapter. Must be called before Serve.
func (s *Server) AddAdapter(a adapter.Adapter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.serving {
		panic("AddAdapter called after Serve")
	}
	s.adapters = append(s.adapters, a)
}

// Serve starts every adapter and blocks until the context is cancelled
// or any adapter fails. When one adapter returns early its error wins
// and the rest are shut down.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.serving {
		s.mu.Unlock()
		return fmt.Errorf("server already serving")
	}
	s.serving = true
	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	s.mu.Unlock()

	if len(adapters) == 0 {
		return fmt.Errorf("no adapters registered")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(adapters))
	var wg sync.WaitGroup
	for _, a := range adapters {
		wg.Add(1)
		go func(a adapter.Adapter) {
			defer wg.Done()
			logger.Infof("starting %s adapter", a.Protocol())
			if err := a.Serve(ctx); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("%s adapter: %w", a.Protocol(), err)
				cancel()
				return
			}
			logger.Infof("%s adapter stopped", a.Protocol())
		}(a)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		return err
	}
	return ctx.Err()
}

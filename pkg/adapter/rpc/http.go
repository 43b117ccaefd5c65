package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pagevol/mds/internal/logger"
	"github.com/pagevol/mds/pkg/adapter"
)

// Server binds the namespace service to JSON over HTTP: one POST route
// per operation under /NameSpaceService/. The transport is deliberately
// plain; the interesting contract lives in the handler and the core.
type Server struct {
	addr    string
	handler *Handler

	mu       sync.Mutex
	httpSrv  *http.Server
	listener net.Listener
	port     int
}

var _ adapter.Adapter = (*Server)(nil)

// NewServer builds a server listening on addr, e.g. ":6700".
func NewServer(addr string, handler *Handler) *Server {
	return &Server{addr: addr, handler: handler}
}

// route registers a JSON request/response endpoint. Malformed request
// bodies are rejected before they reach the handler; handlers themselves
// always produce a response, so every exchange is answered exactly once.
func route[Req any, Resp any](mux *http.ServeMux, path string, handle func(*Req) *Resp) {
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req Req
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(handle(&req)); err != nil {
			logger.Errorf("response encode failed on %s: %v", path, err)
		}
	})
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	route(mux, "/NameSpaceService/CreateFile", s.handler.CreateFile)
	route(mux, "/NameSpaceService/GetFileInfo", s.handler.GetFileInfo)
	route(mux, "/NameSpaceService/DeleteFile", s.handler.DeleteFile)
	route(mux, "/NameSpaceService/ReadDir", s.handler.ReadDir)
	route(mux, "/NameSpaceService/RenameFile", s.handler.RenameFile)
	route(mux, "/NameSpaceService/ExtendFile", s.handler.ExtendFile)
	route(mux, "/NameSpaceService/GetOrAllocateSegment", s.handler.GetOrAllocateSegment)
	route(mux, "/NameSpaceService/DeleteSegment", s.handler.DeleteSegment)
	route(mux, "/NameSpaceService/CreateSnapShot", s.handler.CreateSnapShot)
	route(mux, "/NameSpaceService/ListSnapShot", s.handler.ListSnapShot)
	route(mux, "/NameSpaceService/DeleteSnapShot", s.handler.DeleteSnapShot)
	route(mux, "/NameSpaceService/CheckSnapShotStatus", s.handler.CheckSnapShotStatus)
	route(mux, "/NameSpaceService/GetSnapShotFileSegment", s.handler.GetSnapShotFileSegment)
	return mux
}

// Serve listens and blocks until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port
	s.httpSrv = &http.Server{
		Handler:           s.mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpSrv
	s.mu.Unlock()

	logger.Infof("namespace rpc listening on %s", listener.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Stop shuts the server down. Safe to call more than once and while
// Serve is running.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Protocol implements adapter.Adapter.
func (s *Server) Protocol() string {
	return "NamespaceRPC"
}

// Port implements adapter.Adapter.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

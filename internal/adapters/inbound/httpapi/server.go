package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/spiffe/go-spiffe/v2/spiffeid"
	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/workloadapi"
	"github.com/sufield/evault/internal/config"
)

// Server serves the REST facade over plain HTTP or, when server.spire is
// configured, over SPIFFE mTLS.
type Server struct {
	server     *http.Server
	x509Source *workloadapi.X509Source

	mu       sync.Mutex
	listener net.Listener
	done     chan error
}

// NewServer creates a server for handler. With SPIRE configured it fetches
// the initial SVID from the Workload API before returning.
func NewServer(ctx context.Context, cfg config.Config, handler http.Handler) (*Server, error) {
	if cfg.Server.ListenAddr == "" {
		return nil, fmt.Errorf("address is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}

	s := &Server{
		server: &http.Server{
			Addr:              cfg.Server.ListenAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}

	if !cfg.Server.SPIRE.Enabled() {
		return s, nil
	}

	authorizer, err := clientAuthorizer(cfg.Server.SPIRE)
	if err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, cfg.InitialFetchTimeout())
	defer cancel()

	// The source keeps rotating SVIDs after the initial fetch.
	source, err := workloadapi.NewX509Source(
		fetchCtx,
		workloadapi.WithClientOptions(workloadapi.WithAddr(cfg.Server.SPIRE.WorkloadSocket)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create X509Source: %w", err)
	}

	s.x509Source = source
	s.server.TLSConfig = tlsconfig.MTLSServerConfig(source, source, authorizer)
	return s, nil
}

func clientAuthorizer(s config.SPIRESection) (tlsconfig.Authorizer, error) {
	if s.AllowedClientSPIFFEID != "" {
		id, err := spiffeid.FromString(s.AllowedClientSPIFFEID)
		if err != nil {
			return nil, fmt.Errorf("invalid client SPIFFE ID %q: %w", s.AllowedClientSPIFFEID, err)
		}
		return tlsconfig.AuthorizeID(id), nil
	}
	td, err := spiffeid.TrustDomainFromString(s.AllowedClientTrustDomain)
	if err != nil {
		return nil, fmt.Errorf("invalid client trust domain %q: %w", s.AllowedClientTrustDomain, err)
	}
	return tlsconfig.AuthorizeMemberOf(td), nil
}

// Start binds the listen address and serves in the background.
// Bind errors are returned synchronously.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New("server already started")
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln
	s.done = make(chan error, 1)

	go func() {
		var err error
		if s.server.TLSConfig != nil {
			// Certificates come from TLSConfig.
			err = s.server.ServeTLS(ln, "", "")
		} else {
			err = s.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("httpapi server error: %v", err)
			s.done <- err
		}
		close(s.done)
	}()

	mode := "plain HTTP"
	if s.server.TLSConfig != nil {
		mode = "mTLS"
	}
	log.Printf("eVAULT API listening on %s (%s)", ln.Addr(), mode)
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Done is closed when the server stops serving; it carries the serve error
// if serving failed. It is nil before Start.
func (s *Server) Done() <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// TLS reports whether the server serves mTLS.
func (s *Server) TLS() bool {
	return s.server.TLSConfig != nil
}

// Stop gracefully shuts the server down and releases the X509 source.
func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	if err := s.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown server: %w", err))
	}
	if s.x509Source != nil {
		if err := s.x509Source.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close X509Source: %w", err))
		}
	}
	return errors.Join(errs...)
}

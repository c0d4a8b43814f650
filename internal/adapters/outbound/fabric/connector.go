// Package fabric implements ports.Connector with the Hyperledger Fabric
// Gateway client.
//
// Each Connect resolves the organization's connection profile and the
// user's wallet identity, dials the organization's gateway peer over TLS and
// binds a contract on the requested channel. Parsed profiles and identities
// are cached; gRPC connections are not shared between sessions.
package fabric

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"github.com/patrickmn/go-cache"
	"github.com/sufield/evault/internal/debug"
	"github.com/sufield/evault/internal/ports"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"
)

// Config configures a Connector.
type Config struct {
	// ProfilesDir holds connection-<org>.json|yaml files.
	ProfilesDir string
	// WalletDir holds <org>/<user>.id identity files.
	WalletDir string
	// CacheTTL bounds how long parsed profiles and identities are reused.
	CacheTTL time.Duration

	EvaluateTimeout time.Duration
	SubmitTimeout   time.Duration
}

// Connector opens Fabric Gateway sessions.
type Connector struct {
	cfg   Config
	cache *cache.Cache
}

// NewConnector creates a connector. Zero timeouts fall back to the gateway
// client defaults.
func NewConnector(cfg Config) (*Connector, error) {
	if cfg.ProfilesDir == "" {
		return nil, errors.New("fabric: profiles directory is required")
	}
	if cfg.WalletDir == "" {
		return nil, errors.New("fabric: wallet directory is required")
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Connector{cfg: cfg, cache: cache.New(ttl, ttl)}, nil
}

type resolvedProfile struct {
	endpoint *Endpoint
}

func (c *Connector) endpoint(org string) (*Endpoint, error) {
	key := "profile/" + org
	if v, ok := c.cache.Get(key); ok {
		return v.(resolvedProfile).endpoint, nil
	}

	p, path, err := LoadProfile(c.cfg.ProfilesDir, org)
	if err != nil {
		return nil, err
	}
	ep, err := p.Endpoint(org, path)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, resolvedProfile{endpoint: ep}, cache.DefaultExpiration)
	return ep, nil
}

func (c *Connector) credentials(org, user, mspID string) (*Credentials, error) {
	key := "identity/" + org + "/" + user
	if v, ok := c.cache.Get(key); ok {
		return v.(*Credentials), nil
	}

	creds, err := LoadIdentity(c.cfg.WalletDir, org, user, mspID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, creds, cache.DefaultExpiration)
	return creds, nil
}

// Connect resolves the target's profile and identity and opens a gateway
// session bound to target.Channel / target.Contract.
func (c *Connector) Connect(ctx context.Context, target ports.Target) (ports.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ep, err := c.endpoint(target.Org)
	if err != nil {
		return nil, err
	}
	creds, err := c.credentials(target.Org, target.User, ep.MSPID)
	if err != nil {
		return nil, err
	}

	conn, err := dial(ep)
	if err != nil {
		return nil, fmt.Errorf("failed to dial gateway peer %s: %w", ep.Address, err)
	}

	opts := []client.ConnectOption{
		client.WithSign(creds.Sign),
		client.WithClientConnection(conn),
	}
	if c.cfg.EvaluateTimeout > 0 {
		opts = append(opts, client.WithEvaluateTimeout(c.cfg.EvaluateTimeout))
	}
	if c.cfg.SubmitTimeout > 0 {
		opts = append(opts,
			client.WithEndorseTimeout(c.cfg.SubmitTimeout),
			client.WithSubmitTimeout(c.cfg.SubmitTimeout),
			client.WithCommitStatusTimeout(c.cfg.SubmitTimeout),
		)
	}

	gw, err := client.Connect(creds.ID, opts...)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect gateway: %w", err)
	}

	debug.GetLogger().Debugf("fabric session opened: %s@%s via %s, %s", target.User, target.Org, ep.Address, target.Namespace())

	return &handle{
		gateway:  gw,
		conn:     conn,
		contract: gw.GetNetwork(target.Channel).GetContract(target.Contract),
	}, nil
}

// Close drops cached profiles and identities.
func (c *Connector) Close() error {
	c.cache.Flush()
	return nil
}

func dial(ep *Endpoint) (*grpc.ClientConn, error) {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(ep.TLSCACert) {
		return nil, errors.New("no certificates in peer tlsCACerts")
	}
	tlsCfg := &tls.Config{
		RootCAs:    pool,
		ServerName: ep.ServerName,
		MinVersion: tls.VersionTLS12,
	}
	return grpc.NewClient(ep.Address, grpc.WithTransportCredentials(credentials.NewTLS(tlsCfg)))
}

type handle struct {
	gateway  *client.Gateway
	conn     *grpc.ClientConn
	contract *client.Contract

	closeOnce sync.Once
	closed    bool
	mu        sync.Mutex
	closeErr  error
}

func (h *handle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *handle) Submit(ctx context.Context, fn string, args ...string) ([]byte, error) {
	if h.isClosed() {
		return nil, ports.ErrHandleClosed
	}
	out, err := h.contract.SubmitWithContext(ctx, fn, client.WithArguments(args...))
	return out, ledgerError(err)
}

func (h *handle) Evaluate(ctx context.Context, fn string, args ...string) ([]byte, error) {
	if h.isClosed() {
		return nil, ports.ErrHandleClosed
	}
	out, err := h.contract.EvaluateWithContext(ctx, fn, client.WithArguments(args...))
	return out, ledgerError(err)
}

// ledgerError appends the peer messages carried in the gateway status
// details to err. The status text alone only says that endorsement failed;
// the chaincode's own error is in the details.
func ledgerError(err error) error {
	if err == nil {
		return nil
	}
	var msgs []string
	for _, d := range status.Convert(err).Details() {
		if detail, ok := d.(*gateway.ErrorDetail); ok && detail.GetMessage() != "" {
			msgs = append(msgs, detail.GetMessage())
		}
	}
	if len(msgs) == 0 {
		return err
	}
	return fmt.Errorf("%w: %s", err, strings.Join(msgs, "; "))
}

// Close closes the gateway and its gRPC connection once.
func (h *handle) Close() error {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()

		if err := h.gateway.Close(); err != nil {
			h.closeErr = err
		}
		if err := h.conn.Close(); err != nil && h.closeErr == nil {
			h.closeErr = err
		}
	})
	return h.closeErr
}

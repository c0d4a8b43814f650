package fabric

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sufield/evault/internal/ports"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"
)

// selfSigned returns a PEM certificate and PKCS#8 PEM key.
func selfSigned(t *testing.T, cn string) (certPEM, keyPEM []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		DNSNames:              []string{cn},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8})
}

type fixture struct {
	profiles string
	wallet   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		profiles: filepath.Join(root, "profiles"),
		wallet:   filepath.Join(root, "wallet"),
	}
	require.NoError(t, os.MkdirAll(f.profiles, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(f.wallet, "LawyersOrg"), 0o755))

	caPEM, _ := selfSigned(t, "peer0.lawyers.example.com")
	writeLawyersProfile(t, f.profiles, "grpcs://localhost:7051", caPEM)

	certPEM, keyPEM := selfSigned(t, "admin")
	entry := map[string]any{
		"credentials": map[string]any{
			"certificate": string(certPEM),
			"privateKey":  string(keyPEM),
		},
		"mspId":   "LawyersOrgMSP",
		"type":    "X.509",
		"version": 1,
	}
	data, err := json.Marshal(entry)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(f.wallet, "LawyersOrg", "admin.id"), data, 0o600))

	return f
}

func writeLawyersProfile(t *testing.T, dir, url string, caPEM []byte) {
	t.Helper()
	profile := map[string]any{
		"name": "lawyers-network",
		"organizations": map[string]any{
			"LawyersOrg": map[string]any{
				"mspid": "LawyersOrgMSP",
				"peers": []string{"peer0.lawyers.example.com"},
			},
		},
		"peers": map[string]any{
			"peer0.lawyers.example.com": map[string]any{
				"url":        url,
				"tlsCACerts": map[string]any{"pem": string(caPEM)},
				"grpcOptions": map[string]any{
					"ssl-target-name-override": "peer0.lawyers.example.com",
				},
			},
		},
	}
	data, err := json.Marshal(profile)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "connection-LawyersOrg.json"), data, 0o600))
}

func TestLoadProfile_JSON(t *testing.T) {
	f := newFixture(t)

	p, path, err := LoadProfile(f.profiles, "LawyersOrg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.profiles, "connection-LawyersOrg.json"), path)

	ep, err := p.Endpoint("LawyersOrg", path)
	require.NoError(t, err)
	assert.Equal(t, "LawyersOrgMSP", ep.MSPID)
	assert.Equal(t, "localhost:7051", ep.Address)
	assert.Equal(t, "peer0.lawyers.example.com", ep.ServerName)
	assert.Contains(t, string(ep.TLSCACert), "BEGIN CERTIFICATE")
}

func TestLoadProfile_YAMLWithCAPath(t *testing.T) {
	dir := t.TempDir()
	caPEM, _ := selfSigned(t, "peer0.judges.example.com")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "judges-ca.pem"), caPEM, 0o600))

	yml := `
name: judges-network
organizations:
  JudgesOrg:
    mspid: JudgesOrgMSP
peers:
  peer0.judges.example.com:
    url: grpcs://judges-peer:9051
    tlsCACerts:
      path: judges-ca.pem
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "connection-JudgesOrg.yaml"), []byte(yml), 0o600))

	p, path, err := LoadProfile(dir, "JudgesOrg")
	require.NoError(t, err)

	ep, err := p.Endpoint("JudgesOrg", path)
	require.NoError(t, err)
	assert.Equal(t, "judges-peer:9051", ep.Address)
	assert.Equal(t, "peer0.judges.example.com", ep.ServerName)
	assert.Equal(t, caPEM, ep.TLSCACert)
}

func TestLoadProfile_Missing(t *testing.T) {
	_, _, err := LoadProfile(t.TempDir(), "RegistrarOrg")
	assert.ErrorIs(t, err, ports.ErrConfigNotFound)
	assert.Contains(t, err.Error(), "connection-RegistrarOrg.json")
}

func TestProfileEndpoint_UnknownOrganization(t *testing.T) {
	f := newFixture(t)
	p, path, err := LoadProfile(f.profiles, "LawyersOrg")
	require.NoError(t, err)

	_, err = p.Endpoint("JudgesOrg", path)
	assert.ErrorIs(t, err, ports.ErrConfigNotFound)
}

func TestLoadIdentity(t *testing.T) {
	f := newFixture(t)

	creds, err := LoadIdentity(f.wallet, "LawyersOrg", "admin", "")
	require.NoError(t, err)
	assert.Equal(t, "LawyersOrgMSP", creds.ID.MspID())
	assert.NotNil(t, creds.Sign)

	_, err = LoadIdentity(f.wallet, "LawyersOrg", "appUser", "")
	assert.ErrorIs(t, err, ports.ErrIdentityNotFound)
}

func TestLoadIdentity_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "JudgesOrg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "JudgesOrg", "admin.id"), []byte("{not json"), 0o600))

	_, err := LoadIdentity(dir, "JudgesOrg", "admin", "JudgesOrgMSP")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrIdentityNotFound)
}

func TestNewConnector_RequiresDirs(t *testing.T) {
	_, err := NewConnector(Config{WalletDir: "w"})
	assert.Error(t, err)
	_, err = NewConnector(Config{ProfilesDir: "p"})
	assert.Error(t, err)
}

func TestConnector_Connect(t *testing.T) {
	f := newFixture(t)
	c, err := NewConnector(Config{
		ProfilesDir:     f.profiles,
		WalletDir:       f.wallet,
		EvaluateTimeout: time.Second,
		SubmitTimeout:   time.Second,
	})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()

	t.Run("missing profile", func(t *testing.T) {
		h, err := c.Connect(ctx, ports.Target{Org: "JudgesOrg", User: "admin", Channel: "judgeschannel", Contract: "records"})
		assert.ErrorIs(t, err, ports.ErrConfigNotFound)
		assert.Nil(t, h)
	})

	t.Run("missing identity", func(t *testing.T) {
		h, err := c.Connect(ctx, ports.Target{Org: "LawyersOrg", User: "clerk", Channel: "lawyerschannel", Contract: "records"})
		assert.ErrorIs(t, err, ports.ErrIdentityNotFound)
		assert.Nil(t, h)
	})

	t.Run("session closes once", func(t *testing.T) {
		// The gRPC client dials lazily, so no peer is needed to open and
		// close a session.
		h, err := c.Connect(ctx, ports.Target{Org: "LawyersOrg", User: "admin", Channel: "lawyerschannel", Contract: "records"})
		require.NoError(t, err)
		require.NotNil(t, h)

		assert.NoError(t, ports.Disconnect(h))
		assert.NoError(t, ports.Disconnect(h))

		_, err = h.Evaluate(ctx, "ReadRecord", "CASE-1")
		assert.ErrorIs(t, err, ports.ErrHandleClosed)
		_, err = h.Submit(ctx, "CreateRecord", "CASE-1", "v")
		assert.ErrorIs(t, err, ports.ErrHandleClosed)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := c.Connect(cctx, ports.Target{Org: "LawyersOrg", User: "admin", Channel: "lawyerschannel", Contract: "records"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestConnector_CachesProfiles(t *testing.T) {
	f := newFixture(t)
	c, err := NewConnector(Config{ProfilesDir: f.profiles, WalletDir: f.wallet})
	require.NoError(t, err)

	first, err := c.endpoint("LawyersOrg")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(f.profiles, "connection-LawyersOrg.json")))

	second, err := c.endpoint("LawyersOrg")
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, c.Close())
	_, err = c.endpoint("LawyersOrg")
	assert.ErrorIs(t, err, ports.ErrConfigNotFound)
}

// rejectingGateway answers every endorse and evaluate with st.
type rejectingGateway struct {
	gateway.UnimplementedGatewayServer
	st *status.Status
}

func (g *rejectingGateway) Endorse(context.Context, *gateway.EndorseRequest) (*gateway.EndorseResponse, error) {
	return nil, g.st.Err()
}

func (g *rejectingGateway) Evaluate(context.Context, *gateway.EvaluateRequest) (*gateway.EvaluateResponse, error) {
	return nil, g.st.Err()
}

// startGateway serves gw over TLS on a loopback port and returns its
// grpcs:// URL and CA certificate.
func startGateway(t *testing.T, gw gateway.GatewayServer) (string, []byte) {
	t.Helper()

	certPEM, keyPEM := selfSigned(t, "peer0.lawyers.example.com")
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer(grpc.Creds(credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})))
	gateway.RegisterGatewayServer(srv, gw)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return "grpcs://" + lis.Addr().String(), certPEM
}

func TestHandle_ReportsChaincodeMessage(t *testing.T) {
	st, err := status.New(codes.Aborted, "failed to endorse transaction, see attached details for more info").
		WithDetails(&gateway.ErrorDetail{
			Address: "peer0.lawyers.example.com:7051",
			MspId:   "LawyersOrgMSP",
			Message: "chaincode response 500, record already exists: 1001",
		})
	require.NoError(t, err)

	url, caPEM := startGateway(t, &rejectingGateway{st: st})
	f := newFixture(t)
	writeLawyersProfile(t, f.profiles, url, caPEM)

	c, err := NewConnector(Config{
		ProfilesDir:     f.profiles,
		WalletDir:       f.wallet,
		EvaluateTimeout: 5 * time.Second,
		SubmitTimeout:   5 * time.Second,
	})
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	h, err := c.Connect(ctx, ports.Target{Org: "LawyersOrg", User: "admin", Channel: "lawyerschannel", Contract: "records"})
	require.NoError(t, err)
	defer ports.Disconnect(h)

	_, err = h.Submit(ctx, "CreateRecord", "1001", "v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record already exists: 1001")
	assert.Equal(t, codes.Aborted, status.Code(err))

	_, err = h.Evaluate(ctx, "ReadRecord", "1001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record already exists: 1001")
}

func TestLedgerError(t *testing.T) {
	assert.NoError(t, ledgerError(nil))

	plain := errors.New("connection refused")
	assert.Same(t, plain, ledgerError(plain))

	st, err := status.New(codes.Unavailable, "no peers available").
		WithDetails(
			&gateway.ErrorDetail{Message: "record does not exist: 7"},
			&gateway.ErrorDetail{},
			&gateway.ErrorDetail{Message: "peer1 unreachable"},
		)
	require.NoError(t, err)

	got := ledgerError(st.Err())
	assert.Contains(t, got.Error(), "no peers available")
	assert.Contains(t, got.Error(), "record does not exist: 7; peer1 unreachable")
	assert.Equal(t, codes.Unavailable, status.Code(got))
}

package fabric

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperledger/fabric-gateway/pkg/identity"
	"github.com/sufield/evault/internal/ports"
)

// walletEntry mirrors the X.509 identity files written by the Fabric SDK
// file-system wallets.
type walletEntry struct {
	Credentials struct {
		Certificate string `json:"certificate"`
		PrivateKey  string `json:"privateKey"`
	} `json:"credentials"`
	MSPID   string `json:"mspId"`
	Type    string `json:"type"`
	Version int    `json:"version"`
}

// Credentials is an enrolled identity ready for the gateway client.
type Credentials struct {
	ID   *identity.X509Identity
	Sign identity.Sign
}

func walletPath(dir, org, user string) string {
	return filepath.Join(dir, org, user+".id")
}

// LoadIdentity reads <dir>/<org>/<user>.id. A missing entry is reported as
// ports.ErrIdentityNotFound. mspID is used when the entry does not carry one.
func LoadIdentity(dir, org, user, mspID string) (*Credentials, error) {
	path := walletPath(dir, org, user)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", ports.ErrIdentityNotFound, org, user)
		}
		return nil, fmt.Errorf("read wallet entry %s: %w", path, err)
	}

	var entry walletEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parse wallet entry %s: %w", path, err)
	}
	if entry.Type != "" && entry.Type != "X.509" {
		return nil, fmt.Errorf("wallet entry %s: unsupported identity type %q", path, entry.Type)
	}
	if entry.MSPID != "" {
		mspID = entry.MSPID
	}

	cert, err := identity.CertificateFromPEM([]byte(entry.Credentials.Certificate))
	if err != nil {
		return nil, fmt.Errorf("wallet entry %s: certificate: %w", path, err)
	}
	id, err := identity.NewX509Identity(mspID, cert)
	if err != nil {
		return nil, fmt.Errorf("wallet entry %s: %w", path, err)
	}

	key, err := identity.PrivateKeyFromPEM([]byte(entry.Credentials.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("wallet entry %s: private key: %w", path, err)
	}
	sign, err := identity.NewPrivateKeySign(key)
	if err != nil {
		return nil, fmt.Errorf("wallet entry %s: signer: %w", path, err)
	}

	return &Credentials{ID: id, Sign: sign}, nil
}

package fabric

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/sufield/evault/internal/ports"
	"gopkg.in/yaml.v3"
)

// Profile is the subset of a Fabric common connection profile the gateway
// client needs. JSON profiles parse through the YAML decoder unchanged.
type Profile struct {
	Name          string                  `yaml:"name"`
	Organizations map[string]Organization `yaml:"organizations"`
	Peers         map[string]Peer         `yaml:"peers"`
}

type Organization struct {
	MSPID string   `yaml:"mspid"`
	Peers []string `yaml:"peers"`
}

type Peer struct {
	URL         string            `yaml:"url"`
	TLSCACerts  PEMSource         `yaml:"tlsCACerts"`
	GRPCOptions map[string]string `yaml:"grpcOptions"`
}

// PEMSource holds either inline PEM or a path to a PEM file.
type PEMSource struct {
	PEM  string `yaml:"pem"`
	Path string `yaml:"path"`
}

// Endpoint is a resolved gateway peer for one organization.
type Endpoint struct {
	MSPID      string
	Address    string
	ServerName string
	TLSCACert  []byte
}

// profileCandidates lists the file names tried for org, in order.
func profileCandidates(dir, org string) []string {
	base := "connection-" + org
	return []string{
		filepath.Join(dir, base+".json"),
		filepath.Join(dir, base+".yaml"),
		filepath.Join(dir, base+".yml"),
	}
}

// LoadProfile reads the connection profile for org from dir.
// A missing profile is reported as ports.ErrConfigNotFound.
func LoadProfile(dir, org string) (*Profile, string, error) {
	for _, path := range profileCandidates(dir, org) {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, "", fmt.Errorf("read connection profile %s: %w", path, err)
		}

		var p Profile
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, "", fmt.Errorf("parse connection profile %s: %w", path, err)
		}
		return &p, path, nil
	}
	return nil, "", fmt.Errorf("%w: %s", ports.ErrConfigNotFound, filepath.Join(dir, "connection-"+org+".json"))
}

// Endpoint picks the first peer (by name) the organization lists and
// returns its dialable address and TLS material. Relative tlsCACerts paths
// are resolved against the profile's directory.
func (p *Profile) Endpoint(org, profilePath string) (*Endpoint, error) {
	o, ok := p.Organizations[org]
	if !ok {
		return nil, fmt.Errorf("%w: organization %q not in profile %s", ports.ErrConfigNotFound, org, profilePath)
	}
	if o.MSPID == "" {
		return nil, fmt.Errorf("organization %q in %s has no mspid", org, profilePath)
	}

	names := append([]string(nil), o.Peers...)
	if len(names) == 0 {
		for name := range p.Peers {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	for _, name := range names {
		peer, ok := p.Peers[name]
		if !ok || peer.URL == "" {
			continue
		}

		addr, err := peerAddress(peer.URL)
		if err != nil {
			return nil, fmt.Errorf("peer %s: %w", name, err)
		}

		ca, err := peer.TLSCACerts.load(filepath.Dir(profilePath))
		if err != nil {
			return nil, fmt.Errorf("peer %s tlsCACerts: %w", name, err)
		}

		serverName := peer.GRPCOptions["ssl-target-name-override"]
		if serverName == "" {
			serverName = name
		}

		return &Endpoint{
			MSPID:      o.MSPID,
			Address:    addr,
			ServerName: serverName,
			TLSCACert:  ca,
		}, nil
	}
	return nil, fmt.Errorf("organization %q in %s has no usable peer", org, profilePath)
}

func peerAddress(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid url %q: missing host", raw)
	}
	return u.Host, nil
}

func (s PEMSource) load(baseDir string) ([]byte, error) {
	if s.PEM != "" {
		return []byte(s.PEM), nil
	}
	if s.Path == "" {
		return nil, errors.New("neither pem nor path set")
	}
	path := s.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	return os.ReadFile(path)
}

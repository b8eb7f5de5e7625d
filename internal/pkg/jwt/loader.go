// internal/pkg/jwt/loader.go
package jwt

import (
	"errors"
	"fmt"
	"time"
)

var ErrKeyMismatch = errors.New("public key does not belong to private key")

type Config struct {
	PrivPath string
	PubPath  string // optional; derived from the private key when empty
	Issuer   string
	Audience string
	TTL      time.Duration
	KID      string // optional; a key fingerprint when empty
}

type Manager struct {
	Generator *Generator
	Verifier  *Verifier
	KeyID     string
}

// LoadAndBuild reads the signing key, checks the public half matches it and
// wires a generator and verifier sharing one key id.
func LoadAndBuild(cfg Config) (*Manager, error) {
	priv, err := readPrivateKey(cfg.PrivPath)
	if err != nil {
		return nil, err
	}

	pub := &priv.PublicKey
	if cfg.PubPath != "" {
		if pub, err = readPublicKey(cfg.PubPath); err != nil {
			return nil, err
		}
		if !priv.PublicKey.Equal(pub) {
			return nil, fmt.Errorf("%s: %w", cfg.PubPath, ErrKeyMismatch)
		}
	}

	kid := cfg.KID
	if kid == "" {
		if kid, err = keyID(pub); err != nil {
			return nil, err
		}
	}

	return &Manager{
		Generator: NewGenerator(priv, cfg.Issuer, cfg.Audience, kid, cfg.TTL),
		Verifier:  NewVerifier(pub, cfg.Issuer, cfg.Audience),
		KeyID:     kid,
	}, nil
}

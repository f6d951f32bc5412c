// Package keys supplies the symmetric key used to encrypt claim documents.
package keys

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/claimflow/internal/cryptox"
	"github.com/dmitrijs2005/claimflow/internal/server/config"
)

var ErrNoKeyMaterial = errors.New("no encryption key material configured")

// Provider hands out the document encryption key.
type Provider interface {
	Key() []byte
}

// StaticProvider holds a fixed key for the lifetime of the process.
type StaticProvider struct {
	key []byte
}

// NewStaticProvider wraps an already-derived key. The key must be exactly
// cryptox.KeySize bytes.
func NewStaticProvider(key []byte) (*StaticProvider, error) {
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", cryptox.KeySize, len(key))
	}
	return &StaticProvider{key: key}, nil
}

func (p *StaticProvider) Key() []byte {
	return p.key
}

// FromConfig builds a key provider from server configuration. An explicit
// hex key takes precedence; otherwise the key is derived from the
// passphrase and salt with argon2id.
func FromConfig(cfg *config.Config) (Provider, error) {
	if cfg.EncryptionKeyHex != "" {
		key, err := hex.DecodeString(cfg.EncryptionKeyHex)
		if err != nil {
			return nil, fmt.Errorf("decoding encryption key: %w", err)
		}
		return NewStaticProvider(key)
	}
	if cfg.EncryptionPassphrase != "" && cfg.EncryptionKeySalt != "" {
		key := cryptox.DeriveKey([]byte(cfg.EncryptionPassphrase), []byte(cfg.EncryptionKeySalt))
		return NewStaticProvider(key)
	}
	return nil, ErrNoKeyMaterial
}

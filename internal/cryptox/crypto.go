// Package cryptox implements the symmetric sealing used for documents at
// rest (AES-256-GCM) and key derivation from an operator passphrase.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/dmitrijs2005/claimflow/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// DeriveKey stretches an operator passphrase into a KeySize key using
// argon2id. The same passphrase and salt always produce the same key.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}

// Seal encrypts plaintext with AES-GCM under key and returns a
// self-contained blob: a fresh random nonce followed by the ciphertext.
// The key must be KeySize bytes.
func Seal(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())

	// blob layout: nonce || ciphertext
	blob := make([]byte, 0, len(nonce)+len(plaintext)+aesgcm.Overhead())
	blob = append(blob, nonce...)
	blob = append(blob, aesgcm.Seal(nil, nonce, plaintext, nil)...)

	return blob, nil
}

// Open reverses Seal exactly. A blob that is too short or fails the GCM
// integrity check yields ErrCorruptBlob.
func Open(blob, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(blob) < aesgcm.NonceSize() {
		return nil, common.ErrCorruptBlob
	}

	nonce, ciphertext := blob[:aesgcm.NonceSize()], blob[aesgcm.NonceSize():]

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrCorruptBlob
	}

	return plaintext, nil
}

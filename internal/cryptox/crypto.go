// Package cryptox holds the client-side key derivation and field sealing.
// The server only ever sees the digest and the sealed fields.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"github.com/dmitrijs2005/pmcloud/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of the auth and KDF salts generated at registration.
const SaltSize = 16

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// MakeVerifier hashes a derived key into the digest the server stores and
// compares.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// DeriveMasterKey stretches password with argon2id into a 32-byte key.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	x := argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
	return x
}

// PasswordDigest is MakeVerifier(DeriveMasterKey(password, authSalt)).
func PasswordDigest(password, authSalt []byte) []byte {
	key := DeriveMasterKey(password, authSalt)
	defer common.WipeByteArray(key)
	return MakeVerifier(key)
}

// Seal encrypts plaintext with AES-GCM under key. The random nonce is
// prepended to the returned ciphertext.
func Seal(plaintext, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return aesgcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal.
func Open(sealed, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	n := aesgcm.NonceSize()
	if len(sealed) < n+aesgcm.Overhead() {
		return nil, ErrCiphertextTooShort
	}

	return aesgcm.Open(nil, sealed[:n], sealed[n:], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/hooterhq/hooter-backend/pkg/config"
)

const (
	keyLen     = 32
	iterations = 100_000
)

// keySalt pins the KDF so previously written ciphertexts stay readable.
// Rotating it requires re-encrypting every stored token.
var keySalt = []byte("hooter.store.tokens.v1")

// ErrInvalidCiphertext signals a malformed or tampered ciphertext string.
var ErrInvalidCiphertext = fmt.Errorf("invalid ciphertext")

// Vault seals and opens store access tokens with AES-256-GCM. The data key is
// derived from the configured secret via PBKDF2-SHA256.
type Vault struct {
	aead cipher.AEAD
}

// New derives the data key and prepares the AEAD cipher.
func New(cfg config.VaultConfig) (*Vault, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("vault secret key is required")
	}

	key := pbkdf2.Key([]byte(cfg.SecretKey), keySalt, iterations, keyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Vault{aead: aead}, nil
}

// Seal encrypts plaintext and returns a base64 string safe for column storage.
func (v *Vault) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("plaintext cannot be empty")
	}

	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a string produced by Seal.
func (v *Vault) Open(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(raw) < v.aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}

	nonce, ciphertext := raw[:v.aead.NonceSize()], raw[v.aead.NonceSize():]
	plaintext, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plaintext), nil
}

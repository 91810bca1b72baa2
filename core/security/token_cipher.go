package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	encryptedPrefix = "enc:v1:"

	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4
)

// keySalt is fixed so that a restarted process derives the same key.
var keySalt = []byte("meeting-sync/oauth-tokens")

// TokenCipher encrypts OAuth tokens before they are persisted.
// A cipher built from an empty passphrase stores values as-is.
type TokenCipher struct {
	gcm cipher.AEAD
}

func NewTokenCipher(passphrase string) (*TokenCipher, error) {
	if passphrase == "" {
		return &TokenCipher{}, nil
	}

	key := argon2.IDKey([]byte(passphrase), keySalt, argonTime, argonMem, argonPar, keySize)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return &TokenCipher{gcm: gcm}, nil
}

func (c *TokenCipher) Enabled() bool {
	return c != nil && c.gcm != nil
}

// Encrypt returns prefix + base64(nonce || ciphertext). Empty input stays empty.
func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	if !c.Enabled() || plaintext == "" {
		return plaintext, nil
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return encryptedPrefix + base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Values written before encryption was enabled
// carry no prefix and are returned unchanged.
func (c *TokenCipher) Decrypt(value string) (string, error) {
	if !strings.HasPrefix(value, encryptedPrefix) {
		return value, nil
	}
	if !c.Enabled() {
		return "", fmt.Errorf("token is encrypted but no encryption key is configured")
	}

	data, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(value, encryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if len(data) < nonceSize {
		return "", fmt.Errorf("encrypted token too small")
	}

	plaintext, err := c.gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Sealer mengenkripsi nilai rahasia (misalnya session token) sebelum disimpan.
// Key apa pun panjangnya diturunkan menjadi 32 byte dengan SHA-256.
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(key string) (*Sealer, error) {
	sum := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal mengenkripsi data. Nonce acak disisipkan di depan ciphertext.
func (s *Sealer) Seal(data string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	out := s.aead.Seal(nonce, nonce, []byte(data), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open mendekripsi hasil Seal.
func (s *Sealer) Open(data string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	ns := s.aead.NonceSize()
	if len(raw) < ns {
		return "", ErrCiphertextTooShort
	}
	plain, err := s.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("open ciphertext: %w", err)
	}
	return string(plain), nil
}

// Matches membandingkan nilai tersimpan dengan kandidat dalam waktu konstan.
// Ciphertext yang rusak dianggap tidak cocok.
func (s *Sealer) Matches(sealed, candidate string) bool {
	plain, err := s.Open(sealed)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(plain), []byte(candidate)) == 1
}

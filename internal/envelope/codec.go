package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Separator joins the three hex segments of an envelope.
const Separator = ":"

var (
	// ErrMalformed indicates envelope text that does not consist of three
	// hex-encoded segments of plausible length.
	ErrMalformed = errors.New("malformed envelope")

	// ErrAuthentication indicates that tag verification failed: the envelope
	// was corrupted or tampered with, or was sealed under a different key
	// (typically a vault file copied from another machine or user).
	ErrAuthentication = errors.New("envelope authentication failed")
)

// Codec performs authenticated encryption of vault payloads under a fixed key.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec creates a Codec for the given key. The key must be KeySize bytes.
func NewCodec(key []byte) (*Codec, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce and encodes the result
// as hex(nonce):hex(tag):hex(ciphertext). A new nonce is drawn for every
// call; nonces are never reused under a given key.
func (c *Codec) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	// Seal appends the authentication tag to the ciphertext
	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - c.aead.Overhead()
	ciphertext, tag := sealed[:split], sealed[split:]

	segments := []string{
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}
	return strings.Join(segments, Separator), nil
}

// Decrypt parses and opens an envelope. Parse failures return errors
// wrapping ErrMalformed; tag verification failures return errors wrapping
// ErrAuthentication. Decrypt fails closed and never returns partial or
// unverified plaintext.
func (c *Codec) Decrypt(envelope string) ([]byte, error) {
	segments := strings.Split(envelope, Separator)
	if len(segments) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(segments))
	}

	nonce, err := hex.DecodeString(segments[0])
	if err != nil {
		return nil, fmt.Errorf("%w: nonce segment is not hex", ErrMalformed)
	}
	if len(nonce) != c.aead.NonceSize() {
		return nil, fmt.Errorf("%w: nonce is %d bytes, expected %d", ErrMalformed, len(nonce), c.aead.NonceSize())
	}

	tag, err := hex.DecodeString(segments[1])
	if err != nil {
		return nil, fmt.Errorf("%w: tag segment is not hex", ErrMalformed)
	}
	if len(tag) != c.aead.Overhead() {
		return nil, fmt.Errorf("%w: tag is %d bytes, expected %d", ErrMalformed, len(tag), c.aead.Overhead())
	}

	ciphertext, err := hex.DecodeString(segments[2])
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext segment is not hex", ErrMalformed)
	}

	plaintext, err := c.aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

// Package secrets encrypts per-user Gemini API keys at rest with AES-256-CBC.
// The stored form is "ivhex:cipherhex" so each blob carries its own IV.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const ivLength = 16

// ErrDecrypt reports that a stored blob could not be decrypted: corrupted
// ciphertext, a malformed blob, or the wrong server key. Callers must treat
// the stored key as unusable rather than use partial output.
var ErrDecrypt = errors.New("secrets: decryption failed")

// Cipher performs symmetric encryption of a single secret string under a
// server-wide 32-byte key. It is stateless and safe for concurrent use.
type Cipher struct {
	block cipher.Block
}

// New builds a Cipher from a 32-byte key. Key length is checked here, once,
// so callers never pay a per-operation check.
func New(key []byte) (*Cipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("secrets: key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &Cipher{block: block}, nil
}

// Encrypt encrypts plaintext under a fresh random 16-byte IV and returns
// hex(iv) + ":" + hex(ciphertext). Two calls with the same input produce
// different blobs.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}
	padded := pad([]byte(plaintext), aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(ct, padded)
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ct), nil
}

// Decrypt reverses Encrypt. Any malformed blob, non-block-aligned ciphertext,
// or failed padding check yields ErrDecrypt.
func (c *Cipher) Decrypt(blob string) (string, error) {
	ivHex, ctHex, found := strings.Cut(blob, ":")
	if !found {
		return "", ErrDecrypt
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != ivLength {
		return "", ErrDecrypt
	}
	ct, err := hex.DecodeString(ctHex)
	if err != nil || len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", ErrDecrypt
	}
	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(pt, ct)
	unpadded, ok := unpad(pt, aes.BlockSize)
	if !ok {
		return "", ErrDecrypt
	}
	return string(unpadded), nil
}

// pad applies PKCS#7 padding.
func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	out := make([]byte, len(b)+n)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

// unpad strips PKCS#7 padding, rejecting any inconsistent tail.
func unpad(b []byte, size int) ([]byte, bool) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, false
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}

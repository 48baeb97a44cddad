// Package crypt opens and produces password-gated post content in the
// passphrase format CryptoJS.AES uses: base64 of "Salted__", an 8 byte
// salt and AES-256-CBC ciphertext, with key and IV derived by OpenSSL's
// EVP_BytesToKey over MD5.
package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	saltHeader = "Salted__"
	saltSize   = 8
	keySize    = 32
)

// ErrMalformed is returned for ciphertext that is not in the salted
// passphrase format, or that does not decrypt to padded UTF-8.
var ErrMalformed = errors.New("malformed ciphertext")

// Result is the outcome of opening gated content. Plaintext is empty
// unless Valid.
type Result struct {
	Valid     bool
	Plaintext string
}

// Options tune Decrypt.
type Options struct {
	// Sanitize passes valid plaintext through bluemonday's UGC policy
	// before it is returned.
	Sanitize bool
}

// Decrypt opens ciphertext with passphrase. The result is valid only
// when decryption succeeds and the SHA-256 hex digest of the plaintext
// equals shasum exactly (lowercase hex, no surrounding space). Every
// failure yields an invalid result.
func Decrypt(ciphertext, passphrase, shasum string, opts ...Options) Result {
	plain, err := Open(ciphertext, passphrase)
	if err != nil || Digest(plain) != shasum {
		return Result{}
	}
	for _, o := range opts {
		if o.Sanitize {
			plain = bluemonday.UGCPolicy().Sanitize(plain)
		}
	}
	return Result{Valid: true, Plaintext: plain}
}

// Open decrypts ciphertext without checking a digest.
func Open(ciphertext, passphrase string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw) < len(saltHeader)+saltSize+aes.BlockSize || !bytes.HasPrefix(raw, []byte(saltHeader)) {
		return "", fmt.Errorf("%w: missing salt header", ErrMalformed)
	}
	salt := raw[len(saltHeader) : len(saltHeader)+saltSize]
	body := raw[len(saltHeader)+saltSize:]
	if len(body)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext is not a whole number of blocks", ErrMalformed)
	}

	key, iv := deriveKey([]byte(passphrase), salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	out := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, body)

	out, err = unpad(out)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(out) {
		return "", fmt.Errorf("%w: plaintext is not UTF-8", ErrMalformed)
	}
	return string(out), nil
}

// Encrypt seals plaintext under passphrase with a random salt and
// returns the ciphertext with the digest Decrypt expects.
func Encrypt(plaintext, passphrase string) (ciphertext, shasum string, err error) {
	return encrypt(rand.Reader, plaintext, passphrase)
}

func encrypt(r io.Reader, plaintext, passphrase string) (string, string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(r, salt); err != nil {
		return "", "", fmt.Errorf("reading salt: %w", err)
	}
	key, iv := deriveKey([]byte(passphrase), salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", "", err
	}
	body := pad([]byte(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(body, body)

	raw := make([]byte, 0, len(saltHeader)+saltSize+len(body))
	raw = append(raw, saltHeader...)
	raw = append(raw, salt...)
	raw = append(raw, body...)
	return base64.StdEncoding.EncodeToString(raw), Digest(plaintext), nil
}

// Digest is the lowercase hex SHA-256 of s.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// deriveKey is EVP_BytesToKey with MD5 and a single iteration.
func deriveKey(passphrase, salt []byte) (key, iv []byte) {
	var derived, prev []byte
	for len(derived) < keySize+aes.BlockSize {
		h := md5.New()
		h.Write(prev)
		h.Write(passphrase)
		h.Write(salt)
		prev = h.Sum(nil)
		derived = append(derived, prev...)
	}
	return derived[:keySize], derived[keySize : keySize+aes.BlockSize]
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrMalformed)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", ErrMalformed)
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrMalformed)
		}
	}
	return b[:len(b)-n], nil
}

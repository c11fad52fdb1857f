// Package saltcipher implements the length-obscuring symmetric cipher that
// protects every secret in the vault.
//
// A message is salted before encryption: bytes from its dummy alphabet (the
// printable ASCII bytes absent from the message) are inserted at random
// positions until the buffer reaches MinLength, then Marker and the dummy
// alphabet itself are appended. Decryption strips every dummy byte again, so
// no length field is stored.
package saltcipher

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/ericfisherdev/pwvault/internal/domain/port/driven"
)

const (
	// MinLength is the minimum size of the salted plaintext buffer.
	MinLength = 1024

	// KeyLength is the derived AES-256 key size.
	KeyLength = 32

	// Marker separates the salted message from its dummy alphabet.
	Marker = "~~~"

	dummyFirst = 33
	dummyLast  = 126
)

// Compile-time interface satisfaction check.
var _ driven.SecretCipher = (*Cipher)(nil)

// Mode selects the AES mode of operation.
type Mode int

// Supported modes. Both run with a fixed all-zero nonce or IV.
const (
	ModeGCM Mode = iota + 1
	ModeCTR
)

func (m Mode) String() string {
	switch m {
	case ModeGCM:
		return "GCM"
	case ModeCTR:
		return "CTR"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name such as "GCM" or "ctr" into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GCM":
		return ModeGCM, nil
	case "CTR":
		return ModeCTR, nil
	default:
		return 0, fmt.Errorf("unknown cipher mode %q", s)
	}
}

// Cipher seals and opens secrets under a key derived from a passphrase.
// It is immutable after New and safe for concurrent use.
type Cipher struct {
	passphrase string
	mode       Mode
	block      cipher.Block
	aead       cipher.AEAD // nil unless mode is ModeGCM
	iv         []byte
}

// New derives the key from passphrase and prepares the block cipher for mode.
// The passphrase must not be empty.
func New(passphrase string, mode Mode) (*Cipher, error) {
	if passphrase == "" {
		return nil, errors.New("empty passphrase")
	}

	block, err := aes.NewCipher(DeriveKey(passphrase))
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}

	c := &Cipher{passphrase: passphrase, mode: mode, block: block}
	switch mode {
	case ModeGCM:
		c.aead, err = cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("cipher.NewGCM: %w", err)
		}
		c.iv = make([]byte, c.aead.NonceSize())
	case ModeCTR:
		c.iv = make([]byte, block.BlockSize())
	default:
		return nil, fmt.Errorf("unsupported cipher mode %s", mode)
	}
	return c, nil
}

// DeriveKey repeats the passphrase bytes until KeyLength bytes are available
// and truncates to exactly KeyLength. Identical passphrases always derive
// identical keys.
func DeriveKey(passphrase string) []byte {
	key := []byte(passphrase)
	if len(key) == 0 {
		return make([]byte, KeyLength)
	}
	for len(key) < KeyLength {
		key = append(key, key...)
	}
	return key[:KeyLength]
}

// Encrypt salts message and encrypts the resulting buffer.
func (c *Cipher) Encrypt(message string) ([]byte, error) {
	buf := salt([]byte(message))

	switch c.mode {
	case ModeGCM:
		return c.aead.Seal(nil, c.iv, buf, nil), nil
	default:
		out := make([]byte, len(buf))
		cipher.NewCTR(c.block, c.iv).XORKeyStream(out, buf)
		return out, nil
	}
}

// Decrypt recovers the message sealed by Encrypt. It returns an error
// wrapping driven.ErrCrypto when the ciphertext was produced under another
// key, carries no marker, or does not decode to valid UTF-8.
func (c *Cipher) Decrypt(ciphertext []byte) (string, error) {
	var buf []byte
	switch c.mode {
	case ModeGCM:
		var err error
		buf, err = c.aead.Open(nil, c.iv, ciphertext, nil)
		if err != nil {
			return "", fmt.Errorf("%w: gcm.Open: %v", driven.ErrCrypto, err)
		}
	default:
		buf = make([]byte, len(ciphertext))
		cipher.NewCTR(c.block, c.iv).XORKeyStream(buf, ciphertext)
	}

	return unsalt(buf)
}

// SaveFile encrypts message and writes it to path with owner-only permissions.
func (c *Cipher) SaveFile(path, message string) error {
	data, err := c.Encrypt(message)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadFile reads path and decrypts its content.
func (c *Cipher) LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return c.Decrypt(data)
}

// String renders the mode and the cleartext passphrase. Diagnostic use only.
func (c *Cipher) String() string {
	return fmt.Sprintf("Cipher<mode=%s, key=%s>", c.mode, c.passphrase)
}

// dummyAlphabet returns the printable bytes that do not occur in msg, in
// ascending order. Marker bytes are never part of it, so padding cannot form
// or extend a Marker.
func dummyAlphabet(msg []byte) []byte {
	var seen [256]bool
	for _, b := range msg {
		seen[b] = true
	}
	for _, b := range []byte(Marker) {
		seen[b] = true
	}
	dummy := make([]byte, 0, dummyLast-dummyFirst+1)
	for b := dummyFirst; b <= dummyLast; b++ {
		if !seen[b] {
			dummy = append(dummy, byte(b))
		}
	}
	return dummy
}

// salt builds the plaintext buffer: msg interleaved with random dummy bytes,
// followed by Marker and the dummy alphabet. The result is at least
// MinLength bytes, with one exception: a message that uses every printable
// byte other than the Marker's has an empty alphabet and is left unpadded.
func salt(msg []byte) []byte {
	dummy := dummyAlphabet(msg)

	buf := make([]byte, len(msg), max(MinLength, len(msg)+len(Marker)+len(dummy)))
	copy(buf, msg)
	if len(dummy) > 0 {
		for len(buf)+len(Marker)+len(dummy) < MinLength {
			buf = slices.Insert(buf, rand.IntN(len(buf)+1), dummy[rand.IntN(len(dummy))])
		}
	}

	buf = append(buf, Marker...)
	return append(buf, dummy...)
}

// unsalt splits buf at the last Marker, then drops every byte of the salted
// message that belongs to the trailing dummy alphabet.
func unsalt(buf []byte) (string, error) {
	i := bytes.LastIndex(buf, []byte(Marker))
	if i < 0 {
		return "", fmt.Errorf("%w: marker not found", driven.ErrCrypto)
	}

	var dummy [256]bool
	for _, b := range buf[i+len(Marker):] {
		dummy[b] = true
	}

	salted := buf[:i]
	msg := make([]byte, 0, len(salted))
	for _, b := range salted {
		if !dummy[b] {
			msg = append(msg, b)
		}
	}

	if !utf8.Valid(msg) {
		return "", fmt.Errorf("%w: message is not valid UTF-8", driven.ErrCrypto)
	}
	return string(msg), nil
}

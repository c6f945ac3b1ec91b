// Package backup implements the password-protected export/import
// envelope for token entries.
//
// The envelope is a JSON document carrying the format version, the KDF
// parameters (salt, iterations), a 12-byte nonce, the AES-256-GCM
// ciphertext and its 16-byte authentication tag. The codec is
// side-effect free: it takes and returns entry collections and never
// touches the secret store. The encryption password is independent of
// the vault PIN.
package backup

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"otpvault/internal/token"
)

const (
	// Version is the envelope format version produced by Export.
	Version = 1

	// DefaultIterations is the PBKDF2 iteration count for new envelopes.
	DefaultIterations = 600_000
	// MinIterations is the floor for configured iteration counts.
	MinIterations = 200_000

	saltSize  = 16
	nonceSize = 12
	tagSize   = 16
	keySize   = 32
)

var (
	// ErrFormat is returned for a structurally invalid envelope or an
	// unknown version. It is detected before any decryption attempt.
	ErrFormat = errors.New("invalid backup format")
	// ErrIntegrity is returned when authenticated decryption fails:
	// wrong password, or a corrupted or tampered envelope. The two are
	// indistinguishable and no partial plaintext is ever exposed.
	ErrIntegrity = errors.New("backup decryption failed")
)

// KDFParams are the key-derivation inputs stored in the envelope.
type KDFParams struct {
	Salt       []byte `json:"salt"`
	Iterations int    `json:"iterations"`
}

// Envelope is the encrypted backup document. Immutable once produced.
type Envelope struct {
	Version    int       `json:"version"`
	KDF        KDFParams `json:"kdf"`
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
	Tag        []byte    `json:"tag"`
}

// Codec encrypts and decrypts backup envelopes.
type Codec struct {
	iterations int
}

// NewCodec returns a codec. Iteration counts below MinIterations are
// raised to DefaultIterations.
func NewCodec(iterations int) *Codec {
	if iterations < MinIterations {
		iterations = DefaultIterations
	}
	return &Codec{iterations: iterations}
}

// Export serializes entries and seals them under a key derived from
// password. Salt and nonce are fresh on every call, so two exports of
// the same entries never share ciphertext.
func (c *Codec) Export(password string, entries []token.Entry) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	plaintext, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("serializing entries: %w", err)
	}

	aead, err := newAEAD(password, salt, c.iterations)
	if err != nil {
		return nil, err
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	env := Envelope{
		Version:    Version,
		KDF:        KDFParams{Salt: salt, Iterations: c.iterations},
		Nonce:      nonce,
		Ciphertext: sealed[:len(sealed)-tagSize],
		Tag:        sealed[len(sealed)-tagSize:],
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("serializing envelope: %w", err)
	}
	return data, nil
}

// Import parses an envelope, derives the key from password and the
// stored KDF parameters, and opens the ciphertext. Structural problems
// fail with ErrFormat before any key derivation; authentication
// failures fail with ErrIntegrity.
func (c *Codec) Import(password string, data []byte) ([]token.Entry, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if err := validate(env); err != nil {
		return nil, err
	}

	aead, err := newAEAD(password, env.KDF.Salt, env.KDF.Iterations)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(env.Ciphertext)+len(env.Tag))
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.Tag...)

	plaintext, err := aead.Open(nil, env.Nonce, sealed, nil)
	if err != nil {
		return nil, ErrIntegrity
	}

	var entries []token.Entry
	if err := json.Unmarshal(plaintext, &entries); err != nil {
		return nil, fmt.Errorf("%w: undecodable payload", ErrFormat)
	}
	return entries, nil
}

func validate(env Envelope) error {
	switch {
	case env.Version != Version:
		return fmt.Errorf("%w: unknown version %d", ErrFormat, env.Version)
	case len(env.KDF.Salt) < saltSize:
		return fmt.Errorf("%w: salt too short", ErrFormat)
	case env.KDF.Iterations <= 0:
		return fmt.Errorf("%w: bad iteration count", ErrFormat)
	case len(env.Nonce) != nonceSize:
		return fmt.Errorf("%w: bad nonce length", ErrFormat)
	case len(env.Tag) != tagSize:
		return fmt.Errorf("%w: bad tag length", ErrFormat)
	case len(env.Ciphertext) == 0:
		return fmt.Errorf("%w: empty ciphertext", ErrFormat)
	}
	return nil
}

func newAEAD(password string, salt []byte, iterations int) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}
	return aead, nil
}

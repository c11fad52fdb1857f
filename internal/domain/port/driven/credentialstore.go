package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/pwvault/internal/domain/model"
)

// Sentinel errors returned by CredentialStore and SecretCipher implementations.
var (
	// ErrValidation indicates missing or blank required input, or an update
	// that would change nothing.
	ErrValidation = errors.New("invalid input")

	// ErrConflict indicates an explicit (name, site) pair is already taken.
	ErrConflict = errors.New("record already exists")

	// ErrNotFound indicates no record matches the given identity.
	ErrNotFound = errors.New("no record found")

	// ErrCrypto indicates a secret could not be recovered from its ciphertext,
	// either because it is corrupted or because it was sealed under another key.
	ErrCrypto = errors.New("cannot decrypt secret")
)

// CredentialStore defines the driven port for encrypted credential persistence.
// Implementations seal secrets through a SecretCipher before writing and only
// open them on Search when reveal is true. Each call runs as one transaction.
type CredentialStore interface {
	// Add inserts a new record and returns it with its assigned ID and the
	// name actually stored. Inputs are expected to be defaulted already;
	// explicit reports whether the caller supplied both name and site, in
	// which case a collision returns ErrConflict instead of renaming.
	Add(ctx context.Context, in model.AddInput, explicit bool) (model.Credential, error)

	// Delete removes exactly one record. Returns ErrNotFound if none matches.
	Delete(ctx context.Context, in model.DeleteInput) error

	// Update applies the non-blank fields of in. Returns ErrNotFound if the
	// record does not exist.
	Update(ctx context.Context, in model.UpdateInput) (model.Credential, error)

	// Search returns records matching every field of pattern, ordered by ID.
	// A zero pattern returns all records. Returns ErrCrypto when reveal is
	// true and a secret cannot be decrypted.
	Search(ctx context.Context, pattern model.Pattern, reveal bool) ([]model.Credential, error)
}

// SecretCipher seals and opens individual secrets.
type SecretCipher interface {
	Encrypt(message string) ([]byte, error)
	Decrypt(ciphertext []byte) (string, error)
}

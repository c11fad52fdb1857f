package model

import "time"

// Default identity labels applied when a caller leaves name or site unset.
const (
	DefaultName = "Guest"
	DefaultSite = "Default"
)

// Credential is one stored password entry. Name and Site form the identity
// pair, which is unique across the vault.
type Credential struct {
	ID       int64
	Created  time.Time
	Modified time.Time
	Name     string
	Site     string
	Desc     string

	// Sealed is the ciphertext of the secret exactly as persisted.
	Sealed []byte

	// Secret holds the decrypted secret. It is only populated when the
	// caller asked for secrets to be revealed.
	Secret   string
	Revealed bool
}

// Pattern restricts a search to records whose fields match every given
// regular expression. Empty fields are not constrained.
type Pattern struct {
	Name string
	Site string
	Desc string
}

// IsZero reports whether the pattern constrains nothing.
func (p Pattern) IsZero() bool {
	return p.Name == "" && p.Site == "" && p.Desc == ""
}

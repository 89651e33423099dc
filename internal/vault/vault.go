// Package vault encrypts attribute payloads at rest and derives their
// deterministic root hash. Blobs live in memory under a process-lifetime
// key, so vault contents do not survive a restart; re-stored attributes
// re-encrypt under the same ephemeral key. This key space is separate from
// the passphrase-derived snapshot key by design.
package vault

import (
	"context"
	"encoding/json"
	"sync"

	"livre/internal/crypto"
	"livre/internal/identity/models"
	"livre/pkg/platform/sentinel"
)

// StoredAttributes pairs the encrypted payload with its root hash so the
// root can be read without decrypting.
type StoredAttributes struct {
	Encrypted      crypto.EncryptedBlob
	AttributesRoot string
}

// AttributesRoot hashes the canonical JSON form of the payload. The
// canonical form is the struct's declaration order (birthdate, country),
// so the digest never depends on incidental map ordering.
func AttributesRoot(attrs models.AttributesPayload) string {
	canonical, _ := json.Marshal(attrs)
	return crypto.Hash(canonical)
}

// Vault stores encrypted attribute payloads keyed by identity id.
//
// Writes are last-write-wins: concurrent writers to the same identity can
// silently lose an update. Documented risk, accepted at this scale.
type Vault struct {
	mu     sync.RWMutex
	cipher *crypto.Cipher
	blobs  map[string]StoredAttributes
}

// New builds a Vault around the injected cipher; there is no ambient key.
func New(cipher *crypto.Cipher) *Vault {
	return &Vault{cipher: cipher, blobs: make(map[string]StoredAttributes)}
}

// StoreAttributes encrypts the payload, computes its root, and overwrites
// any previous blob for the identity.
func (v *Vault) StoreAttributes(_ context.Context, identityID string, attrs models.AttributesPayload) (StoredAttributes, error) {
	encrypted, err := v.cipher.EncryptJSON(attrs)
	if err != nil {
		return StoredAttributes{}, err
	}
	stored := StoredAttributes{Encrypted: encrypted, AttributesRoot: AttributesRoot(attrs)}

	v.mu.Lock()
	v.blobs[identityID] = stored
	v.mu.Unlock()
	return stored, nil
}

// GetAttributes decrypts and returns the payload, or sentinel.ErrNotFound
// if nothing was ever stored for the identity.
func (v *Vault) GetAttributes(_ context.Context, identityID string) (models.AttributesPayload, error) {
	v.mu.RLock()
	stored, ok := v.blobs[identityID]
	v.mu.RUnlock()
	if !ok {
		return models.AttributesPayload{}, sentinel.ErrNotFound
	}
	var attrs models.AttributesPayload
	if err := v.cipher.DecryptJSON(stored.Encrypted, &attrs); err != nil {
		return models.AttributesPayload{}, err
	}
	return attrs, nil
}

// GetAttributesRoot returns the last computed root without decrypting.
func (v *Vault) GetAttributesRoot(_ context.Context, identityID string) (string, error) {
	v.mu.RLock()
	stored, ok := v.blobs[identityID]
	v.mu.RUnlock()
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return stored.AttributesRoot, nil
}

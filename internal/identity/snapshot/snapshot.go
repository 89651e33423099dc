// Package snapshot persists the identity registry as a single encrypted
// file. The whole registry is rewritten on every mutation; acceptable at
// low record counts, and the first thing to revisit if this core is ever
// embedded in a higher-throughput service.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"livre/internal/crypto"
	"livre/internal/identity/models"
)

// Load outcomes are deliberately distinct so operators can tell a first run
// from data loss:
//   - ErrNoSnapshot: file absent, start empty.
//   - ErrCorrupt: file present but not a valid envelope or not valid JSON.
//   - ErrWrongPassphrase: envelope authentic-looking but failed
//     authentication (wrong passphrase or byte-level tamper).
var (
	ErrNoSnapshot      = errors.New("no snapshot file")
	ErrCorrupt         = errors.New("snapshot corrupt")
	ErrWrongPassphrase = errors.New("snapshot undecryptable")
)

// state is the plaintext layout inside the envelope.
type state struct {
	Identities []*models.IdentityRecord `json:"identities"`
}

// FileStore writes the registry to a passphrase-encrypted file.
type FileStore struct {
	path       string
	passphrase string
}

func NewFileStore(path, passphrase string) *FileStore {
	return &FileStore{path: path, passphrase: passphrase}
}

// Load reads and decrypts the snapshot. Callers must treat only
// ErrNoSnapshot as "start empty"; every other failure is surfaced so a
// wrong passphrase or corruption is never silently replaced by an empty
// registry.
func (s *FileStore) Load() ([]*models.IdentityRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoSnapshot
	}

	plaintext, err := crypto.OpenEnvelope(s.passphrase, data)
	if err != nil {
		if errors.Is(err, crypto.ErrEnvelopeMalformed) {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrWrongPassphrase, err)
	}

	var st state
	if err := json.Unmarshal(plaintext, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return st.Identities, nil
}

// Save encrypts and rewrites the whole registry. The write goes through a
// temp file and rename so a crash mid-write leaves the previous snapshot
// intact.
func (s *FileStore) Save(records []*models.IdentityRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	plaintext, err := json.Marshal(state{Identities: records})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	sealed, err := crypto.SealEnvelope(s.passphrase, plaintext)
	if err != nil {
		return fmt.Errorf("seal snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"

	dErrors "livre/pkg/domain-errors"
)

const (
	keySize   = 32 // AES-256
	nonceSize = 12
	tagSize   = 16
)

// ErrCryptoFailure is returned for every decryption failure: bad tag, wrong
// key, corrupt ciphertext or nonce. A single uniform error avoids giving
// callers an oracle for which integrity check tripped.
var ErrCryptoFailure = dErrors.New(dErrors.CodeCryptoFailure, "decryption failed")

// EncryptedBlob is the at-rest form of an encrypted JSON payload. The auth
// tag is carried separately from the ciphertext so the wire shape matches
// the vault's storage contract.
type EncryptedBlob struct {
	Ciphertext string `json:"ciphertext"`
	Nonce      string `json:"nonce"`
	AuthTag    string `json:"authTag"`
}

// Cipher performs AES-256-GCM under a fixed injected key. The attribute
// vault owns one Cipher for its process-lifetime key; there is no ambient
// package-level key.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// NewVaultKey returns a fresh random 32-byte key. The vault key is generated
// at process start and never persisted, so vault contents do not survive a
// restart.
func NewVaultKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// EncryptJSON marshals v and seals it under a fresh random nonce. Nonces are
// never reused under the same key.
func (c *Cipher) EncryptJSON(v any) (EncryptedBlob, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return EncryptedBlob{}, err
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return EncryptedBlob{}, err
	}
	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	// Seal appends the tag; split it out so the blob carries it explicitly.
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]
	return EncryptedBlob{
		Ciphertext: base64.StdEncoding.EncodeToString(ct),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		AuthTag:    base64.StdEncoding.EncodeToString(tag),
	}, nil
}

// DecryptJSON opens blob and unmarshals the plaintext into out. Any failure,
// from undecodable base64 to a bad auth tag, returns ErrCryptoFailure.
func (c *Cipher) DecryptJSON(blob EncryptedBlob, out any) error {
	ct, err := base64.StdEncoding.DecodeString(blob.Ciphertext)
	if err != nil {
		return ErrCryptoFailure
	}
	nonce, err := base64.StdEncoding.DecodeString(blob.Nonce)
	if err != nil || len(nonce) != nonceSize {
		return ErrCryptoFailure
	}
	tag, err := base64.StdEncoding.DecodeString(blob.AuthTag)
	if err != nil || len(tag) != tagSize {
		return ErrCryptoFailure
	}
	plaintext, err := c.aead.Open(nil, nonce, append(ct, tag...), nil)
	if err != nil {
		return ErrCryptoFailure
	}
	if err := json.Unmarshal(plaintext, out); err != nil {
		return ErrCryptoFailure
	}
	return nil
}

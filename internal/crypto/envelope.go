package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/scrypt"
)

// Snapshot envelope layout: salt(16) || nonce(12) || tag(16) || ciphertext.
// The key is derived per file from the passphrase and the random salt, so
// two snapshots of identical plaintext never share key material.
const (
	saltSize          = 16
	envelopeMinLength = saltSize + nonceSize + tagSize
)

// scrypt cost parameters; interactive-grade, same shape the rest of the
// corpus uses for passphrase-derived file keys.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var (
	// ErrEnvelopeMalformed: the blob is structurally not an envelope (too
	// short to hold salt, nonce, and tag). Distinct from an authentication
	// failure so snapshot loading can tell corruption from a wrong key.
	ErrEnvelopeMalformed = errors.New("envelope too small")

	// ErrEnvelopeAuthentication: the tag did not verify. Covers a wrong
	// passphrase and any byte-level tamper of salt, nonce, tag, or
	// ciphertext; the two are cryptographically indistinguishable.
	ErrEnvelopeAuthentication = errors.New("wrong passphrase or tampered envelope")
)

func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, keySize)
}

// SealEnvelope encrypts plaintext under a passphrase-derived key with a
// fresh salt and nonce.
func SealEnvelope(passphrase string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, envelopeMinLength+len(ct))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ct...)
	return out, nil
}

// OpenEnvelope re-derives the key from the embedded salt and authenticates
// the payload. Decryption never partially applies: on any failure the
// caller gets an error and no plaintext.
func OpenEnvelope(passphrase string, data []byte) ([]byte, error) {
	if len(data) < envelopeMinLength {
		return nil, ErrEnvelopeMalformed
	}
	salt := data[:saltSize]
	nonce := data[saltSize : saltSize+nonceSize]
	tag := data[saltSize+nonceSize : envelopeMinLength]
	ct := data[envelopeMinLength:]

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrEnvelopeAuthentication
	}
	return plaintext, nil
}
